package entity

import (
	"time"
)

// InventoryStatus 库存状态（由数量与阈值派生）
const (
	InventoryStatusInStock    = "in_stock"
	InventoryStatusLowStock   = "low_stock"
	InventoryStatusOutOfStock = "out_of_stock"
	InventoryStatusOverstock  = "overstock"
)

// TransactionType 库存交易类型
const (
	TxTypeReserve   = "reserve"   // 预留
	TxTypeUnreserve = "unreserve" // 释放预留
	TxTypeConsume   = "consume"   // 消耗
)

// InventoryRecord 单一元件在单一库位的库存记录
type InventoryRecord struct {
	ID            string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ComponentID   string     `json:"component_id" gorm:"size:32;not null;index"`
	ComponentCode string     `json:"component_code" gorm:"size:64"`
	ComponentName string     `json:"component_name" gorm:"size:128"`
	LocationID    string     `json:"location_id" gorm:"size:64;not null;index"`
	LocationName  string     `json:"location_name" gorm:"size:128"`
	Quantity      float64    `json:"quantity" gorm:"type:decimal(12,4);not null;default:0"`
	ReservedQty   float64    `json:"reserved_qty" gorm:"type:decimal(12,4);not null;default:0"`
	AvailableQty  float64    `json:"available_qty" gorm:"type:decimal(12,4);not null;default:0"`
	UnitCost      float64    `json:"unit_cost" gorm:"type:decimal(12,4);default:0"`
	MinStock      float64    `json:"min_stock" gorm:"type:decimal(12,4);default:0"`
	MaxStock      float64    `json:"max_stock" gorm:"type:decimal(12,4);default:0"`
	Status        string     `json:"status" gorm:"size:20;not null;default:in_stock"`
	LastMovedAt   *time.Time `json:"last_moved_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at" gorm:"index"`
}

func (InventoryRecord) TableName() string {
	return "mes_inventory_records"
}

// RecalcDerived 重算可用数量和库存状态。不做非负校验，校验由台账层负责
func (r *InventoryRecord) RecalcDerived() {
	r.AvailableQty = r.Quantity - r.ReservedQty
	r.Status = r.deriveStatus()
}

func (r *InventoryRecord) deriveStatus() string {
	switch {
	case r.Quantity <= 0:
		return InventoryStatusOutOfStock
	case r.MinStock > 0 && r.Quantity < r.MinStock:
		return InventoryStatusLowStock
	case r.MaxStock > 0 && r.Quantity > r.MaxStock:
		return InventoryStatusOverstock
	default:
		return InventoryStatusInStock
	}
}

// InventoryTransaction 库存交易流水。只增不改，是预留/消耗的唯一事实来源。
// Seq 由数据库序列分配，是唯一可靠的写入顺序键：同一次流转内的多条流水
// 共享同一时间戳，CreatedAt 无法区分先后
type InventoryTransaction struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Seq            uint64    `json:"seq" gorm:"autoIncrement;uniqueIndex"`
	Type           string    `json:"type" gorm:"size:20;not null;index"`
	ComponentID    string    `json:"component_id" gorm:"size:32;not null;index"`
	ComponentCode  string    `json:"component_code" gorm:"size:64"`
	ComponentName  string    `json:"component_name" gorm:"size:128"`
	LocationID     string    `json:"location_id" gorm:"size:64;not null"`
	RecordID       string    `json:"record_id" gorm:"type:uuid;not null;index"`
	Quantity       float64   `json:"quantity" gorm:"type:decimal(12,4);not null"` // 预留/消耗为负，释放为正
	QuantityBefore float64   `json:"quantity_before" gorm:"type:decimal(12,4);not null"`
	QuantityAfter  float64   `json:"quantity_after" gorm:"type:decimal(12,4);not null"`
	ReservedBefore float64   `json:"reserved_before" gorm:"type:decimal(12,4);not null"`
	ReservedAfter  float64   `json:"reserved_after" gorm:"type:decimal(12,4);not null"`
	Reference      string    `json:"reference" gorm:"size:50;not null;index"` // 生产订单号
	ReferenceID    string    `json:"reference_id" gorm:"type:uuid;not null;index"`
	Reason         string    `json:"reason" gorm:"type:text"`
	CreatedBy      string    `json:"created_by" gorm:"size:64;not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}

func (InventoryTransaction) TableName() string {
	return "mes_inventory_transactions"
}

// Magnitude 交易数量绝对值
func (t *InventoryTransaction) Magnitude() float64 {
	if t.Quantity < 0 {
		return -t.Quantity
	}
	return t.Quantity
}
