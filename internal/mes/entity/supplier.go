package entity

import (
	"time"
)

// ComponentSupplier 元件-供应商报价链接。由供应商管理服务维护，成本快照只读
type ComponentSupplier struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ComponentID  string    `json:"component_id" gorm:"size:32;not null;index"`
	SupplierID   string    `json:"supplier_id" gorm:"size:32;not null"`
	SupplierName string    `json:"supplier_name" gorm:"size:200"`
	UnitPrice    float64   `json:"unit_price" gorm:"type:decimal(12,4);not null"`
	Preferred    bool      `json:"preferred" gorm:"default:false"`
	LeadTimeDays int       `json:"lead_time_days" gorm:"default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (ComponentSupplier) TableName() string {
	return "mes_component_suppliers"
}

// POLine 采购订单行价格历史。由采购/收货服务写入，成本快照只读
type POLine struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	POCode      string    `json:"po_code" gorm:"size:50;not null;index"`
	ComponentID string    `json:"component_id" gorm:"size:32;not null;index"`
	Quantity    float64   `json:"quantity" gorm:"type:decimal(12,4);not null"`
	UnitPrice   float64   `json:"unit_price" gorm:"type:decimal(12,4);not null"`
	OrderedAt   time.Time `json:"ordered_at" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
}

func (POLine) TableName() string {
	return "mes_po_lines"
}
