package entity

import (
	"time"
)

// ProductCostType 成本快照类型
const (
	CostTypeEstimate = "estimate" // 估算（报价工具）
	CostTypeActual   = "actual"   // 实际（完工结算）
)

// CostSource 单价取值来源
const (
	CostSourcePurchaseOrder     = "purchase_order"
	CostSourceInventory         = "inventory"
	CostSourcePreferredSupplier = "preferred_supplier"
	CostSourceSupplier          = "supplier"
	CostSourceUnknown           = "unknown"
)

// ProductCost COGS成本快照，写入后不再修改
type ProductCost struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ProductID    string    `json:"product_id" gorm:"size:32;not null;index"`
	BuildOrderID *string   `json:"build_order_id" gorm:"type:uuid;index"`
	BuildNumber  string    `json:"build_number" gorm:"size:50"`
	Type         string    `json:"type" gorm:"size:10;not null"`
	Quantity     int       `json:"quantity" gorm:"not null"`
	MaterialCost float64   `json:"material_cost" gorm:"type:decimal(15,4);not null;default:0"`
	LaborCost    float64   `json:"labor_cost" gorm:"type:decimal(15,4);default:0"`
	OverheadCost float64   `json:"overhead_cost" gorm:"type:decimal(15,4);default:0"`
	TotalCost    float64   `json:"total_cost" gorm:"type:decimal(15,4);not null;default:0"`
	CostPerUnit  float64   `json:"cost_per_unit" gorm:"type:decimal(15,4);not null;default:0"`
	CalculatedBy string    `json:"calculated_by" gorm:"size:64;not null"`
	CreatedAt    time.Time `json:"created_at"`

	Items []ProductCostItem `json:"items,omitempty" gorm:"foreignKey:ProductCostID"`
}

func (ProductCost) TableName() string {
	return "mes_product_costs"
}

// ProductCostItem 成本快照明细行
type ProductCostItem struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ProductCostID string    `json:"product_cost_id" gorm:"type:uuid;not null;index"`
	ComponentID   string    `json:"component_id" gorm:"size:32;not null"`
	ComponentCode string    `json:"component_code" gorm:"size:64"`
	ComponentName string    `json:"component_name" gorm:"size:128"`
	QuantityPer   float64   `json:"quantity_per" gorm:"type:decimal(12,4);not null"`
	QuantityTotal float64   `json:"quantity_total" gorm:"type:decimal(12,4);not null"`
	UnitCost      float64   `json:"unit_cost" gorm:"type:decimal(12,4);not null"`
	LineTotal     float64   `json:"line_total" gorm:"type:decimal(15,4);not null"`
	CostSource    string    `json:"cost_source" gorm:"size:20;not null"`
	CreatedAt     time.Time `json:"created_at"`
}

func (ProductCostItem) TableName() string {
	return "mes_product_cost_items"
}
