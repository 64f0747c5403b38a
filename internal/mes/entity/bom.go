package entity

import (
	"time"
)

// BOMVersionCurrent 未指定版本时使用的默认版本
const BOMVersionCurrent = "current"

// BomEntry 产品BOM行项。由外部BOM同步服务维护，本服务只读
type BomEntry struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ProductID     string    `json:"product_id" gorm:"size:32;not null;uniqueIndex:idx_bom_entry,priority:1"`
	BOMVersion    string    `json:"bom_version" gorm:"size:16;not null;default:current;uniqueIndex:idx_bom_entry,priority:2"`
	ComponentID   string    `json:"component_id" gorm:"size:32;not null;uniqueIndex:idx_bom_entry,priority:3"`
	ComponentCode string    `json:"component_code" gorm:"size:64"`
	ComponentName string    `json:"component_name" gorm:"size:128"`
	QuantityPer   float64   `json:"quantity_per" gorm:"type:decimal(12,4);not null"`
	Optional      bool      `json:"optional" gorm:"default:false"`
	Reference     string    `json:"reference" gorm:"size:128"` // 位号，仅供BOM同步服务做替代料匹配
	Notes         string    `json:"notes" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (BomEntry) TableName() string {
	return "mes_bom_entries"
}
