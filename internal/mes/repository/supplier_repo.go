package repository

import (
	"errors"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// SupplierRepository 供应商报价与采购价历史的只读访问，供成本快照取价
type SupplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// LatestPOPrice 最近一次采购订单行单价。无记录时返回 (0, false)
func (r *SupplierRepository) LatestPOPrice(componentID string) (float64, bool, error) {
	var line entity.POLine
	err := r.db.Where("component_id = ?", componentID).
		Order("ordered_at DESC").First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return line.UnitPrice, true, nil
}

// PreferredPrice 首选供应商单价
func (r *SupplierRepository) PreferredPrice(componentID string) (float64, bool, error) {
	var link entity.ComponentSupplier
	err := r.db.Where("component_id = ? AND preferred = true", componentID).
		Order("updated_at DESC").First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return link.UnitPrice, true, nil
}

// AnyPrice 任意供应商单价
func (r *SupplierRepository) AnyPrice(componentID string) (float64, bool, error) {
	var link entity.ComponentSupplier
	err := r.db.Where("component_id = ?", componentID).
		Order("updated_at DESC").First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return link.UnitPrice, true, nil
}
