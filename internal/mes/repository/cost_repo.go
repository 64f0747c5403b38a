package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

type CostRepository struct {
	db *gorm.DB
}

func NewCostRepository(db *gorm.DB) *CostRepository {
	return &CostRepository{db: db}
}

// Create 持久化成本快照及其明细行
func (r *CostRepository) Create(cost *entity.ProductCost) error {
	return r.db.Create(cost).Error
}

func (r *CostRepository) GetByID(id string) (*entity.ProductCost, error) {
	var cost entity.ProductCost
	err := r.db.Preload("Items").Where("id = ?", id).First(&cost).Error
	if err != nil {
		return nil, err
	}
	return &cost, nil
}

func (r *CostRepository) GetByBuildOrder(buildOrderID string) (*entity.ProductCost, error) {
	var cost entity.ProductCost
	err := r.db.Preload("Items").
		Where("build_order_id = ?", buildOrderID).First(&cost).Error
	if err != nil {
		return nil, err
	}
	return &cost, nil
}

type CostListParams struct {
	ProductID string
	Type      string
	Page      int
	Size      int
}

func (r *CostRepository) List(params CostListParams) ([]entity.ProductCost, int64, error) {
	query := r.db.Model(&entity.ProductCost{})
	if params.ProductID != "" {
		query = query.Where("product_id = ?", params.ProductID)
	}
	if params.Type != "" {
		query = query.Where("type = ?", params.Type)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var costs []entity.ProductCost
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&costs).Error
	return costs, total, err
}
