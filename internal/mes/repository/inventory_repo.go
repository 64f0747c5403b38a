package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) GetByID(id string) (*entity.InventoryRecord, error) {
	var rec entity.InventoryRecord
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetByIDForUpdate 加行锁读取单条库存记录
func (r *InventoryRepository) GetByIDForUpdate(id string) (*entity.InventoryRecord, error) {
	var rec entity.InventoryRecord
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND deleted_at IS NULL", id).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetByComponent 查询某元件在所有库位的库存
func (r *InventoryRepository) GetByComponent(componentID string) ([]entity.InventoryRecord, error) {
	var records []entity.InventoryRecord
	err := r.db.Where("component_id = ? AND deleted_at IS NULL", componentID).
		Order("id").Find(&records).Error
	return records, err
}

// GetByComponentsForUpdate 按全局记录id顺序加行锁读取一批元件的全部库存记录。
// 所有流转都按同一id顺序加锁，避免并发流转互相死锁
func (r *InventoryRepository) GetByComponentsForUpdate(componentIDs []string) ([]entity.InventoryRecord, error) {
	if len(componentIDs) == 0 {
		return nil, nil
	}
	var records []entity.InventoryRecord
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("component_id IN ? AND deleted_at IS NULL", componentIDs).
		Order("id").Find(&records).Error
	return records, err
}

// SumAvailable 某元件跨库位可用总量
func (r *InventoryRepository) SumAvailable(componentID string) (float64, error) {
	var result struct{ Total float64 }
	err := r.db.Raw(`
		SELECT COALESCE(SUM(available_qty), 0) as total
		FROM mes_inventory_records
		WHERE component_id = ? AND deleted_at IS NULL
	`, componentID).Scan(&result).Error
	return result.Total, err
}

func (r *InventoryRepository) Update(rec *entity.InventoryRecord) error {
	return r.db.Save(rec).Error
}

type InventoryListParams struct {
	ComponentID string
	LocationID  string
	Status      string
	Keyword     string
	LowStock    bool
	Page        int
	Size        int
}

func (r *InventoryRepository) List(params InventoryListParams) ([]entity.InventoryRecord, int64, error) {
	query := r.db.Model(&entity.InventoryRecord{}).Where("deleted_at IS NULL")
	if params.ComponentID != "" {
		query = query.Where("component_id = ?", params.ComponentID)
	}
	if params.LocationID != "" {
		query = query.Where("location_id = ?", params.LocationID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("component_code ILIKE ? OR component_name ILIKE ?", kw, kw)
	}
	if params.LowStock {
		query = query.Where("min_stock > 0 AND quantity < min_stock")
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var records []entity.InventoryRecord
	err := query.Order("updated_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&records).Error
	return records, total, err
}

// GetAlerts 获取低库存预警列表
func (r *InventoryRepository) GetAlerts() ([]entity.InventoryRecord, error) {
	var alerts []entity.InventoryRecord
	err := r.db.Where("min_stock > 0 AND quantity < min_stock AND deleted_at IS NULL").
		Find(&alerts).Error
	return alerts, err
}

// DB 返回底层db用于事务
func (r *InventoryRepository) DB() *gorm.DB {
	return r.db
}
