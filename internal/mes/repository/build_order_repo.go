package repository

import (
	"strconv"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BuildOrderRepository struct {
	db *gorm.DB
}

func NewBuildOrderRepository(db *gorm.DB) *BuildOrderRepository {
	return &BuildOrderRepository{db: db}
}

func (r *BuildOrderRepository) Create(order *entity.BuildOrder) error {
	return r.db.Create(order).Error
}

func (r *BuildOrderRepository) GetByID(id string) (*entity.BuildOrder, error) {
	var order entity.BuildOrder
	err := r.db.Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetForUpdate 加行锁读取订单，用于状态流转事务
func (r *BuildOrderRepository) GetForUpdate(id string) (*entity.BuildOrder, error) {
	var order entity.BuildOrder
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *BuildOrderRepository) GetByNumber(buildNumber string) (*entity.BuildOrder, error) {
	var order entity.BuildOrder
	err := r.db.Where("build_number = ?", buildNumber).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *BuildOrderRepository) Update(order *entity.BuildOrder) error {
	return r.db.Save(order).Error
}

// MaxSequence 返回某产品某年已分配的最大顺序号，不存在时为0。
// 取最大值而不是计数：中间编号被删除或并发抢占后重取仍能得到新号
func (r *BuildOrderRepository) MaxSequence(productCode string, year int) (int64, error) {
	var result struct{ Seq int64 }
	prefix := "BD-" + productCode + "-" + strconv.Itoa(year) + "-%"
	err := r.db.Raw(`
		SELECT COALESCE(MAX(CAST(substring(build_number from '([0-9]+)$') AS INTEGER)), 0) as seq
		FROM mes_build_orders
		WHERE build_number LIKE ?
	`, prefix).Scan(&result).Error
	return result.Seq, err
}

type BuildOrderListParams struct {
	Status    string
	ProductID string
	Keyword   string
	Page      int
	Size      int
}

func (r *BuildOrderRepository) List(params BuildOrderListParams) ([]entity.BuildOrder, int64, error) {
	query := r.db.Model(&entity.BuildOrder{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.ProductID != "" {
		query = query.Where("product_id = ?", params.ProductID)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("build_number ILIKE ? OR product_name ILIKE ?", kw, kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var orders []entity.BuildOrder
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&orders).Error
	return orders, total, err
}

// DB 返回底层db用于事务
func (r *BuildOrderRepository) DB() *gorm.DB {
	return r.db
}
