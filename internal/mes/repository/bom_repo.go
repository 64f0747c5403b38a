package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// BomRepository BOM只读访问。行项由外部BOM同步服务写入
type BomRepository struct {
	db *gorm.DB
}

func NewBomRepository(db *gorm.DB) *BomRepository {
	return &BomRepository{db: db}
}

// GetEntries 查询产品指定版本的BOM行项，版本为空时取 current
func (r *BomRepository) GetEntries(productID, version string) ([]entity.BomEntry, error) {
	if version == "" {
		version = entity.BOMVersionCurrent
	}
	var entries []entity.BomEntry
	err := r.db.Where("product_id = ? AND bom_version = ?", productID, version).
		Order("component_id").Find(&entries).Error
	return entries, err
}

// ListVersions 查询产品存在的BOM版本
func (r *BomRepository) ListVersions(productID string) ([]string, error) {
	var versions []string
	err := r.db.Model(&entity.BomEntry{}).
		Where("product_id = ?", productID).
		Distinct("bom_version").Order("bom_version").Pluck("bom_version", &versions).Error
	return versions, err
}
