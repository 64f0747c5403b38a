package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有MES表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// BOM（外部BOM同步服务维护）
		&BomEntry{},

		// 库存
		&InventoryRecord{},
		&InventoryTransaction{},

		// 生产
		&BuildOrder{},

		// 成本
		&ProductCost{},
		&ProductCostItem{},

		// 供应商价格（外部采购/供应商服务维护）
		&ComponentSupplier{},
		&POLine{},
	)
}
