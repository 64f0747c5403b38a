package repository

import "gorm.io/gorm"

// Repositories MES 仓库集合
type Repositories struct {
	BuildOrder  *BuildOrderRepository
	Bom         *BomRepository
	Inventory   *InventoryRepository
	Transaction *TransactionRepository
	Cost        *CostRepository
	Supplier    *SupplierRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		BuildOrder:  NewBuildOrderRepository(db),
		Bom:         NewBomRepository(db),
		Inventory:   NewInventoryRepository(db),
		Transaction: NewTransactionRepository(db),
		Cost:        NewCostRepository(db),
		Supplier:    NewSupplierRepository(db),
	}
}

// WithTx 返回绑定到指定事务的仓库集合，保证一次状态流转内的读写同属一个工作单元
func (r *Repositories) WithTx(tx *gorm.DB) *Repositories {
	return NewRepositories(tx)
}
