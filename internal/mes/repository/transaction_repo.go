package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// TransactionRepository 库存交易流水，只增不改
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(tx *entity.InventoryTransaction) error {
	return r.db.Create(tx).Error
}

// ListByReferenceID 按生产订单ID查询全部交易，按seq即写入顺序返回
func (r *TransactionRepository) ListByReferenceID(referenceID string) ([]entity.InventoryTransaction, error) {
	var txs []entity.InventoryTransaction
	err := r.db.Where("reference_id = ?", referenceID).
		Order("seq").Find(&txs).Error
	return txs, err
}

// ListByComponent 按元件分页查询交易历史
func (r *TransactionRepository) ListByComponent(componentID string, page, size int) ([]entity.InventoryTransaction, int64, error) {
	query := r.db.Model(&entity.InventoryTransaction{})
	if componentID != "" {
		query = query.Where("component_id = ?", componentID)
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var txs []entity.InventoryTransaction
	err := query.Order("seq DESC").
		Offset((page - 1) * size).Limit(size).Find(&txs).Error
	return txs, total, err
}

// OutstandingByRecord 按生产订单汇总各库存记录上尚未了结的预留量：
// 预留 − 消耗 − 释放。以流水为准，BOM在预留后发生变更也不影响结果
func (r *TransactionRepository) OutstandingByRecord(referenceID string) (map[string]float64, error) {
	txs, err := r.ListByReferenceID(referenceID)
	if err != nil {
		return nil, err
	}
	outstanding := make(map[string]float64)
	for i := range txs {
		tx := &txs[i]
		switch tx.Type {
		case entity.TxTypeReserve:
			outstanding[tx.RecordID] += tx.Magnitude()
		case entity.TxTypeConsume, entity.TxTypeUnreserve:
			outstanding[tx.RecordID] -= tx.Magnitude()
		}
	}
	for id, qty := range outstanding {
		if qty <= 0 {
			delete(outstanding, id)
		}
	}
	return outstanding, nil
}
