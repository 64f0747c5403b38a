package service

import (
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
)

// stockEpsilon 浮点数量比较容差
const stockEpsilon = 1e-9

// ledgerEntry 一次台账变更要记录的审计属性
type ledgerEntry struct {
	txType      string
	buildID     string
	buildNumber string
	reason      string
	actor       string
	now         time.Time
}

// mutateStock 对单条库存记录应用数量/预留变更：重算派生字段、持久化、
// 并在同一工作单元内追加一条审计流水。任何导致负库存/负预留/负可用的
// 变更返回 InvariantViolationError，由外层事务整体回滚
func mutateStock(repos *repository.Repositories, rec *entity.InventoryRecord, dq, dr float64, e ledgerEntry) error {
	qBefore := rec.Quantity
	rBefore := rec.ReservedQty

	q := rec.Quantity + dq
	res := rec.ReservedQty + dr
	avail := q - res
	if q < -stockEpsilon || res < -stockEpsilon || avail < -stockEpsilon {
		return &InvariantViolationError{RecordID: rec.ID, Quantity: q, Reserved: res, Available: avail}
	}

	rec.Quantity = clampZero(q)
	rec.ReservedQty = clampZero(res)
	rec.RecalcDerived()
	rec.LastMovedAt = &e.now
	if err := repos.Inventory.Update(rec); err != nil {
		return fmt.Errorf("更新库存失败: %w", translateDBError(err))
	}

	// 符号约定：预留/消耗为负，释放为正
	var signed float64
	switch e.txType {
	case entity.TxTypeReserve, entity.TxTypeUnreserve:
		signed = -dr
	case entity.TxTypeConsume:
		signed = dq
	}

	tx := &entity.InventoryTransaction{
		ID:             uuid.New().String(),
		Type:           e.txType,
		ComponentID:    rec.ComponentID,
		ComponentCode:  rec.ComponentCode,
		ComponentName:  rec.ComponentName,
		LocationID:     rec.LocationID,
		RecordID:       rec.ID,
		Quantity:       signed,
		QuantityBefore: qBefore,
		QuantityAfter:  rec.Quantity,
		ReservedBefore: rBefore,
		ReservedAfter:  rec.ReservedQty,
		Reference:      e.buildNumber,
		ReferenceID:    e.buildID,
		Reason:         e.reason,
		CreatedBy:      e.actor,
		CreatedAt:      e.now,
	}
	if err := repos.Transaction.Create(tx); err != nil {
		return fmt.Errorf("写入库存流水失败: %w", translateDBError(err))
	}
	return nil
}

// clampZero 把浮点误差产生的微小负值归零
func clampZero(v float64) float64 {
	if v < 0 && v > -stockEpsilon {
		return 0
	}
	return v
}
