package service

import (
	"fmt"
	"strings"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
)

// IllegalTransitionError 当前状态不允许请求的流转。调用方错误，不可重试
type IllegalTransitionError struct {
	BuildNumber string
	Current     entity.BuildStatus
	Attempted   entity.BuildStatus
	Allowed     []entity.BuildStatus
}

func (e *IllegalTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	next := strings.Join(allowed, ", ")
	if next == "" {
		next = "无（终态）"
	}
	return fmt.Sprintf("订单 %s 当前状态 %s 不允许流转到 %s，允许的下一状态: %s",
		e.BuildNumber, e.Current, e.Attempted, next)
}

// Shortage 单个元件的缺料明细
type Shortage struct {
	ComponentID   string  `json:"component_id"`
	ComponentCode string  `json:"component_code"`
	Required      float64 `json:"required"`
	Available     float64 `json:"available"`
	Shortfall     float64 `json:"shortfall"`
}

// InsufficientStockError 可行性检查发现缺料。调用方可补货后重试，或用 force 强制部分预留
type InsufficientStockError struct {
	BuildNumber string
	Shortages   []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("%s 需要%.4f 可用%.4f 缺%.4f",
			s.ComponentCode, s.Required, s.Available, s.Shortfall)
	}
	return fmt.Sprintf("订单 %s 物料不足: %s", e.BuildNumber, strings.Join(parts, "; "))
}

// InvariantViolationError 库存不变量被破坏（数量/预留/可用为负）。属于内部缺陷，整个流转回滚
type InvariantViolationError struct {
	RecordID  string
	Quantity  float64
	Reserved  float64
	Available float64
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("库存记录 %s 不变量被破坏: quantity=%.4f reserved=%.4f available=%.4f",
		e.RecordID, e.Quantity, e.Reserved, e.Available)
}

// ConcurrencyConflictError 事务冲突（死锁/序列化失败）。瞬时错误，调用方应整体重试
type ConcurrencyConflictError struct {
	Err error
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("并发冲突，请重试: %v", e.Err)
}

func (e *ConcurrencyConflictError) Unwrap() error {
	return e.Err
}

// ValidationError 请求参数非法。调用方错误，不可重试
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NotFoundError 订单/BOM/库存记录不存在
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s 不存在: %s", e.Kind, e.ID)
}

// translateDBError 把数据库层的死锁/序列化失败包装为可重试的并发冲突
func translateDBError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "SQLSTATE 40001") ||
		strings.Contains(msg, "SQLSTATE 40P01") {
		return &ConcurrencyConflictError{Err: err}
	}
	return err
}

// isUniqueViolation 判断是否唯一索引冲突（订单编号被并发抢占）
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
