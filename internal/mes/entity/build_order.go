package entity

import (
	"time"
)

// BuildStatus 生产订单状态
type BuildStatus string

const (
	BuildStatusPlanned    BuildStatus = "planned"            // 已计划
	BuildStatusReserved   BuildStatus = "materials_reserved" // 物料已预留
	BuildStatusInProgress BuildStatus = "in_progress"        // 生产中
	BuildStatusQC         BuildStatus = "qc"                 // 质检中
	BuildStatusComplete   BuildStatus = "complete"           // 已完工（终态）
	BuildStatusCancelled  BuildStatus = "cancelled"          // 已取消（终态）
)

// buildTransitions 状态流转表：planned → materials_reserved → in_progress → qc → complete，
// cancelled 可从任意非终态进入
var buildTransitions = map[BuildStatus][]BuildStatus{
	BuildStatusPlanned:    {BuildStatusReserved, BuildStatusCancelled},
	BuildStatusReserved:   {BuildStatusInProgress, BuildStatusCancelled},
	BuildStatusInProgress: {BuildStatusQC, BuildStatusCancelled},
	BuildStatusQC:         {BuildStatusComplete, BuildStatusCancelled},
	BuildStatusComplete:   {},
	BuildStatusCancelled:  {},
}

// AllStatuses 全部状态，供穷举校验使用
func AllStatuses() []BuildStatus {
	return []BuildStatus{
		BuildStatusPlanned,
		BuildStatusReserved,
		BuildStatusInProgress,
		BuildStatusQC,
		BuildStatusComplete,
		BuildStatusCancelled,
	}
}

// Valid 状态是否合法
func (s BuildStatus) Valid() bool {
	_, ok := buildTransitions[s]
	return ok
}

// Terminal 是否为终态
func (s BuildStatus) Terminal() bool {
	next, ok := buildTransitions[s]
	return ok && len(next) == 0
}

// CanTransition 是否允许流转到目标状态
func (s BuildStatus) CanTransition(to BuildStatus) bool {
	for _, n := range buildTransitions[s] {
		if n == to {
			return true
		}
	}
	return false
}

// AllowedNext 允许的下一状态列表
func (s BuildStatus) AllowedNext() []BuildStatus {
	next := buildTransitions[s]
	out := make([]BuildStatus, len(next))
	copy(out, next)
	return out
}

// BuildOrder 生产订单
type BuildOrder struct {
	ID             string      `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	BuildNumber    string      `json:"build_number" gorm:"size:50;not null;uniqueIndex"`
	ProductID      string      `json:"product_id" gorm:"size:32;not null;index"`
	ProductCode    string      `json:"product_code" gorm:"size:64"`
	ProductName    string      `json:"product_name" gorm:"size:128"`
	Quantity       int         `json:"quantity" gorm:"not null"`
	Status         BuildStatus `json:"status" gorm:"size:20;not null;default:planned;index"`
	Priority       int         `json:"priority" gorm:"default:0"` // 0=普通, 1=紧急, 2=特急
	BOMVersion     string      `json:"bom_version" gorm:"size:16;not null;default:current"`
	AssignedTo     string      `json:"assigned_to" gorm:"size:64"`
	ScheduledStart *time.Time  `json:"scheduled_start"`
	ActualStart    *time.Time  `json:"actual_start"`
	CompletedAt    *time.Time  `json:"completed_at"`
	QCPassed       int         `json:"qc_passed" gorm:"default:0"`
	QCFailed       int         `json:"qc_failed" gorm:"default:0"`
	Notes          string      `json:"notes" gorm:"type:text"`
	CreatedBy      string      `json:"created_by" gorm:"size:64;not null"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (BuildOrder) TableName() string {
	return "mes_build_orders"
}

// TotalBuilt 实际产出数量（质检通过+不通过）
func (b *BuildOrder) TotalBuilt() int {
	return b.QCPassed + b.QCFailed
}
