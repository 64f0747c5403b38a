package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventChannel 领域事件发布的redis频道，由外部任务/告警服务订阅
const EventChannel = "mes:events"

// 领域事件类型
const (
	EventMaterialsShort = "build.materials_short"
	EventReserved       = "build.materials_reserved"
	EventStarted        = "build.started"
	EventCompleted      = "build.completed"
	EventCancelled      = "build.cancelled"
)

// DomainEvent 发往告警/任务系统的领域事件
type DomainEvent struct {
	Type        string      `json:"type"`
	BuildNumber string      `json:"build_number"`
	ProductID   string      `json:"product_id"`
	Payload     interface{} `json:"payload,omitempty"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// EventSink 领域事件出口。生产环境由redis发布器实现，测试可注入录制实现
type EventSink interface {
	Publish(ctx context.Context, event DomainEvent)
}

// EventPublisher 领域事件发布器。发布失败只记日志，不影响主流程
type EventPublisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewEventPublisher(rdb *redis.Client, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{rdb: rdb, logger: logger}
}

func (p *EventPublisher) Publish(ctx context.Context, event DomainEvent) {
	if p == nil || p.rdb == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("序列化领域事件失败", zap.String("type", event.Type), zap.Error(err))
		return
	}
	if err := p.rdb.Publish(ctx, EventChannel, data).Err(); err != nil {
		p.logger.Warn("发布领域事件失败",
			zap.String("type", event.Type),
			zap.String("build_number", event.BuildNumber),
			zap.Error(err),
		)
	}
}
