package service

import (
	"context"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
)

// InventoryService 库存只读视图。入库由外部收货服务负责，
// 本服务对库存的全部变更都走生产订单的状态流转
type InventoryService struct {
	repos *repository.Repositories
}

func NewInventoryService(repos *repository.Repositories) *InventoryService {
	return &InventoryService{repos: repos}
}

func (s *InventoryService) List(ctx context.Context, params repository.InventoryListParams) ([]entity.InventoryRecord, int64, error) {
	return s.repos.Inventory.List(params)
}

func (s *InventoryService) GetByComponent(ctx context.Context, componentID string) ([]entity.InventoryRecord, error) {
	return s.repos.Inventory.GetByComponent(componentID)
}

func (s *InventoryService) ListTransactions(ctx context.Context, componentID string, page, size int) ([]entity.InventoryTransaction, int64, error) {
	return s.repos.Transaction.ListByComponent(componentID, page, size)
}

// ListTransactionsByBuild 按订单号回放该订单的全部库存动作
func (s *InventoryService) ListTransactionsByBuild(ctx context.Context, buildOrderID string) ([]entity.InventoryTransaction, error) {
	return s.repos.Transaction.ListByReferenceID(buildOrderID)
}

func (s *InventoryService) GetAlerts(ctx context.Context) ([]entity.InventoryRecord, error) {
	return s.repos.Inventory.GetAlerts()
}
