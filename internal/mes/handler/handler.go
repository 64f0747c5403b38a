package handler

import "github.com/bitfantasy/nimo-mes/internal/mes/service"

// Handlers MES HTTP处理器集合
type Handlers struct {
	BuildOrder *BuildOrderHandler
	Inventory  *InventoryHandler
	Cost       *CostHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		BuildOrder: NewBuildOrderHandler(services.Build, services.Exporter),
		Inventory:  NewInventoryHandler(services.Inventory),
		Cost:       NewCostHandler(services.Cost),
	}
}
