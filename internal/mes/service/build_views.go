package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
)

// ComponentView 订单详情里单个元件的需求与可得性
type ComponentView struct {
	ComponentID   string  `json:"component_id"`
	ComponentCode string  `json:"component_code"`
	ComponentName string  `json:"component_name"`
	QuantityPer   float64 `json:"quantity_per"`
	Optional      bool    `json:"optional"`
	Required      float64 `json:"required"`
	Available     float64 `json:"available"`
	Shortfall     float64 `json:"shortfall"`
}

// BuildDetail 生产订单详情：订单本体 + 逐元件可行性视图 + 审计流水
type BuildDetail struct {
	Order        *entity.BuildOrder            `json:"order"`
	Components   []ComponentView               `json:"components"`
	Feasible     bool                          `json:"feasible"`
	Transactions []entity.InventoryTransaction `json:"transactions"`
}

// GetDetail 订单详情与可行性视图。只读，不加锁
func (s *BuildService) GetDetail(ctx context.Context, id string) (*BuildDetail, error) {
	order, err := s.repos.BuildOrder.GetByID(id)
	if err != nil {
		return nil, &NotFoundError{Kind: "生产订单", ID: id}
	}

	entries, err := s.repos.Bom.GetEntries(order.ProductID, order.BOMVersion)
	if err != nil {
		return nil, fmt.Errorf("读取BOM失败: %w", err)
	}

	detail := &BuildDetail{Order: order, Feasible: true}
	for i := range entries {
		e := &entries[i]
		view := ComponentView{
			ComponentID:   e.ComponentID,
			ComponentCode: e.ComponentCode,
			ComponentName: e.ComponentName,
			QuantityPer:   e.QuantityPer,
			Optional:      e.Optional,
		}
		if !e.Optional {
			view.Required = e.QuantityPer * float64(order.Quantity)
			available, err := s.repos.Inventory.SumAvailable(e.ComponentID)
			if err != nil {
				return nil, fmt.Errorf("读取库存失败: %w", err)
			}
			view.Available = available
			if available+stockEpsilon < view.Required {
				view.Shortfall = view.Required - available
				detail.Feasible = false
			}
		}
		detail.Components = append(detail.Components, view)
	}

	txs, err := s.repos.Transaction.ListByReferenceID(order.ID)
	if err != nil {
		return nil, fmt.Errorf("读取库存流水失败: %w", err)
	}
	detail.Transactions = txs
	return detail, nil
}

// PickLine 拣料单行：某元件在某库位要取的数量
type PickLine struct {
	ComponentID   string  `json:"component_id"`
	ComponentCode string  `json:"component_code"`
	ComponentName string  `json:"component_name"`
	LocationID    string  `json:"location_id"`
	LocationName  string  `json:"location_name"`
	Quantity      float64 `json:"quantity"`
}

// PickList 拣料单，供仓库工人按库位备料
type PickList struct {
	BuildNumber string     `json:"build_number"`
	ProductCode string     `json:"product_code"`
	ProductName string     `json:"product_name"`
	Quantity    int        `json:"quantity"`
	Preview     bool       `json:"preview"` // true=按当前可用库存试算，尚未实际预留
	Lines       []PickLine `json:"lines"`
}

// GetPickList 生成拣料单。已预留的订单按未了结的预留流水汇总；
// 尚在 planned 的订单按当前可用库存试算（预览）
func (s *BuildService) GetPickList(ctx context.Context, id string) (*PickList, error) {
	order, err := s.repos.BuildOrder.GetByID(id)
	if err != nil {
		return nil, &NotFoundError{Kind: "生产订单", ID: id}
	}

	list := &PickList{
		BuildNumber: order.BuildNumber,
		ProductCode: order.ProductCode,
		ProductName: order.ProductName,
		Quantity:    order.Quantity,
	}

	outstanding, err := s.repos.Transaction.OutstandingByRecord(order.ID)
	if err != nil {
		return nil, fmt.Errorf("读取库存流水失败: %w", err)
	}

	if len(outstanding) > 0 {
		for _, recordID := range sortedKeys(outstanding) {
			rec, err := s.repos.Inventory.GetByID(recordID)
			if err != nil {
				return nil, &NotFoundError{Kind: "库存记录", ID: recordID}
			}
			list.Lines = append(list.Lines, PickLine{
				ComponentID:   rec.ComponentID,
				ComponentCode: rec.ComponentCode,
				ComponentName: rec.ComponentName,
				LocationID:    rec.LocationID,
				LocationName:  rec.LocationName,
				Quantity:      outstanding[recordID],
			})
		}
		s.sortPickLines(list.Lines)
		return list, nil
	}

	// 未预留：按当前可用库存试算
	list.Preview = true
	entries, err := s.repos.Bom.GetEntries(order.ProductID, order.BOMVersion)
	if err != nil {
		return nil, fmt.Errorf("读取BOM失败: %w", err)
	}
	for _, req := range requirements(entries, order.Quantity) {
		records, err := s.repos.Inventory.GetByComponent(req.ComponentID)
		if err != nil {
			return nil, fmt.Errorf("读取库存失败: %w", err)
		}
		allocations, _ := Allocate(records, req.Required)
		for _, alloc := range allocations {
			rec := findRecord(records, alloc.RecordID)
			list.Lines = append(list.Lines, PickLine{
				ComponentID:   req.ComponentID,
				ComponentCode: req.ComponentCode,
				ComponentName: req.ComponentName,
				LocationID:    alloc.LocationID,
				LocationName:  rec.LocationName,
				Quantity:      alloc.Quantity,
			})
		}
	}
	s.sortPickLines(list.Lines)
	return list, nil
}

func (s *BuildService) sortPickLines(lines []PickLine) {
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ComponentCode != lines[j].ComponentCode {
			return lines[i].ComponentCode < lines[j].ComponentCode
		}
		return lines[i].LocationID < lines[j].LocationID
	})
}
