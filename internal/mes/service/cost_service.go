package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CostService COGS成本快照生成器。单价取值优先级：
// 最近采购订单行价 → 库存记录单价 → 首选供应商报价 → 任意供应商报价 → 0（unknown）
type CostService struct {
	repos  *repository.Repositories
	logger *zap.Logger
	clock  func() time.Time
}

func NewCostService(repos *repository.Repositories, logger *zap.Logger) *CostService {
	return &CostService{repos: repos, logger: logger, clock: time.Now}
}

// WithClock 注入时间源，测试用
func (s *CostService) WithClock(clock func() time.Time) *CostService {
	s.clock = clock
	return s
}

// resolveUnitCost 按优先级链取元件单价
func (s *CostService) resolveUnitCost(componentID string) (decimal.Decimal, string, error) {
	if price, ok, err := s.repos.Supplier.LatestPOPrice(componentID); err != nil {
		return decimal.Zero, "", err
	} else if ok && price > 0 {
		return decimal.NewFromFloat(price), entity.CostSourcePurchaseOrder, nil
	}

	records, err := s.repos.Inventory.GetByComponent(componentID)
	if err != nil {
		return decimal.Zero, "", err
	}
	for i := range records {
		if records[i].UnitCost > 0 {
			return decimal.NewFromFloat(records[i].UnitCost), entity.CostSourceInventory, nil
		}
	}

	if price, ok, err := s.repos.Supplier.PreferredPrice(componentID); err != nil {
		return decimal.Zero, "", err
	} else if ok && price > 0 {
		return decimal.NewFromFloat(price), entity.CostSourcePreferredSupplier, nil
	}

	if price, ok, err := s.repos.Supplier.AnyPrice(componentID); err != nil {
		return decimal.Zero, "", err
	} else if ok && price > 0 {
		return decimal.NewFromFloat(price), entity.CostSourceSupplier, nil
	}

	return decimal.Zero, entity.CostSourceUnknown, nil
}

// consumedLine 完工后从审计流水汇总出的单元件消耗量
type consumedLine struct {
	ComponentID   string
	ComponentCode string
	ComponentName string
	Quantity      float64
}

// GenerateActual 完工时生成 actual 类型成本快照。
// 消耗量来自审计流水而非BOM，预留后BOM变更不影响结算口径
func (s *CostService) GenerateActual(ctx context.Context, order *entity.BuildOrder, totalUnits int, userID string) (*entity.ProductCost, error) {
	if totalUnits <= 0 {
		return nil, fmt.Errorf("产出数量必须大于0")
	}

	txs, err := s.repos.Transaction.ListByReferenceID(order.ID)
	if err != nil {
		return nil, fmt.Errorf("读取库存流水失败: %w", err)
	}
	byComp := make(map[string]*consumedLine)
	var compOrder []string
	for i := range txs {
		t := &txs[i]
		if t.Type != entity.TxTypeConsume {
			continue
		}
		line, ok := byComp[t.ComponentID]
		if !ok {
			line = &consumedLine{
				ComponentID:   t.ComponentID,
				ComponentCode: t.ComponentCode,
				ComponentName: t.ComponentName,
			}
			byComp[t.ComponentID] = line
			compOrder = append(compOrder, t.ComponentID)
		}
		line.Quantity += t.Magnitude()
	}
	sort.Strings(compOrder)

	now := s.clock()
	cost := &entity.ProductCost{
		ID:           uuid.New().String(),
		ProductID:    order.ProductID,
		BuildOrderID: &order.ID,
		BuildNumber:  order.BuildNumber,
		Type:         entity.CostTypeActual,
		Quantity:     totalUnits,
		CalculatedBy: userID,
		CreatedAt:    now,
	}

	units := decimal.NewFromInt(int64(totalUnits))
	material := decimal.Zero
	for _, compID := range compOrder {
		line := byComp[compID]
		unitCost, source, err := s.resolveUnitCost(compID)
		if err != nil {
			return nil, fmt.Errorf("取元件 %s 单价失败: %w", line.ComponentCode, err)
		}
		qty := decimal.NewFromFloat(line.Quantity)
		lineTotal := unitCost.Mul(qty)
		material = material.Add(lineTotal)

		cost.Items = append(cost.Items, entity.ProductCostItem{
			ID:            uuid.New().String(),
			ProductCostID: cost.ID,
			ComponentID:   line.ComponentID,
			ComponentCode: line.ComponentCode,
			ComponentName: line.ComponentName,
			QuantityPer:   qty.Div(units).InexactFloat64(),
			QuantityTotal: line.Quantity,
			UnitCost:      unitCost.InexactFloat64(),
			LineTotal:     lineTotal.InexactFloat64(),
			CostSource:    source,
			CreatedAt:     now,
		})
	}

	cost.MaterialCost = material.InexactFloat64()
	cost.TotalCost = cost.MaterialCost + cost.LaborCost + cost.OverheadCost
	cost.CostPerUnit = material.Div(units).InexactFloat64()

	if err := s.repos.Cost.Create(cost); err != nil {
		return nil, fmt.Errorf("保存成本快照失败: %w", err)
	}
	return cost, nil
}

// CalculateEstimate 报价工具用的 estimate 类型快照，按BOM净需求估算
func (s *CostService) CalculateEstimate(ctx context.Context, productID, version string, quantity int, userID string) (*entity.ProductCost, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("估算数量必须大于0")
	}
	entries, err := s.repos.Bom.GetEntries(productID, version)
	if err != nil {
		return nil, fmt.Errorf("读取BOM失败: %w", err)
	}
	if len(entries) == 0 {
		return nil, &NotFoundError{Kind: "BOM", ID: productID + "@" + version}
	}

	now := s.clock()
	cost := &entity.ProductCost{
		ID:           uuid.New().String(),
		ProductID:    productID,
		Type:         entity.CostTypeEstimate,
		Quantity:     quantity,
		CalculatedBy: userID,
		CreatedAt:    now,
	}

	units := decimal.NewFromInt(int64(quantity))
	material := decimal.Zero
	for _, req := range requirements(entries, quantity) {
		unitCost, source, err := s.resolveUnitCost(req.ComponentID)
		if err != nil {
			return nil, fmt.Errorf("取元件 %s 单价失败: %w", req.ComponentCode, err)
		}
		qty := decimal.NewFromFloat(req.Required)
		lineTotal := unitCost.Mul(qty)
		material = material.Add(lineTotal)

		cost.Items = append(cost.Items, entity.ProductCostItem{
			ID:            uuid.New().String(),
			ProductCostID: cost.ID,
			ComponentID:   req.ComponentID,
			ComponentCode: req.ComponentCode,
			ComponentName: req.ComponentName,
			QuantityPer:   qty.Div(units).InexactFloat64(),
			QuantityTotal: req.Required,
			UnitCost:      unitCost.InexactFloat64(),
			LineTotal:     lineTotal.InexactFloat64(),
			CostSource:    source,
			CreatedAt:     now,
		})
	}

	cost.MaterialCost = material.InexactFloat64()
	cost.TotalCost = cost.MaterialCost
	cost.CostPerUnit = material.Div(units).InexactFloat64()

	if err := s.repos.Cost.Create(cost); err != nil {
		return nil, fmt.Errorf("保存成本快照失败: %w", err)
	}
	return cost, nil
}

func (s *CostService) GetByID(ctx context.Context, id string) (*entity.ProductCost, error) {
	cost, err := s.repos.Cost.GetByID(id)
	if err != nil {
		return nil, &NotFoundError{Kind: "成本快照", ID: id}
	}
	return cost, nil
}

func (s *CostService) GetByBuildOrder(ctx context.Context, buildOrderID string) (*entity.ProductCost, error) {
	cost, err := s.repos.Cost.GetByBuildOrder(buildOrderID)
	if err != nil {
		return nil, &NotFoundError{Kind: "成本快照", ID: buildOrderID}
	}
	return cost, nil
}

func (s *CostService) List(ctx context.Context, params repository.CostListParams) ([]entity.ProductCost, int64, error) {
	return s.repos.Cost.List(params)
}
