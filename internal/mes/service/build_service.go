package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BuildService 生产订单状态机。每次状态流转在一个数据库事务内完成：
// BOM读取、库存加锁、预留/消耗/释放、审计流水、状态更新要么全部提交要么全部回滚
type BuildService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	cost   *CostService
	events EventSink
	logger *zap.Logger
	clock  func() time.Time
}

func NewBuildService(db *gorm.DB, repos *repository.Repositories, cost *CostService, events EventSink, logger *zap.Logger) *BuildService {
	return &BuildService{
		db:     db,
		repos:  repos,
		cost:   cost,
		events: events,
		logger: logger,
		clock:  time.Now,
	}
}

// WithClock 注入时间源，测试用
func (s *BuildService) WithClock(clock func() time.Time) *BuildService {
	s.clock = clock
	return s
}

type CreateBuildOrderRequest struct {
	ProductID      string `json:"product_id" binding:"required"`
	ProductCode    string `json:"product_code" binding:"required"`
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity" binding:"required,gt=0"`
	Priority       int    `json:"priority"`
	BOMVersion     string `json:"bom_version"`
	AssignedTo     string `json:"assigned_to"`
	ScheduledStart string `json:"scheduled_start"` // YYYY-MM-DD
	Notes          string `json:"notes"`
}

// Create 创建生产订单，初始状态 planned。
// 编号规则：BD-{产品编码}-{年份}-{当年最大顺序号+1}。并发创建同一产品时
// 编号可能被抢占，唯一索引兜底，冲突后重取顺序号重试
func (s *BuildService) Create(ctx context.Context, req CreateBuildOrderRequest, userID string) (*entity.BuildOrder, error) {
	version := req.BOMVersion
	if version == "" {
		version = entity.BOMVersionCurrent
	}

	entries, err := s.repos.Bom.GetEntries(req.ProductID, version)
	if err != nil {
		return nil, fmt.Errorf("读取BOM失败: %w", err)
	}
	if len(entries) == 0 {
		return nil, &NotFoundError{Kind: "BOM", ID: req.ProductID + "@" + version}
	}

	now := s.clock()
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		seq, err := s.repos.BuildOrder.MaxSequence(req.ProductCode, now.Year())
		if err != nil {
			return nil, fmt.Errorf("生成订单编号失败: %w", err)
		}
		number := fmt.Sprintf("BD-%s-%d-%04d", req.ProductCode, now.Year(), seq+1)

		order := &entity.BuildOrder{
			ID:          uuid.New().String(),
			BuildNumber: number,
			ProductID:   req.ProductID,
			ProductCode: req.ProductCode,
			ProductName: req.ProductName,
			Quantity:    req.Quantity,
			Status:      entity.BuildStatusPlanned,
			Priority:    req.Priority,
			BOMVersion:  version,
			AssignedTo:  req.AssignedTo,
			Notes:       req.Notes,
			CreatedBy:   userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if req.ScheduledStart != "" {
			if t, perr := time.Parse("2006-01-02", req.ScheduledStart); perr == nil {
				order.ScheduledStart = &t
			}
		}

		err = s.repos.BuildOrder.Create(order)
		if err == nil {
			return order, nil
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("创建生产订单失败: %w", err)
		}
		lastErr = err
	}
	return nil, &ConcurrencyConflictError{Err: fmt.Errorf("订单编号连续冲突: %w", lastErr)}
}

func (s *BuildService) GetByID(ctx context.Context, id string) (*entity.BuildOrder, error) {
	order, err := s.repos.BuildOrder.GetByID(id)
	if err != nil {
		return nil, &NotFoundError{Kind: "生产订单", ID: id}
	}
	return order, nil
}

func (s *BuildService) List(ctx context.Context, params repository.BuildOrderListParams) ([]entity.BuildOrder, int64, error) {
	return s.repos.BuildOrder.List(params)
}

// guardTransition 校验状态流转是否合法
func guardTransition(order *entity.BuildOrder, to entity.BuildStatus) error {
	if !order.Status.CanTransition(to) {
		return &IllegalTransitionError{
			BuildNumber: order.BuildNumber,
			Current:     order.Status,
			Attempted:   to,
			Allowed:     order.Status.AllowedNext(),
		}
	}
	return nil
}

// componentRequirement 一个元件的净需求
type componentRequirement struct {
	ComponentID   string
	ComponentCode string
	ComponentName string
	Required      float64
}

// requirements 从BOM行项计算净需求，跳过可选件，按元件ID排序
func requirements(entries []entity.BomEntry, quantity int) []componentRequirement {
	byComp := make(map[string]*componentRequirement)
	var order []string
	for i := range entries {
		e := &entries[i]
		if e.Optional {
			continue
		}
		req, ok := byComp[e.ComponentID]
		if !ok {
			req = &componentRequirement{
				ComponentID:   e.ComponentID,
				ComponentCode: e.ComponentCode,
				ComponentName: e.ComponentName,
			}
			byComp[e.ComponentID] = req
			order = append(order, e.ComponentID)
		}
		req.Required += e.QuantityPer * float64(quantity)
	}
	sort.Strings(order)
	out := make([]componentRequirement, 0, len(order))
	for _, id := range order {
		out = append(out, *byComp[id])
	}
	return out
}

// ReserveMaterials planned → materials_reserved。
// 第一遍做整体可行性检查，任一元件缺料且未指定 force 时整体中止、不留任何变更；
// 第二遍按元件运行分配器，落库预留并逐库位写 reserve 流水
func (s *BuildService) ReserveMaterials(ctx context.Context, id string, force bool, userID string) (*entity.BuildOrder, error) {
	var result *entity.BuildOrder
	var shortEvent *DomainEvent

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		order, err := repos.BuildOrder.GetForUpdate(id)
		if err != nil {
			return &NotFoundError{Kind: "生产订单", ID: id}
		}
		if err := guardTransition(order, entity.BuildStatusReserved); err != nil {
			return err
		}

		entries, err := repos.Bom.GetEntries(order.ProductID, order.BOMVersion)
		if err != nil {
			return fmt.Errorf("读取BOM失败: %w", err)
		}
		if len(entries) == 0 {
			return &NotFoundError{Kind: "BOM", ID: order.ProductID + "@" + order.BOMVersion}
		}
		reqs := requirements(entries, order.Quantity)

		// 一次性按全局记录id顺序加锁，与其它流转的逐记录加锁同序，避免交叉死锁
		now := s.clock()
		compIDs := make([]string, 0, len(reqs))
		for _, req := range reqs {
			compIDs = append(compIDs, req.ComponentID)
		}
		lockedRecords, err := repos.Inventory.GetByComponentsForUpdate(compIDs)
		if err != nil {
			return fmt.Errorf("读取库存失败: %w", translateDBError(err))
		}
		locked := make(map[string][]entity.InventoryRecord, len(reqs))
		for i := range lockedRecords {
			rec := lockedRecords[i]
			locked[rec.ComponentID] = append(locked[rec.ComponentID], rec)
		}

		var shortages []Shortage
		for _, req := range reqs {
			var available float64
			for i := range locked[req.ComponentID] {
				available += locked[req.ComponentID][i].AvailableQty
			}
			if available+stockEpsilon < req.Required {
				shortages = append(shortages, Shortage{
					ComponentID:   req.ComponentID,
					ComponentCode: req.ComponentCode,
					Required:      req.Required,
					Available:     available,
					Shortfall:     req.Required - available,
				})
			}
		}

		// 缺料事件无论是否强制预留都发：强制预留恰恰是需要告警补货的场景
		if len(shortages) > 0 {
			shortEvent = &DomainEvent{
				Type:        EventMaterialsShort,
				BuildNumber: order.BuildNumber,
				ProductID:   order.ProductID,
				Payload:     shortages,
				OccurredAt:  now,
			}
			if !force {
				return &InsufficientStockError{BuildNumber: order.BuildNumber, Shortages: shortages}
			}
		}

		// 第二遍：逐元件分配并落库
		for _, req := range reqs {
			records := locked[req.ComponentID]
			allocations, _ := Allocate(records, req.Required)
			for _, alloc := range allocations {
				rec := findRecord(records, alloc.RecordID)
				if rec == nil {
					return &NotFoundError{Kind: "库存记录", ID: alloc.RecordID}
				}
				err := mutateStock(repos, rec, 0, alloc.Quantity, ledgerEntry{
					txType:      entity.TxTypeReserve,
					buildID:     order.ID,
					buildNumber: order.BuildNumber,
					reason:      fmt.Sprintf("预留物料 %s", req.ComponentCode),
					actor:       userID,
					now:         now,
				})
				if err != nil {
					return err
				}
			}
		}

		order.Status = entity.BuildStatusReserved
		order.UpdatedAt = now
		if err := repos.BuildOrder.Update(order); err != nil {
			return fmt.Errorf("更新订单状态失败: %w", translateDBError(err))
		}
		result = order
		return nil
	})

	if shortEvent != nil {
		s.events.Publish(ctx, *shortEvent)
	}
	if err != nil {
		return nil, translateDBError(err)
	}

	s.events.Publish(ctx, DomainEvent{
		Type:        EventReserved,
		BuildNumber: result.BuildNumber,
		ProductID:   result.ProductID,
		OccurredAt:  s.clock(),
	})
	return result, nil
}

// StartBuild materials_reserved → in_progress。
// 以审计流水为准定位未了结的预留（预留后BOM变更也不影响），逐记录消耗：
// 数量与预留同步扣减，写 consume 流水，记录实际开工时间
func (s *BuildService) StartBuild(ctx context.Context, id string, userID string) (*entity.BuildOrder, error) {
	var result *entity.BuildOrder

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		order, err := repos.BuildOrder.GetForUpdate(id)
		if err != nil {
			return &NotFoundError{Kind: "生产订单", ID: id}
		}
		if err := guardTransition(order, entity.BuildStatusInProgress); err != nil {
			return err
		}

		outstanding, err := repos.Transaction.OutstandingByRecord(order.ID)
		if err != nil {
			return fmt.Errorf("读取库存流水失败: %w", translateDBError(err))
		}

		now := s.clock()
		for _, recordID := range sortedKeys(outstanding) {
			qty := outstanding[recordID]
			rec, err := repos.Inventory.GetByIDForUpdate(recordID)
			if err != nil {
				return &NotFoundError{Kind: "库存记录", ID: recordID}
			}
			err = mutateStock(repos, rec, -qty, -qty, ledgerEntry{
				txType:      entity.TxTypeConsume,
				buildID:     order.ID,
				buildNumber: order.BuildNumber,
				reason:      "生产领料",
				actor:       userID,
				now:         now,
			})
			if err != nil {
				return err
			}
		}

		order.Status = entity.BuildStatusInProgress
		order.ActualStart = &now
		order.UpdatedAt = now
		if err := repos.BuildOrder.Update(order); err != nil {
			return fmt.Errorf("更新订单状态失败: %w", translateDBError(err))
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, translateDBError(err)
	}

	s.events.Publish(ctx, DomainEvent{
		Type:        EventStarted,
		BuildNumber: result.BuildNumber,
		ProductID:   result.ProductID,
		OccurredAt:  s.clock(),
	})
	return result, nil
}

type SubmitQCRequest struct {
	Notes          string `json:"notes"`
	EstimatedUnits int    `json:"estimated_units"`
}

// SubmitToQC in_progress → qc。不动库存，只记备注和预报产出
func (s *BuildService) SubmitToQC(ctx context.Context, id string, req SubmitQCRequest, userID string) (*entity.BuildOrder, error) {
	var result *entity.BuildOrder

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		order, err := repos.BuildOrder.GetForUpdate(id)
		if err != nil {
			return &NotFoundError{Kind: "生产订单", ID: id}
		}
		if err := guardTransition(order, entity.BuildStatusQC); err != nil {
			return err
		}

		if req.Notes != "" {
			order.Notes = appendNote(order.Notes, req.Notes)
		}
		if req.EstimatedUnits > 0 {
			order.Notes = appendNote(order.Notes, fmt.Sprintf("预报产出数量: %d", req.EstimatedUnits))
		}
		order.Status = entity.BuildStatusQC
		order.UpdatedAt = s.clock()
		if err := repos.BuildOrder.Update(order); err != nil {
			return fmt.Errorf("更新订单状态失败: %w", translateDBError(err))
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, translateDBError(err)
	}
	return result, nil
}

type CompleteBuildRequest struct {
	QCPassed int `json:"qc_passed" binding:"min=0"`
	QCFailed int `json:"qc_failed" binding:"min=0"`
}

// CompleteBuild qc → complete，不可逆。
// 以审计流水结算库存：若仍有未消耗的预留（延迟领料路径），按实际产出
// 消耗所需部分，剩余预留整体释放回可用库存；正常开工领料路径下无预留
// 残留，结算为空操作。随后尽力生成成本快照，快照失败只降级为警告
func (s *BuildService) CompleteBuild(ctx context.Context, id string, req CompleteBuildRequest, userID string) (*entity.BuildOrder, []string, error) {
	if req.QCPassed < 0 || req.QCFailed < 0 {
		return nil, nil, &ValidationError{Msg: "质检数量不能为负"}
	}
	totalUnits := req.QCPassed + req.QCFailed

	var result *entity.BuildOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		order, err := repos.BuildOrder.GetForUpdate(id)
		if err != nil {
			return &NotFoundError{Kind: "生产订单", ID: id}
		}
		if err := guardTransition(order, entity.BuildStatusComplete); err != nil {
			return err
		}
		if totalUnits > order.Quantity {
			return &ValidationError{Msg: fmt.Sprintf("质检数量 %d 超过计划数量 %d", totalUnits, order.Quantity)}
		}

		now := s.clock()
		if err := s.settleOutstanding(repos, order, totalUnits, userID, now); err != nil {
			return err
		}

		order.Status = entity.BuildStatusComplete
		order.QCPassed = req.QCPassed
		order.QCFailed = req.QCFailed
		order.CompletedAt = &now
		order.UpdatedAt = now
		if err := repos.BuildOrder.Update(order); err != nil {
			return fmt.Errorf("更新订单状态失败: %w", translateDBError(err))
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, nil, translateDBError(err)
	}

	// 成本快照与事件在主事务提交后执行，失败不回滚完工
	var warnings []string
	if totalUnits > 0 {
		if _, cerr := s.cost.GenerateActual(ctx, result, totalUnits, userID); cerr != nil {
			s.logger.Warn("生成成本快照失败",
				zap.String("build_number", result.BuildNumber), zap.Error(cerr))
			warnings = append(warnings, fmt.Sprintf("成本快照生成失败: %v", cerr))
		}
	} else {
		warnings = append(warnings, "产出数量为0，跳过成本快照")
	}

	s.events.Publish(ctx, DomainEvent{
		Type:        EventCompleted,
		BuildNumber: result.BuildNumber,
		ProductID:   result.ProductID,
		Payload:     map[string]int{"qc_passed": result.QCPassed, "qc_failed": result.QCFailed},
		OccurredAt:  s.clock(),
	})
	return result, warnings, nil
}

// settleOutstanding 完工结算：对仍未了结的预留，按产出比例消耗、余量释放。
// 每元件的消耗上限 = 实际产出 × 单台预留量 − 已消耗量，全部从流水推导
func (s *BuildService) settleOutstanding(repos *repository.Repositories, order *entity.BuildOrder, totalUnits int, userID string, now time.Time) error {
	txs, err := repos.Transaction.ListByReferenceID(order.ID)
	if err != nil {
		return fmt.Errorf("读取库存流水失败: %w", translateDBError(err))
	}

	outstanding := make(map[string]float64)
	reservedByComp := make(map[string]float64)
	consumedByComp := make(map[string]float64)
	for i := range txs {
		t := &txs[i]
		switch t.Type {
		case entity.TxTypeReserve:
			outstanding[t.RecordID] += t.Magnitude()
			reservedByComp[t.ComponentID] += t.Magnitude()
		case entity.TxTypeUnreserve:
			outstanding[t.RecordID] -= t.Magnitude()
		case entity.TxTypeConsume:
			outstanding[t.RecordID] -= t.Magnitude()
			consumedByComp[t.ComponentID] += t.Magnitude()
		}
	}

	needRemaining := make(map[string]float64, len(reservedByComp))
	for comp, reserved := range reservedByComp {
		perUnit := reserved / float64(order.Quantity)
		need := float64(totalUnits)*perUnit - consumedByComp[comp]
		if need < 0 {
			need = 0
		}
		needRemaining[comp] = need
	}

	for _, recordID := range sortedKeys(outstanding) {
		qty := outstanding[recordID]
		if qty <= stockEpsilon {
			continue
		}
		rec, err := repos.Inventory.GetByIDForUpdate(recordID)
		if err != nil {
			return &NotFoundError{Kind: "库存记录", ID: recordID}
		}

		consume := needRemaining[rec.ComponentID]
		if consume > qty {
			consume = qty
		}
		if consume > stockEpsilon {
			err := mutateStock(repos, rec, -consume, -consume, ledgerEntry{
				txType:      entity.TxTypeConsume,
				buildID:     order.ID,
				buildNumber: order.BuildNumber,
				reason:      "完工结算领料",
				actor:       userID,
				now:         now,
			})
			if err != nil {
				return err
			}
			needRemaining[rec.ComponentID] -= consume
		}

		release := qty - consume
		if release > stockEpsilon {
			err := mutateStock(repos, rec, 0, -release, ledgerEntry{
				txType:      entity.TxTypeUnreserve,
				buildID:     order.ID,
				buildNumber: order.BuildNumber,
				reason: fmt.Sprintf("完工释放未投产预留（计划%d实产%d）",
					order.Quantity, totalUnits),
				actor: userID,
				now:   now,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// CancelBuild 任意非终态 → cancelled。
// 以审计流水定位未了结的预留并逐条释放；已消耗的物料不恢复
func (s *BuildService) CancelBuild(ctx context.Context, id, reason, userID string) (*entity.BuildOrder, error) {
	var result *entity.BuildOrder

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		order, err := repos.BuildOrder.GetForUpdate(id)
		if err != nil {
			return &NotFoundError{Kind: "生产订单", ID: id}
		}
		if err := guardTransition(order, entity.BuildStatusCancelled); err != nil {
			return err
		}

		outstanding, err := repos.Transaction.OutstandingByRecord(order.ID)
		if err != nil {
			return fmt.Errorf("读取库存流水失败: %w", translateDBError(err))
		}

		now := s.clock()
		for _, recordID := range sortedKeys(outstanding) {
			qty := outstanding[recordID]
			rec, err := repos.Inventory.GetByIDForUpdate(recordID)
			if err != nil {
				return &NotFoundError{Kind: "库存记录", ID: recordID}
			}
			err = mutateStock(repos, rec, 0, -qty, ledgerEntry{
				txType:      entity.TxTypeUnreserve,
				buildID:     order.ID,
				buildNumber: order.BuildNumber,
				reason:      "取消订单释放预留: " + reason,
				actor:       userID,
				now:         now,
			})
			if err != nil {
				return err
			}
		}

		order.Status = entity.BuildStatusCancelled
		if reason != "" {
			order.Notes = appendNote(order.Notes, "取消原因: "+reason)
		}
		order.UpdatedAt = now
		if err := repos.BuildOrder.Update(order); err != nil {
			return fmt.Errorf("更新订单状态失败: %w", translateDBError(err))
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, translateDBError(err)
	}

	s.events.Publish(ctx, DomainEvent{
		Type:        EventCancelled,
		BuildNumber: result.BuildNumber,
		ProductID:   result.ProductID,
		Payload:     map[string]string{"reason": reason},
		OccurredAt:  s.clock(),
	})
	return result, nil
}

func findRecord(records []entity.InventoryRecord, id string) *entity.InventoryRecord {
	for i := range records {
		if records[i].ID == id {
			return &records[i]
		}
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func appendNote(notes, line string) string {
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}
