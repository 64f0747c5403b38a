package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
)

func setupCostTest(t *testing.T) (*gorm.DB, *CostService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewCostService(repos, zap.NewNop()).WithClock(testClock)
	return db, svc
}

// TestResolveUnitCostPriority 单价取值优先级：
// 最近采购价 → 库存单价 → 首选供应商 → 任意供应商 → 0
func TestResolveUnitCostPriority(t *testing.T) {
	db, svc := setupCostTest(t)

	// comp-po: 有采购价历史，最近一条生效
	db.Create(&entity.POLine{ID: "po-1", POCode: "PO-001", ComponentID: "comp-po",
		Quantity: 100, UnitPrice: 2.0, OrderedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
	db.Create(&entity.POLine{ID: "po-2", POCode: "PO-002", ComponentID: "comp-po",
		Quantity: 100, UnitPrice: 2.5, OrderedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)})
	// 库存单价也存在但应被采购价盖过
	testutil.SeedInventory(t, db, "comp-po", "C-PO", "loc-a", 10, 0)
	db.Model(&entity.InventoryRecord{}).Where("component_id = ?", "comp-po").Update("unit_cost", 9.9)

	// comp-inv: 只有库存单价
	testutil.SeedInventory(t, db, "comp-inv", "C-INV", "loc-a", 10, 0)
	db.Model(&entity.InventoryRecord{}).Where("component_id = ?", "comp-inv").Update("unit_cost", 3.0)

	// comp-pref: 首选供应商报价优先于普通供应商
	db.Create(&entity.ComponentSupplier{ID: "cs-1", ComponentID: "comp-pref",
		SupplierID: "sup-1", UnitPrice: 8.0, Preferred: false})
	db.Create(&entity.ComponentSupplier{ID: "cs-2", ComponentID: "comp-pref",
		SupplierID: "sup-2", UnitPrice: 5.0, Preferred: true})

	// comp-any: 只有普通供应商报价
	db.Create(&entity.ComponentSupplier{ID: "cs-3", ComponentID: "comp-any",
		SupplierID: "sup-1", UnitPrice: 6.0, Preferred: false})

	tests := []struct {
		componentID string
		wantPrice   float64
		wantSource  string
	}{
		{"comp-po", 2.5, entity.CostSourcePurchaseOrder},
		{"comp-inv", 3.0, entity.CostSourceInventory},
		{"comp-pref", 5.0, entity.CostSourcePreferredSupplier},
		{"comp-any", 6.0, entity.CostSourceSupplier},
		{"comp-none", 0, entity.CostSourceUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.componentID, func(t *testing.T) {
			price, source, err := svc.resolveUnitCost(tt.componentID)
			if err != nil {
				t.Fatalf("resolveUnitCost: %v", err)
			}
			if price.InexactFloat64() != tt.wantPrice {
				t.Errorf("price = %v, want %v", price, tt.wantPrice)
			}
			if source != tt.wantSource {
				t.Errorf("source = %s, want %s", source, tt.wantSource)
			}
		})
	}
}

func TestCalculateEstimate(t *testing.T) {
	db, svc := setupCostTest(t)

	testutil.SeedBomEntry(t, db, "widget-1", "comp-1", "C-001", 2)
	testutil.SeedBomEntry(t, db, "widget-1", "comp-2", "C-002", 0.5)
	db.Create(&entity.ComponentSupplier{ID: "cs-1", ComponentID: "comp-1",
		SupplierID: "sup-1", UnitPrice: 3.0, Preferred: true})
	db.Create(&entity.ComponentSupplier{ID: "cs-2", ComponentID: "comp-2",
		SupplierID: "sup-1", UnitPrice: 10.0, Preferred: true})

	cost, err := svc.CalculateEstimate(context.Background(), "widget-1", "", 10, "tester")
	if err != nil {
		t.Fatalf("CalculateEstimate: %v", err)
	}
	if cost.Type != entity.CostTypeEstimate {
		t.Errorf("Type = %s, want estimate", cost.Type)
	}
	// comp-1: 20×3 + comp-2: 5×10 = 110，单台11
	if cost.MaterialCost != 110 {
		t.Errorf("MaterialCost = %v, want 110", cost.MaterialCost)
	}
	if cost.CostPerUnit != 11 {
		t.Errorf("CostPerUnit = %v, want 11", cost.CostPerUnit)
	}
	if len(cost.Items) != 2 {
		t.Fatalf("行项 = %d, want 2", len(cost.Items))
	}
}

func TestCalculateEstimateSkipsOptional(t *testing.T) {
	db, svc := setupCostTest(t)

	testutil.SeedBomEntry(t, db, "widget-1", "comp-1", "C-001", 1)
	optional := testutil.SeedBomEntry(t, db, "widget-1", "comp-opt", "C-OPT", 1)
	db.Model(optional).Update("optional", true)

	cost, err := svc.CalculateEstimate(context.Background(), "widget-1", "", 1, "tester")
	if err != nil {
		t.Fatalf("CalculateEstimate: %v", err)
	}
	if len(cost.Items) != 1 {
		t.Fatalf("可选件不应参与估算: %d 行项", len(cost.Items))
	}
	if cost.Items[0].ComponentID != "comp-1" {
		t.Errorf("行项元件 = %s, want comp-1", cost.Items[0].ComponentID)
	}
}

func TestCalculateEstimateUnknownPriceStillSucceeds(t *testing.T) {
	db, svc := setupCostTest(t)

	testutil.SeedBomEntry(t, db, "widget-1", "comp-1", "C-001", 2)

	cost, err := svc.CalculateEstimate(context.Background(), "widget-1", "", 5, "tester")
	if err != nil {
		t.Fatalf("缺价不应失败，应按0价unknown记录: %v", err)
	}
	if cost.MaterialCost != 0 {
		t.Errorf("MaterialCost = %v, want 0", cost.MaterialCost)
	}
	if cost.Items[0].CostSource != entity.CostSourceUnknown {
		t.Errorf("CostSource = %s, want unknown", cost.Items[0].CostSource)
	}
}
