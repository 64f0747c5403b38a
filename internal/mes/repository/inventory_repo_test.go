package repository

import (
	"sort"
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
)

// TestGetByComponentsForUpdate 批量加锁读取按全局记录id排序，
// 与其它流转逐记录按id加锁同序
func TestGetByComponentsForUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInventoryRepository(db)

	testutil.SeedInventory(t, db, "comp-1", "C-001", "loc-a", 6, 0)
	testutil.SeedInventory(t, db, "comp-1", "C-001", "loc-b", 8, 0)
	testutil.SeedInventory(t, db, "comp-2", "C-002", "loc-a", 20, 0)
	testutil.SeedInventory(t, db, "comp-3", "C-003", "loc-a", 5, 0)

	records, err := repo.GetByComponentsForUpdate([]string{"comp-1", "comp-2"})
	if err != nil {
		t.Fatalf("GetByComponentsForUpdate: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("记录数 = %d, want 3（comp-3不在查询范围）", len(records))
	}
	if !sort.SliceIsSorted(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	}) {
		t.Error("返回记录应按全局id升序，跨元件不分组")
	}
	for _, rec := range records {
		if rec.ComponentID != "comp-1" && rec.ComponentID != "comp-2" {
			t.Errorf("不应返回查询范围外的元件: %s", rec.ComponentID)
		}
	}

	empty, err := repo.GetByComponentsForUpdate(nil)
	if err != nil {
		t.Fatalf("空元件列表不应报错: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("空元件列表应返回空集: %d 条", len(empty))
	}
}
