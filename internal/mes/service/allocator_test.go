package service

import (
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
)

func invRecord(id, locationID string, available float64) entity.InventoryRecord {
	return entity.InventoryRecord{
		ID:           id,
		LocationID:   locationID,
		Quantity:     available,
		AvailableQty: available,
	}
}

// TestAllocateLargestFirst 需求10，库位A可用6、库位B可用8：
// 先从大库位B取8，再从A补2
func TestAllocateLargestFirst(t *testing.T) {
	records := []entity.InventoryRecord{
		invRecord("rec-a", "loc-a", 6),
		invRecord("rec-b", "loc-b", 8),
	}

	allocs, shortfall := Allocate(records, 10)
	if shortfall != 0 {
		t.Fatalf("shortfall = %v, want 0", shortfall)
	}
	if len(allocs) != 2 {
		t.Fatalf("len(allocs) = %d, want 2", len(allocs))
	}
	if allocs[0].RecordID != "rec-b" || allocs[0].Quantity != 8 {
		t.Errorf("allocs[0] = %+v, want rec-b 取 8", allocs[0])
	}
	if allocs[1].RecordID != "rec-a" || allocs[1].Quantity != 2 {
		t.Errorf("allocs[1] = %+v, want rec-a 取 2", allocs[1])
	}
}

func TestAllocateSingleLocation(t *testing.T) {
	records := []entity.InventoryRecord{
		invRecord("rec-a", "loc-a", 20),
		invRecord("rec-b", "loc-b", 5),
	}

	allocs, shortfall := Allocate(records, 10)
	if shortfall != 0 {
		t.Fatalf("shortfall = %v, want 0", shortfall)
	}
	if len(allocs) != 1 {
		t.Fatalf("len(allocs) = %d, want 1（单库位能满足就不拆分）", len(allocs))
	}
	if allocs[0].RecordID != "rec-a" || allocs[0].Quantity != 10 {
		t.Errorf("allocs[0] = %+v, want rec-a 取 10", allocs[0])
	}
}

func TestAllocateShortfall(t *testing.T) {
	records := []entity.InventoryRecord{
		invRecord("rec-a", "loc-a", 3),
		invRecord("rec-b", "loc-b", 4),
	}

	allocs, shortfall := Allocate(records, 10)
	if shortfall != 3 {
		t.Fatalf("shortfall = %v, want 3", shortfall)
	}
	var total float64
	for _, a := range allocs {
		total += a.Quantity
	}
	if total != 7 {
		t.Errorf("分配总量 = %v, want 7（全部可用量）", total)
	}
}

func TestAllocateSkipsExhaustedRecords(t *testing.T) {
	records := []entity.InventoryRecord{
		{ID: "rec-a", LocationID: "loc-a", Quantity: 10, ReservedQty: 10, AvailableQty: 0},
		invRecord("rec-b", "loc-b", 5),
	}

	allocs, shortfall := Allocate(records, 5)
	if shortfall != 0 {
		t.Fatalf("shortfall = %v, want 0", shortfall)
	}
	if len(allocs) != 1 || allocs[0].RecordID != "rec-b" {
		t.Fatalf("全预留的记录不应参与分配: %+v", allocs)
	}
}

func TestAllocateDeterministicTieBreak(t *testing.T) {
	records := []entity.InventoryRecord{
		invRecord("rec-b", "loc-b", 5),
		invRecord("rec-a", "loc-a", 5),
	}

	allocs, _ := Allocate(records, 3)
	if len(allocs) != 1 || allocs[0].RecordID != "rec-a" {
		t.Fatalf("可用量相同时应按id取更小者: %+v", allocs)
	}
}

func TestAllocateZeroRequired(t *testing.T) {
	records := []entity.InventoryRecord{invRecord("rec-a", "loc-a", 5)}
	allocs, shortfall := Allocate(records, 0)
	if allocs != nil || shortfall != 0 {
		t.Fatalf("需求为0不应产生分配: %+v, %v", allocs, shortfall)
	}
}
