package service

import (
	"sort"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
)

// Allocation 一条分配结果：从哪条库存记录取多少
type Allocation struct {
	RecordID   string
	LocationID string
	Quantity   float64
}

// Allocate 贪心分配：按可用量从大到小依次扣取，优先减少跨库位拆分。
// 只看可用量，不考虑成本或批次新旧。返回分配明细与未满足的缺口
func Allocate(records []entity.InventoryRecord, required float64) ([]Allocation, float64) {
	if required <= 0 {
		return nil, 0
	}

	candidates := make([]entity.InventoryRecord, 0, len(records))
	for _, rec := range records {
		if rec.AvailableQty > 0 {
			candidates = append(candidates, rec)
		}
	}
	// 可用量相同按id排序，保证分配结果确定
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].AvailableQty != candidates[j].AvailableQty {
			return candidates[i].AvailableQty > candidates[j].AvailableQty
		}
		return candidates[i].ID < candidates[j].ID
	})

	var allocations []Allocation
	remaining := required
	for _, rec := range candidates {
		if remaining <= 0 {
			break
		}
		take := rec.AvailableQty
		if take > remaining {
			take = remaining
		}
		allocations = append(allocations, Allocation{
			RecordID:   rec.ID,
			LocationID: rec.LocationID,
			Quantity:   take,
		})
		remaining -= take
	}
	if remaining < 0 {
		remaining = 0
	}
	return allocations, remaining
}
