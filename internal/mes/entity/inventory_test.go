package entity

import "testing"

func TestRecalcDerived(t *testing.T) {
	tests := []struct {
		name          string
		quantity      float64
		reserved      float64
		minStock      float64
		maxStock      float64
		wantAvailable float64
		wantStatus    string
	}{
		{"正常库存", 100, 30, 10, 0, 70, InventoryStatusInStock},
		{"零库存", 0, 0, 0, 0, 0, InventoryStatusOutOfStock},
		{"低于安全库存", 5, 0, 10, 0, 5, InventoryStatusLowStock},
		{"超过上限", 200, 0, 10, 150, 200, InventoryStatusOverstock},
		{"全部被预留仍算在库", 50, 50, 10, 0, 0, InventoryStatusInStock},
		{"未设上下限", 1, 0, 0, 0, 1, InventoryStatusInStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &InventoryRecord{
				Quantity:    tt.quantity,
				ReservedQty: tt.reserved,
				MinStock:    tt.minStock,
				MaxStock:    tt.maxStock,
			}
			rec.RecalcDerived()
			if rec.AvailableQty != tt.wantAvailable {
				t.Errorf("AvailableQty = %v, want %v", rec.AvailableQty, tt.wantAvailable)
			}
			if rec.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", rec.Status, tt.wantStatus)
			}
		})
	}
}

func TestTransactionMagnitude(t *testing.T) {
	tx := &InventoryTransaction{Quantity: -12.5}
	if tx.Magnitude() != 12.5 {
		t.Errorf("Magnitude() = %v, want 12.5", tx.Magnitude())
	}
	tx.Quantity = 3
	if tx.Magnitude() != 3 {
		t.Errorf("Magnitude() = %v, want 3", tx.Magnitude())
	}
}
