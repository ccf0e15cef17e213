package domain

// ReorderLevel is the stock level at or below which a product is low.
const ReorderLevel = 10

type StockStatus string

const (
	StockOut     StockStatus = "out_of_stock"
	StockLow     StockStatus = "low_stock"
	StockHealthy StockStatus = "in_stock"
)

// StockStatusFor derives a status from a stock level.
func StockStatusFor(stock int) StockStatus {
	switch {
	case stock <= 0:
		return StockOut
	case stock <= ReorderLevel:
		return StockLow
	default:
		return StockHealthy
	}
}

// InventoryItem is a derived view of a product's stock; it is never stored.
type InventoryItem struct {
	ProductID    string      `json:"product_id"`
	ProductName  string      `json:"product_name"`
	CurrentStock int         `json:"current_stock"`
	ReorderLevel int         `json:"reorder_level"`
	Status       StockStatus `json:"status"`
}

func NewInventoryItem(p Product) InventoryItem {
	return InventoryItem{
		ProductID:    p.ID,
		ProductName:  p.Name,
		CurrentStock: p.Stock,
		ReorderLevel: ReorderLevel,
		Status:       StockStatusFor(p.Stock),
	}
}

// AdjustStock applies delta to stock, flooring the result at zero.
func AdjustStock(stock, delta int) int {
	if n := stock + delta; n > 0 {
		return n
	}
	return 0
}
