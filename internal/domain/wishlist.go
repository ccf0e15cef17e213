package domain

// Wishlist is the set of product ids a user saved, in insertion order.
type Wishlist struct {
	UserID     string   `json:"user_id"`
	ProductIDs []string `json:"product_ids"`
}

func (w Wishlist) Contains(productID string) bool {
	for _, id := range w.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// Add is idempotent.
func (w Wishlist) Add(productID string) Wishlist {
	if w.Contains(productID) {
		return w
	}
	ids := make([]string, len(w.ProductIDs), len(w.ProductIDs)+1)
	copy(ids, w.ProductIDs)
	w.ProductIDs = append(ids, productID)
	return w
}

func (w Wishlist) Remove(productID string) Wishlist {
	ids := make([]string, 0, len(w.ProductIDs))
	for _, id := range w.ProductIDs {
		if id != productID {
			ids = append(ids, id)
		}
	}
	w.ProductIDs = ids
	return w
}

func (w Wishlist) Clear() Wishlist {
	w.ProductIDs = []string{}
	return w
}
