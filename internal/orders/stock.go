package orders

// Stock bookkeeping for line-item lifecycle events. Every function here is pure:
// it receives the locked product rows and returns the rows to write back, so the
// caller decides where the atomic boundary is.

// TakeStock applies a line-item create of qty units against p.
func TakeStock(p Product, qty int) (Product, error) {
	if err := ValidateQuantity(qty); err != nil {
		return p, err
	}
	if qty > p.Stock {
		return p, errExceedsStock(p.Stock)
	}
	p.Stock -= qty
	return p, nil
}

// ReturnStock applies a line-item delete of qty units against p. It fails
// rather than push stock past MaxStock.
func ReturnStock(p Product, qty int) (Product, error) {
	if qty > MaxStock-p.Stock {
		return p, errStockOverflow()
	}
	p.Stock += qty
	return p, nil
}

// MoveStock applies a line-item update. oldProduct is the product the line-item
// currently points at; newProduct is the one it will point at (the same row when
// the product is unchanged). A product change is booked as a return to the old
// product followed by a take from the new one, so neither side drifts.
//
// It returns the rows to persist: one when the product is unchanged, two otherwise.
func MoveStock(oldProduct Product, oldQty int, newProduct Product, newQty int) ([]Product, error) {
	if err := ValidateQuantity(newQty); err != nil {
		return nil, err
	}
	if oldProduct.ID == newProduct.ID {
		// the line-item's own units are available to it again
		available := oldProduct.Stock + oldQty
		if newQty > available {
			return nil, errExceedsStock(available)
		}
		if available-newQty > MaxStock {
			return nil, errStockOverflow()
		}
		oldProduct.Stock = available - newQty
		return []Product{oldProduct}, nil
	}
	taken, err := TakeStock(newProduct, newQty)
	if err != nil {
		return nil, err
	}
	returned, err := ReturnStock(oldProduct, oldQty)
	if err != nil {
		return nil, err
	}
	return []Product{returned, taken}, nil
}
