package orders

import (
	"fmt"
	"math"

	"github.com/ariefcatur/go-orders-api/internal/validation"
)

const (
	MaxQuantity   = 999
	MaxNameLength = 250
	// MaxStock is the largest stock the products table can hold (INTEGER).
	MaxStock = math.MaxInt32

	msgRequired = "this field is required."
)

var messages = validation.Messages{
	"stock.gte":    "stock cannot be negative",
	"price.gt":     "price cannot be zero or negative",
	"quantity.min": "quantity not permitted.",
}

// ValidateProduct checks a fully merged product before it is persisted.
func ValidateProduct(p Product) error {
	return validation.Struct(p, messages)
}

// ValidateDetail checks the supplied fields of a line-item write.
func ValidateDetail(in DetailInput) error {
	return validation.Struct(in, messages)
}

// ValidateQuantity enforces the 1..MaxQuantity bounds of a line-item.
func ValidateQuantity(q int) error {
	return validation.Var("quantity", q, fmt.Sprintf("min=1,max=%d", MaxQuantity), messages)
}

func errExceedsStock(available int) error {
	return validation.Field("quantity", fmt.Sprintf("quantity exceeds available stock: %d", available))
}

func errStockOverflow() error {
	return validation.Field("quantity", fmt.Sprintf("resulting stock would exceed %d.", MaxStock))
}

func errMissingRef(field string, id int64) error {
	return validation.Field(field, fmt.Sprintf("invalid pk %q - object does not exist.", fmt.Sprint(id)))
}
