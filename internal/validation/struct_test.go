package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string  `json:"name" validate:"notblank,max=5"`
	Price float64 `json:"price" validate:"gt=0"`
	Note  *string `json:"note,omitempty" validate:"omitempty,optemail"`
}

func TestStructKeysByJSONName(t *testing.T) {
	err := Struct(item{Name: " ", Price: 0}, Messages{"price.gt": "price cannot be zero or negative"})
	v, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, Errors{
		"name":  {"this field may not be blank."},
		"price": {"price cannot be zero or negative"},
	}, v)
}

func TestStructDefaults(t *testing.T) {
	note := "nope"
	v, _ := As(Struct(item{Name: "toolong", Price: 1, Note: &note}, nil))
	assert.Equal(t, []string{"ensure this field has no more than 5 characters."}, v["name"])
	assert.Equal(t, []string{"enter a valid email address."}, v["note"])

	empty := ""
	assert.NoError(t, Struct(item{Name: "ok", Price: 1, Note: &empty}, nil))
	assert.NoError(t, Struct(item{Name: "ok", Price: 1}, nil))
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("quantity", 5, "min=1,max=9", nil))

	v, ok := As(Var("quantity", 0, "min=1,max=9", Messages{"quantity.min": "quantity not permitted."}))
	require.True(t, ok)
	assert.Equal(t, Errors{"quantity": {"quantity not permitted."}}, v)

	v, _ = As(Var("quantity", 10, "min=1,max=9", nil))
	assert.Equal(t, []string{"ensure this value is less than or equal to 9."}, v["quantity"])
}
