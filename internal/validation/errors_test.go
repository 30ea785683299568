package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsErrNilWhenEmpty(t *testing.T) {
	errs := Errors{}
	assert.NoError(t, errs.Err())

	errs.Add("price", "price cannot be zero or negative")
	require.Error(t, errs.Err())
	assert.Equal(t, "validation failed: price: price cannot be zero or negative", errs.Error())
}

func TestAsUnwrapsWrapped(t *testing.T) {
	err := fmt.Errorf("create: %w", Field("quantity", "quantity not permitted."))
	v, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"quantity not permitted."}, v["quantity"])

	_, ok = As(fmt.Errorf("boom"))
	assert.False(t, ok)
}
