package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := fmt.Errorf("save order: %w", NewDomainError("INSUFFICIENT_STOCK", "only 2 left"))

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(errors.New("plain"), ErrNotFound))
}

func TestDomainError_WithDetails(t *testing.T) {
	base := NewDomainError("PRODUCT_INACTIVE", "Product is no longer available")
	detailed := base.WithDetails(map[string]any{"product_id": "p-1"})
	merged := detailed.WithDetails(map[string]any{"product_name": "Rice 25kg"})

	assert.Nil(t, base.Details)
	assert.Equal(t, "p-1", detailed.Details["product_id"])
	assert.Len(t, detailed.Details, 1)
	assert.Equal(t, "Rice 25kg", merged.Details["product_name"])
	assert.Equal(t, "p-1", merged.Details["product_id"])
	assert.Equal(t, base.Code, merged.Code)
	assert.Equal(t, "Product is no longer available", merged.Error())
}

func TestFilter_Offset(t *testing.T) {
	f := DefaultFilter()
	assert.Equal(t, 0, f.Offset())
	f.Page = 3
	assert.Equal(t, 40, f.Offset())
}
