package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	sentinel := NewValidationError("bad window").WithCode("INVALID_WINDOW")
	err := fmt.Errorf("admit: %w", sentinel.WithDetails(map[string]string{"field": "start"}))

	assert.True(t, errors.Is(err, sentinel))
	assert.False(t, errors.Is(err, NewValidationError("other")))
	assert.Nil(t, sentinel.Details, "WithDetails must not mutate the receiver")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NewNotFoundError("booking", "x")))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("wrap: %w", NewConflictError("taken"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestNewPaginatedResult(t *testing.T) {
	r := NewPaginatedResult([]int(nil), 21, 2, 10)
	assert.Equal(t, 3, r.TotalPages)
	assert.NotNil(t, r.Items)
	assert.Equal(t, 10, Offset(2, 10))
	assert.Equal(t, 0, Offset(0, 10))
}
