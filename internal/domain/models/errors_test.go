package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("delete barn: %w", ErrBarnHasActiveBatches)

	assert.True(t, errors.Is(wrapped, ErrPrecondition))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.True(t, errors.Is(InvalidField("amount", "must not be negative"), ErrInvalidInput))
	assert.True(t, errors.Is(NotFound("batch", "x"), ErrNotFound))
	assert.Equal(t, "amount must not be negative", InvalidField("amount", "must not be negative").Error())
}
