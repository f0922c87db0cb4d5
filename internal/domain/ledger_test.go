package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidMoney(t *testing.T) {
	assert.True(t, ValidMoney(dec("0.01")))
	assert.True(t, ValidMoney(dec("30.25")))
	assert.True(t, ValidMoney(dec("30.250")))
	assert.False(t, ValidMoney(dec("0")))
	assert.False(t, ValidMoney(dec("-5")))
	assert.False(t, ValidMoney(dec("1.001")))
}

func TestFields(t *testing.T) {
	assert.Nil(t, Fields(errors.New("plain")))

	one := fmt.Errorf("wrapped: %w", &ValidationError{Field: "email", Message: "is required"})
	assert.Equal(t, []ValidationError{{Field: "email", Message: "is required"}}, Fields(one))
	assert.ErrorIs(t, one, ErrInvalidInput)

	many := ValidationErrors{{Field: "name"}, {Field: "password"}}
	assert.Len(t, Fields(many), 2)
	assert.ErrorIs(t, many, ErrInvalidInput)
}
