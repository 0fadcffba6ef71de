package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Qty   int    `json:"qty" validate:"min=1"`
}

func TestDetails_UsesJSONNames(t *testing.T) {
	err := New().Struct(sample{Email: "nope"})
	require.Error(t, err)

	details := Details(err)

	assert.ElementsMatch(t, []FieldDetail{
		{Field: "name", Message: "This field is required"},
		{Field: "email", Message: "Invalid email format"},
		{Field: "qty", Message: "Must be at least 1"},
	}, details)
}

func TestDetails_OtherErrors(t *testing.T) {
	assert.Nil(t, Details(errors.New("boom")))
	assert.NoError(t, New().Struct(sample{Name: "a", Qty: 2}))
}
