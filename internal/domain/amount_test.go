package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_UnmarshalLenient(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
		want  string
	}{
		{"number", `12.5`, true, "12.5"},
		{"numeric string", `"19.99"`, true, "19.99"},
		{"padded string", `" 7 "`, true, "7"},
		{"null", `null`, false, ""},
		{"garbage string", `"abc"`, false, ""},
		{"NaN string", `"NaN"`, false, ""},
		{"boolean", `true`, false, ""},
		{"object", `{"x":1}`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Amount
			require.NoError(t, json.Unmarshal([]byte(tt.input), &a))
			assert.Equal(t, tt.valid, a.Valid)
			if tt.valid {
				assert.Equal(t, tt.want, a.Value.String())
			}
		})
	}
}

func TestAmount_InsideDocument(t *testing.T) {
	var v ProductVariant
	err := json.Unmarshal([]byte(`{"id":"v1","stock":3,"originalPrice":"abc","discountPrice":9}`), &v)

	require.NoError(t, err)
	assert.False(t, v.OriginalPrice.Valid)
	assert.True(t, v.DiscountPrice.Valid)
}

func TestAmount_Marshal(t *testing.T) {
	b, err := json.Marshal(struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}{A: MustAmount("3.50")})

	require.NoError(t, err)
	assert.JSONEq(t, `{"a":3.5,"b":null}`, string(b))
}

func TestAmountFromFloat_NonFinite(t *testing.T) {
	assert.False(t, AmountFromFloat(math.NaN()).Valid)
	assert.False(t, AmountFromFloat(math.Inf(1)).Valid)
	assert.True(t, AmountFromFloat(1.25).Valid)
}

func TestCount_UnmarshalLenient(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Count
	}{
		{"number", `5`, 5},
		{"numeric string", `"5"`, 5},
		{"fraction truncates", `2.5`, 2},
		{"negative", `-3`, 0},
		{"null", `null`, 0},
		{"garbage", `"muchos"`, 0},
		{"boolean", `true`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Count
			require.NoError(t, json.Unmarshal([]byte(tt.input), &c))
			assert.Equal(t, tt.want, c)
		})
	}
}
