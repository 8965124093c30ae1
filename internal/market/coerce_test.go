package market

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListField(t *testing.T) {
	fromString, ok := ParseListField(`["Yes", "No"]`)
	require.True(t, ok)
	fromSlice, ok := ParseListField([]any{"Yes", "No"})
	require.True(t, ok)
	fromStrings, ok := ParseListField([]string{"Yes", "No"})
	require.True(t, ok)

	want := []any{"Yes", "No"}
	assert.Equal(t, want, fromString)
	assert.Equal(t, want, fromSlice)
	assert.Equal(t, want, fromStrings)
}

func TestParseListFieldRejects(t *testing.T) {
	cases := map[string]any{
		"nil":          nil,
		"not json":     "not json",
		"empty string": "",
		"json object":  `{"a":1}`,
		"json scalar":  `"Yes"`,
		"trailing":     `["a"] ["b"]`,
		"number":       42,
		"map":          map[string]any{"a": 1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := ParseListField(in)
			assert.False(t, ok)
		})
	}
}

func TestParseListFieldKeepsLargeNumbers(t *testing.T) {
	list, ok := ParseListField(`[71321045679252212594626385532706912750332728571942532289631379312455583992563, 2]`)
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.Equal(t, "71321045679252212594626385532706912750332728571942532289631379312455583992563", stringify(list[0]))
}

func TestParseFloat(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{"0.6", 0.6, true},
		{" 0.4 ", 0.4, true},
		{0.25, 0.25, true},
		{int64(1), 1, true},
		{json.Number("0.75"), 0.75, true},
		{true, 1, true},
		{"not_a_number", 0, false},
		{"", 0, false},
		{nil, 0, false},
		{[]any{"1"}, 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseFloat(tc.in)
		assert.Equal(t, tc.ok, ok, "input %#v", tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-12, "input %#v", tc.in)
		}
	}
}

func TestParseBool(t *testing.T) {
	assert.True(t, parseBool(true))
	assert.True(t, parseBool("true"))
	assert.True(t, parseBool("TRUE"))
	assert.True(t, parseBool("1"))
	assert.True(t, parseBool(json.Number("1")))
	assert.False(t, parseBool(nil))
	assert.False(t, parseBool("false"))
	assert.False(t, parseBool(""))
	assert.False(t, parseBool(0.0))
	assert.False(t, parseBool([]any{true}))
}
