package crm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToBoolean(t *testing.T) {
	for _, tc := range []struct {
		in   any
		want bool
		ok   bool
	}{
		{true, true, true},
		{"true", true, true},
		{"1", true, true},
		{"0", false, true},
		{[]any{"ok"}, true, true},
		{"maybe", false, false},
		{nil, false, false},
	} {
		got, ok := toBoolean(tc.in)
		assert.Equal(t, tc.ok, ok, "input %v", tc.in)
		assert.Equal(t, tc.want, got, "input %v", tc.in)
	}
}

func TestToFloat64(t *testing.T) {
	for _, tc := range []struct {
		in   any
		want float64
		ok   bool
	}{
		{5, 5, true},
		{int64(7), 7, true},
		{2.5, 2.5, true},
		{"3.5", 3.5, true},
		{[]any{"4"}, 4, true},
		{"nope", 0, false},
		{nil, 0, false},
	} {
		got, ok := toFloat64(tc.in)
		assert.Equal(t, tc.ok, ok, "input %v", tc.in)
		assert.Equal(t, tc.want, got, "input %v", tc.in)
	}
}

func TestToString(t *testing.T) {
	got, ok := toString("abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", got)

	_, ok = toString(nil)
	assert.False(t, ok)

	_, ok = toString(12)
	assert.False(t, ok)
}
