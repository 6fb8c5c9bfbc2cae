package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", nil},
		{"   ", nil},
		{"10", 10.0},
		{" 12.5 ", 12.5},
		{"-3", -3.0},
		{"TRUE", true},
		{"false", false},
		{"compressor", "compressor"},
		{"  空气压缩机 ", "空气压缩机"},
		{"NaN", "NaN"},
		{"Inf", "Inf"},
		{"/compressors", "/compressors"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, ParseValue(tc.in), "ParseValue(%q)", tc.in)
	}
}

func TestNumeric(t *testing.T) {
	f, ok := Numeric(10.5)
	assert.True(t, ok)
	assert.Equal(t, 10.5, f)

	f, ok = Numeric(7)
	assert.True(t, ok)
	assert.Equal(t, 7.0, f)

	f, ok = Numeric(" 3.25 ")
	assert.True(t, ok)
	assert.Equal(t, 3.25, f)

	_, ok = Numeric(nil)
	assert.False(t, ok)

	_, ok = Numeric("n/a")
	assert.False(t, ok)

	_, ok = Numeric(true)
	assert.False(t, ok)
}

func TestText(t *testing.T) {
	assert.Equal(t, "", Text(nil))
	assert.Equal(t, "abc", Text("abc"))
	assert.Equal(t, "10", Text(10.0))
	assert.Equal(t, "0.1", Text(0.1))
	assert.Equal(t, "TRUE", Text(true))
	assert.Equal(t, "FALSE", Text(false))
	assert.Equal(t, "42", Text(42))
}
