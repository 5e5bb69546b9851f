package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateShortCode(t *testing.T) {
	cases := []struct {
		name string
		size int
		want string
	}{
		{"Cardio", 2, "CA"},
		{"Strength Training", 2, "ST"},
		{"Life Fitness", 3, "LFI"},
		{"Technogym", 3, "TEC"},
		{"  máy chạy bộ ", 2, "MC"},
		{"Кардио", 2, "KA"},
		{"A", 3, "A"},
		{"!!!", 2, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, GenerateShortCode(tc.name, tc.size), tc.name)
	}
}

func TestFoldToASCII(t *testing.T) {
	assert.Equal(t, "may chay", FoldToASCII("Máy Chạy"))
	assert.Equal(t, "belt width", FoldToASCII(" Belt Width "))
}
