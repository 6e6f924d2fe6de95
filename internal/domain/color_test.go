package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMixColors(t *testing.T) {
	cases := []struct {
		name   string
		colors []string
		want   string
	}{
		{"none", nil, "#000000"},
		{"single is returned as-is", []string{"#FF6B6B"}, "#FF6B6B"},
		{"red and blue", []string{"#ff0000", "#0000ff"}, "#800080"},
		{"three greys", []string{"#101010", "#202020", "#303030"}, "#202020"},
		{"invalid counts as black", []string{"#ffffff", "nope"}, "#808080"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MixColors(tc.colors))
		})
	}
}
