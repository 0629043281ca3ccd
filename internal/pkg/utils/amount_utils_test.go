package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawToUI(t *testing.T) {
	tests := []struct {
		name     string
		raw      uint64
		decimals uint8
		want     float64
	}{
		{"zero", 0, 9, 0},
		{"whole", 5_000_000, 6, 5},
		{"fractional", 1_234_500_000, 9, 1.2345},
		{"no decimals", 42, 0, 42},
		{"sub unit", 1, 6, 0.000001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RawToUI(tt.raw, tt.decimals), 1e-12)
		})
	}
}

func TestUIToCents(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want uint64
	}{
		{"zero", 0, 0},
		{"negative", -1.5, 0},
		{"dollar", 1.0, 100},
		{"rounds up", 0.995, 100},
		{"rounds down", 0.994, 99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UIToCents(tt.v))
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name     string
		raw      uint64
		decimals uint8
		want     string
	}{
		{"zero", 0, 9, "0"},
		{"no decimals", 42, 0, "42"},
		{"trims trailing zeros", 1_234_500_000, 9, "1.2345"},
		{"whole value", 2_000_000, 6, "2"},
		{"tiny", 1, 9, "0.000000001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.raw, tt.decimals))
		})
	}
}
