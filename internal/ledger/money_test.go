package ledger

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"already rounded", 12.34, 12.34},
		{"float artifact", 0.1 + 0.2, 0.3},
		{"half cent rounds up", 1.005, 1.01},
		{"truncates below half", 2.344, 2.34},
		{"negative", -1.234, -1.23},
		{"large", 123456.789, 123456.79},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Round2(tt.in), 1e-9)
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"nil", nil, 0},
		{"float", 25.5, 25.5},
		{"int", 42, 42},
		{"int64", int64(-3), -3},
		{"int8", int8(-8), -8},
		{"int16", int16(50), 50},
		{"uint8", uint8(200), 200},
		{"uint16", uint16(5000), 5000},
		{"json number", json.Number("12.5"), 12.5},
		{"json number exponent", json.Number("1e3"), 1000},
		{"json number upper exponent", json.Number("2.5E1"), 25},
		{"json number overflow", json.Number("1e400"), 0},
		{"decimal", decimal.RequireFromString("19.99"), 19.99},
		{"plain string", "1500.00", 1500},
		{"currency prefix with comma", "R$ 25,90", 25.9},
		{"negative with comma", "-7,5", -7.5},
		{"trailing text ignored", "30 reais", 30},
		{"garbage string", "abc", 0},
		{"empty string", "", 0},
		{"lone minus", "-", 0},
		{"bool", true, 0},
		{"map", map[string]any{"value": 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Normalize(tt.in), 1e-9)
		})
	}
}
