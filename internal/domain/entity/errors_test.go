package entity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"valid mint", "So11111111111111111111111111111111111111112", false},
		{"valid wallet", "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", false},
		{"empty", "", true},
		{"too short", "abc", true},
		{"too long", "1111111111111111111111111111111111111111111111111", true},
		{"zero digit", "0o11111111111111111111111111111111111111112", true},
		{"capital O", "ZO11111111111111111111111111111111111111112", true},
		{"lowercase l", "Zl11111111111111111111111111111111111111112", true},
		{"hex prefix", "0x0000000000000000000000000000000000000000000", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress("wallet", tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestErrorPredicatesUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", &NotFoundError{What: "thing"})
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsUpstream(wrapped))

	up := &UpstreamError{Collaborator: "chain", Err: assert.AnError}
	assert.True(t, IsUpstream(up))
	assert.ErrorIs(t, up, assert.AnError)
}

func TestPlanRequestNormalize(t *testing.T) {
	var req PlanRequest
	req.Normalize()
	assert.Equal(t, DefaultMinDustValueUSD, req.MinDustValueUSD)
	assert.Equal(t, DefaultSlippageBps, req.SlippageBps)

	custom := PlanRequest{MinDustValueUSD: 2.5, SlippageBps: 75}
	custom.Normalize()
	assert.Equal(t, 2.5, custom.MinDustValueUSD)
	assert.Equal(t, 75, custom.SlippageBps)
}
