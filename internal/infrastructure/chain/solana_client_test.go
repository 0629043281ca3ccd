package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenDeltasNetsPerPair(t *testing.T) {
	owner := "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	mintA := "So11111111111111111111111111111111111111112"
	mintB := "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

	pre := []tokenBalance{
		{Mint: mintA, Owner: owner, UITokenAmount: tokenAmount{Amount: "50000000", Decimals: 9}},
		{Mint: mintB, Owner: owner, UITokenAmount: tokenAmount{Amount: "0", Decimals: 6}},
	}
	post := []tokenBalance{
		{Mint: mintA, Owner: owner, UITokenAmount: tokenAmount{Amount: "0", Decimals: 9}},
		{Mint: mintB, Owner: owner, UITokenAmount: tokenAmount{Amount: "4950000", Decimals: 6}},
	}

	deltas := tokenDeltas(pre, post)
	require.Len(t, deltas, 2)

	assert.Equal(t, mintA, deltas[0].Mint)
	assert.Equal(t, int64(-50_000_000), deltas[0].RawDelta)
	assert.Equal(t, uint8(9), deltas[0].Decimals)

	assert.Equal(t, mintB, deltas[1].Mint)
	assert.Equal(t, int64(4_950_000), deltas[1].RawDelta)
}

func TestTokenDeltasDropsZeroNet(t *testing.T) {
	owner := "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	mint := "So11111111111111111111111111111111111111112"

	pre := []tokenBalance{{Mint: mint, Owner: owner, UITokenAmount: tokenAmount{Amount: "100", Decimals: 9}}}
	post := []tokenBalance{{Mint: mint, Owner: owner, UITokenAmount: tokenAmount{Amount: "100", Decimals: 9}}}

	assert.Empty(t, tokenDeltas(pre, post))
}

func TestTokenDeltasHandlesAmountsAboveInt64(t *testing.T) {
	owner := "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	mint := "So11111111111111111111111111111111111111112"

	// 2^63 + 100 on both sides; only the net of 100 must survive.
	pre := []tokenBalance{{Mint: mint, Owner: owner, UITokenAmount: tokenAmount{Amount: "9223372036854775908", Decimals: 9}}}
	post := []tokenBalance{{Mint: mint, Owner: owner, UITokenAmount: tokenAmount{Amount: "9223372036854775808", Decimals: 9}}}

	deltas := tokenDeltas(pre, post)
	require.Len(t, deltas, 1)
	assert.Equal(t, int64(-100), deltas[0].RawDelta)
}

func TestTokenDeltasUnparseableAmountSkipped(t *testing.T) {
	owner := "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	mint := "So11111111111111111111111111111111111111112"

	pre := []tokenBalance{{Mint: mint, Owner: owner, UITokenAmount: tokenAmount{Amount: "not-a-number", Decimals: 9}}}
	post := []tokenBalance{{Mint: mint, Owner: owner, UITokenAmount: tokenAmount{Amount: "500", Decimals: 9}}}

	deltas := tokenDeltas(pre, post)
	require.Len(t, deltas, 1)
	assert.Equal(t, int64(500), deltas[0].RawDelta)
}
