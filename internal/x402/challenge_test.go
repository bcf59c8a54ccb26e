package x402

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequirements(t *testing.T) {
	b := NewChallengeBuilder(testAsset())

	reqs, err := b.Build("http://example.com/stream/u1-t1", "u1-t1", testPayee, 2)
	require.NoError(t, err)

	assert.Equal(t, SchemeExact, reqs.Scheme)
	assert.Equal(t, "base-sepolia", reqs.Network)
	assert.Equal(t, "20000", reqs.MaxAmountRequired)
	assert.Equal(t, "http://example.com/stream/u1-t1", reqs.Resource)
	assert.Equal(t, "Stream track u1-t1", reqs.Description)
	assert.Equal(t, "audio/mpeg", reqs.MimeType)
	assert.Equal(t, testPayee, reqs.PayTo)
	assert.Equal(t, 600, reqs.MaxTimeoutSeconds)
	assert.Equal(t, "0x036CbD53842c5426634e7929541eC2318f3dCF7e", reqs.Asset)
	assert.Equal(t, Extra{Name: "USDC", Version: "2"}, reqs.Extra)
}

func TestBuildChargesOneMinuteUpfront(t *testing.T) {
	b := NewChallengeBuilder(testAsset())

	// The amount does not depend on duration; only the rate is passed in.
	reqs, err := b.Build("r", "u1-t1", testPayee, 7)
	require.NoError(t, err)
	assert.Equal(t, "70000", reqs.MaxAmountRequired)

	unset, err := b.Build("r", "u1-t1", testPayee, 0)
	require.NoError(t, err)
	assert.Equal(t, "10000", unset.MaxAmountRequired)
}

func TestBuildUsesConfiguredSigningDomain(t *testing.T) {
	asset := testAsset()
	asset.Network = "base"
	asset.Name = "USD Coin"
	asset.Version = "1"

	reqs, err := NewChallengeBuilder(asset).Build("r", "u1-t1", testPayee, 1)
	require.NoError(t, err)
	assert.Equal(t, "base", reqs.Network)
	assert.Equal(t, Extra{Name: "USD Coin", Version: "1"}, reqs.Extra)
	assert.Equal(t, 600, reqs.MaxTimeoutSeconds)
}

func TestBuildKeepsStoredPayeeCase(t *testing.T) {
	b := NewChallengeBuilder(testAsset())

	for _, payee := range []string{
		"0x209693bc6afc0c5328ba36faf03c514ef312287c",
		"0x209693BC6AFC0C5328BA36FAF03C514EF312287C",
		"0x209693Bc6afc0C5328bA36FaF03C514EF312287C",
	} {
		reqs, err := b.Build("r", "u1-t1", payee, 1)
		require.NoError(t, err)
		assert.Equal(t, payee, reqs.PayTo)
	}
}

func TestBuildRejectsInvalidPayee(t *testing.T) {
	b := NewChallengeBuilder(testAsset())

	for _, payee := range []string{"", "not-an-address", "0x123", testPayee[2:]} {
		_, err := b.Build("r", "u1-t1", payee, 1)
		assert.ErrorIs(t, err, ErrInvalidPayee, "payee %q", payee)
	}
}

func TestChallengeJSON(t *testing.T) {
	reqs, err := NewChallengeBuilder(testAsset()).Build("http://example.com/stream/u1-t1", "u1-t1", testPayee, 1)
	require.NoError(t, err)

	data, err := json.Marshal(Challenge(reqs))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(1), decoded["x402Version"])
	accepts, ok := decoded["accepts"].([]any)
	require.True(t, ok)
	require.Len(t, accepts, 1)
	first := accepts[0].(map[string]any)
	assert.Equal(t, "exact", first["scheme"])
	assert.Equal(t, "10000", first["maxAmountRequired"])
	assert.Equal(t, map[string]any{"name": "USDC", "version": "2"}, first["extra"])
	assert.NotContains(t, decoded, "error")
}
