package x402

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const testPayee = "0x209693Bc6afc0C5328bA36FaF03C514EF312287C"

func testAsset() Asset {
	return Asset{
		Network: "base-sepolia",
		Address: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		Name:    "USDC",
		Version: "2",
	}
}

func testHeader(t *testing.T) string {
	t.Helper()
	header, err := EncodePaymentHeader(&PaymentPayload{
		X402Version: Version,
		Scheme:      SchemeExact,
		Network:     "base-sepolia",
		Payload:     json.RawMessage(`{"signature":"0xabc","authorization":{"from":"0x1","to":"0x2","value":"20000"}}`),
	})
	require.NoError(t, err)
	return header
}

// spyFacilitator records calls and returns canned results.
type spyFacilitator struct {
	mu sync.Mutex

	verifyResult *VerifyResponse
	verifyErr    error
	settleResult *SettleResponse
	settleErr    error

	calls []string
}

func (s *spyFacilitator) Verify(ctx context.Context, payload *PaymentPayload, reqs PaymentRequirements) (*VerifyResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "verify")
	return s.verifyResult, s.verifyErr
}

func (s *spyFacilitator) Settle(ctx context.Context, payload *PaymentPayload, reqs PaymentRequirements) (*SettleResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "settle")
	return s.settleResult, s.settleErr
}

func (s *spyFacilitator) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

var errNetwork = errors.New("connection reset by peer")
