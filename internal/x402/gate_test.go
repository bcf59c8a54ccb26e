package x402

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequirements(t *testing.T) PaymentRequirements {
	t.Helper()
	reqs, err := NewChallengeBuilder(testAsset()).Build("http://example.com/stream/u1-t1", "u1-t1", testPayee, 2)
	require.NoError(t, err)
	return reqs
}

func TestGateChallengesWithoutHeader(t *testing.T) {
	spy := &spyFacilitator{}
	reqs := testRequirements(t)

	d := NewGate(spy).Evaluate(context.Background(), "", reqs)

	assert.Equal(t, StateChallenged, d.State)
	require.NotNil(t, d.Challenge)
	assert.Equal(t, Version, d.Challenge.X402Version)
	require.Len(t, d.Challenge.Accepts, 1)
	assert.Equal(t, reqs.Resource, d.Challenge.Accepts[0].Resource)
	assert.Nil(t, d.Rejection)
	assert.Empty(t, spy.Calls())
}

func TestGateRejectsMalformedHeader(t *testing.T) {
	spy := &spyFacilitator{}

	d := NewGate(spy).Evaluate(context.Background(), "not-a-proof", testRequirements(t))

	assert.Equal(t, StateRejected, d.State)
	require.NotNil(t, d.Rejection)
	assert.Equal(t, "payment verification failed", d.Rejection.Code)
	assert.ErrorIs(t, d.Rejection, ErrPaymentVerificationFailed)
	assert.ErrorIs(t, d.Rejection, ErrMalformedProof)
	assert.Equal(t, StateAwaitingProof, d.Rejection.Stage)
	assert.Empty(t, spy.Calls())
}

func TestGateNeverSettlesInvalidProof(t *testing.T) {
	verdict := &VerifyResponse{IsValid: false, InvalidReason: "invalid_exact_evm_payload_signature"}
	spy := &spyFacilitator{verifyResult: verdict, settleResult: &SettleResponse{Success: true}}

	d := NewGate(spy).Evaluate(context.Background(), testHeader(t), testRequirements(t))

	assert.Equal(t, StateRejected, d.State)
	assert.Equal(t, "payment not valid", d.Rejection.Code)
	assert.Same(t, verdict, d.Rejection.Detail)
	assert.ErrorIs(t, d.Rejection, ErrPaymentNotValid)
	assert.Equal(t, StateVerifying, d.Rejection.Stage)
	assert.Equal(t, []string{"verify"}, spy.Calls())
}

func TestGateDoesNotRetryFacilitatorErrors(t *testing.T) {
	spy := &spyFacilitator{verifyErr: errNetwork}

	d := NewGate(spy).Evaluate(context.Background(), testHeader(t), testRequirements(t))

	assert.Equal(t, StateRejected, d.State)
	assert.Equal(t, "payment verification failed", d.Rejection.Code)
	assert.Nil(t, d.Rejection.Detail)
	assert.ErrorIs(t, d.Rejection, errNetwork)
	assert.Equal(t, StateVerifying, d.Rejection.Stage)
	assert.Equal(t, []string{"verify"}, spy.Calls())
}

func TestGateRejectsUnsettledPayment(t *testing.T) {
	settle := &SettleResponse{Success: false, ErrorReason: "insufficient_funds"}
	spy := &spyFacilitator{verifyResult: &VerifyResponse{IsValid: true}, settleResult: settle}

	d := NewGate(spy).Evaluate(context.Background(), testHeader(t), testRequirements(t))

	assert.Equal(t, StateRejected, d.State)
	assert.Equal(t, "payment not settled", d.Rejection.Code)
	assert.Same(t, settle, d.Rejection.Detail)
	assert.ErrorIs(t, d.Rejection, ErrPaymentNotSettled)
	assert.Equal(t, StateSettling, d.Rejection.Stage)
	assert.Equal(t, []string{"verify", "settle"}, spy.Calls())
}

func TestGateSettleErrorIsRejected(t *testing.T) {
	spy := &spyFacilitator{verifyResult: &VerifyResponse{IsValid: true}, settleErr: errNetwork}

	d := NewGate(spy).Evaluate(context.Background(), testHeader(t), testRequirements(t))

	assert.Equal(t, StateRejected, d.State)
	assert.ErrorIs(t, d.Rejection, ErrPaymentVerificationFailed)
	assert.Equal(t, StateSettling, d.Rejection.Stage)
	assert.Equal(t, []string{"verify", "settle"}, spy.Calls())
}

func TestGateGrantsAfterVerifyThenSettle(t *testing.T) {
	settle := &SettleResponse{Success: true, Transaction: "0xfeed", Network: "base-sepolia"}
	spy := &spyFacilitator{
		verifyResult: &VerifyResponse{IsValid: true, Payer: "0xpayer"},
		settleResult: settle,
	}

	d := NewGate(spy).Evaluate(context.Background(), testHeader(t), testRequirements(t))

	assert.True(t, d.Granted())
	assert.Same(t, settle, d.Settlement)
	assert.Equal(t, "0xpayer", d.Payer)
	assert.Nil(t, d.Rejection)
	assert.Nil(t, d.Challenge)
	assert.Equal(t, []string{"verify", "settle"}, spy.Calls())
}
