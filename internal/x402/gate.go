package x402

import (
	"context"
	"fmt"
	"log/slog"
)

// State is a step of the payment gate. Challenged, Rejected and Granted are
// terminal.
type State string

const (
	StateAwaitingProof State = "awaiting_proof"
	StateVerifying     State = "verifying"
	StateSettling      State = "settling"
	StateChallenged    State = "challenged"
	StateRejected      State = "rejected"
	StateGranted       State = "granted"
)

// Rejection explains why a proof was refused. Detail is the facilitator's
// response when there was one, passed through for client debugging. Stage is
// the step the gate was in when it gave up.
type Rejection struct {
	Code   string
	Stage  State
	Detail any
	Err    error
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return r.Code + ": " + r.Err.Error()
	}
	return r.Code
}

func (r *Rejection) Unwrap() error { return r.Err }

// Decision is the terminal result of one pass through the gate. Exactly one
// of Challenge, Rejection and Settlement is set, matching State.
type Decision struct {
	State      State
	Challenge  *PaymentRequired
	Rejection  *Rejection
	Settlement *SettleResponse
	Payer      string
}

func (d Decision) Granted() bool { return d.State == StateGranted }

// Gate runs the verify-then-settle pipeline. It holds no per-request state
// and never retries: a refused client starts over with a new proof.
type Gate struct {
	facilitator Facilitator
}

func NewGate(f Facilitator) *Gate {
	return &Gate{facilitator: f}
}

// Evaluate takes the raw payment header (empty when absent) and the
// requirements for the requested resource.
func (g *Gate) Evaluate(ctx context.Context, header string, reqs PaymentRequirements) Decision {
	logger := slog.With("resource", reqs.Resource)

	if header == "" {
		logger.Debug("No payment header, issuing challenge")
		return Decision{State: StateChallenged, Challenge: Challenge(reqs)}
	}
	logger.Debug("Payment header present", "length", len(header), "prefix", prefix(header, 32))

	payload, err := DecodePaymentHeader(header)
	if err != nil {
		logger.Warn("Payment header rejected", "error", err)
		return reject(StateAwaitingProof, ErrPaymentVerificationFailed.Error(), nil, fmt.Errorf("%w: %w", ErrPaymentVerificationFailed, err))
	}
	logger.Debug("Decoded payment payload", "scheme", payload.Scheme, "network", payload.Network, "version", payload.X402Version)

	verified, err := g.facilitator.Verify(ctx, payload, reqs)
	if err != nil {
		logger.Error("Facilitator verify failed", "error", err)
		return reject(StateVerifying, ErrPaymentVerificationFailed.Error(), nil, fmt.Errorf("%w: %w", ErrPaymentVerificationFailed, err))
	}
	if verified == nil || !verified.IsValid {
		logger.Info("Payment not valid", "result", verified)
		return reject(StateVerifying, ErrPaymentNotValid.Error(), verified, ErrPaymentNotValid)
	}

	settled, err := g.facilitator.Settle(ctx, payload, reqs)
	if err != nil {
		logger.Error("Facilitator settle failed", "error", err)
		return reject(StateSettling, ErrPaymentVerificationFailed.Error(), nil, fmt.Errorf("%w: %w", ErrPaymentVerificationFailed, err))
	}
	if settled == nil || !settled.Success {
		logger.Info("Payment not settled", "result", settled)
		return reject(StateSettling, ErrPaymentNotSettled.Error(), settled, ErrPaymentNotSettled)
	}

	logger.Info("Payment settled", "payer", verified.Payer, "transaction", settled.Transaction)
	return Decision{State: StateGranted, Settlement: settled, Payer: verified.Payer}
}

func reject(stage State, code string, detail any, err error) Decision {
	return Decision{
		State:     StateRejected,
		Rejection: &Rejection{Code: code, Stage: stage, Detail: detail, Err: err},
	}
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
