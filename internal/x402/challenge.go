package x402

import (
	"errors"
	"fmt"

	"github.com/jaki95/streampay/internal/domain"
	"github.com/jaki95/streampay/internal/pricing"
)

const (
	MaxTimeoutSeconds = 600
	audioMimeType     = "audio/mpeg"
)

// Asset identifies the token a deployment is paid in. Name and Version are
// the token's signing domain on Network.
type Asset struct {
	Network string
	Address string
	Name    string
	Version string
}

// ChallengeBuilder produces payment requirements for stream requests.
type ChallengeBuilder struct {
	asset Asset
}

func NewChallengeBuilder(asset Asset) *ChallengeBuilder {
	return &ChallengeBuilder{asset: asset}
}

// Build returns the requirements for streaming trackID once.
//
// The amount asked for is a single minute at the track's rate, not the full
// duration total. Existing clients depend on this, so keep it.
//
// payTo is validated but sent as stored, in its original letter case.
func (b *ChallengeBuilder) Build(resource, trackID, payTo string, pricePerMinuteCents int64) (PaymentRequirements, error) {
	wallet, err := domain.ParseWallet(payTo)
	if err != nil {
		if errors.Is(err, domain.ErrMissingWallet) || errors.Is(err, domain.ErrInvalidWallet) {
			return PaymentRequirements{}, fmt.Errorf("%w: %v", ErrInvalidPayee, err)
		}
		return PaymentRequirements{}, err
	}

	return PaymentRequirements{
		Scheme:            SchemeExact,
		Network:           b.asset.Network,
		MaxAmountRequired: pricing.AtomicFromCents(pricePerMinuteCents),
		Resource:          resource,
		Description:       "Stream track " + trackID,
		MimeType:          audioMimeType,
		PayTo:             wallet.String(),
		MaxTimeoutSeconds: MaxTimeoutSeconds,
		Asset:             b.asset.Address,
		Extra: Extra{
			Name:    b.asset.Name,
			Version: b.asset.Version,
		},
	}, nil
}

// Challenge wraps requirements into a 402 body.
func Challenge(reqs PaymentRequirements) *PaymentRequired {
	return &PaymentRequired{
		X402Version: Version,
		Accepts:     []PaymentRequirements{reqs},
	}
}
