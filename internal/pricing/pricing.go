package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	SecondsPerMinute           = 60
	DefaultPricePerMinuteCents = 1

	// Stored prices are USD cents; the payment asset has 6 decimals.
	centsToAtomicExponent = 4
)

// NormalizePricePerMinute falls back to the default for unset or
// non-positive prices.
//
// TODO: decide with product whether an unset price should reject the stream
// instead of billing the default.
func NormalizePricePerMinute(cents int64) int64 {
	if cents <= 0 {
		return DefaultPricePerMinuteCents
	}
	return cents
}

// BillableMinutes rounds the duration up to whole minutes. An unknown (zero
// or negative) duration bills exactly one minute.
func BillableMinutes(durationSeconds int64) int64 {
	if durationSeconds <= 0 {
		return 1
	}
	minutes := durationSeconds / SecondsPerMinute
	if durationSeconds%SecondsPerMinute != 0 {
		minutes++
	}
	return max(1, minutes)
}

// StreamPriceCents is the total owed for one stream.
func StreamPriceCents(durationSeconds, pricePerMinuteCents int64) int64 {
	return totalCents(BillableMinutes(durationSeconds), NormalizePricePerMinute(pricePerMinuteCents))
}

// totalCents saturates at math.MaxInt64 so the total never decreases as the
// duration grows. Both arguments are positive.
func totalCents(minutes, price int64) int64 {
	if price > math.MaxInt64/minutes {
		return math.MaxInt64
	}
	return minutes * price
}

// AtomicFromCents converts cents to the asset's smallest unit as a decimal
// string, e.g. 2 cents -> "20000".
func AtomicFromCents(cents int64) string {
	return decimal.NewFromInt(NormalizePricePerMinute(cents)).Shift(centsToAtomicExponent).String()
}

// Quote is the price breakdown reported with a stream.
//
// UpfrontCents is the one-minute price charged through the payment
// challenge; TotalCents covers the whole duration and is only reported
// informationally. The two differ for tracks longer than a minute.
type Quote struct {
	DurationSeconds     int64
	PricePerMinuteCents int64
	Minutes             int64
	UpfrontCents        int64
	TotalCents          int64
}

func QuoteFor(durationSeconds, pricePerMinuteCents int64) Quote {
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	price := NormalizePricePerMinute(pricePerMinuteCents)
	minutes := BillableMinutes(durationSeconds)
	return Quote{
		DurationSeconds:     durationSeconds,
		PricePerMinuteCents: price,
		Minutes:             minutes,
		UpfrontCents:        price,
		TotalCents:          totalCents(minutes, price),
	}
}
