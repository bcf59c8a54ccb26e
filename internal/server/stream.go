package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaki95/streampay/internal/catalog"
	"github.com/jaki95/streampay/internal/domain"
	"github.com/jaki95/streampay/internal/pricing"
	"github.com/jaki95/streampay/internal/storage"
	"github.com/jaki95/streampay/internal/x402"
)

const (
	headerDuration       = "X-Track-Duration-Seconds"
	headerPricePerMinute = "X-Track-Price-Per-Minute-Cents"
	headerTotalPrice     = "X-Track-Total-Price-Cents"
)

// streamTrack serves decrypted audio only after the payment gate grants the
// request. Every request pays again; nothing is cached between requests.
func (s *Server) streamTrack(c *gin.Context) {
	ctx := c.Request.Context()
	trackID := c.Param("trackId")
	log := logger(c).With("trackId", trackID)

	if _, _, err := domain.ParseTrackID(trackID); err != nil {
		log.Debug("Malformed track id", "error", err)
		respondError(c, http.StatusNotFound, errTrackNotFound, nil)
		return
	}

	track, err := s.catalog.TrackByTrackID(ctx, trackID)
	if errors.Is(err, catalog.ErrNotFound) {
		respondError(c, http.StatusNotFound, errTrackNotFound, nil)
		return
	}
	if err != nil {
		log.Error("Track lookup failed", "error", err)
		respondError(c, http.StatusInternalServerError, errCatalogUnavailable, nil)
		return
	}
	if track.AudioCID == "" {
		respondError(c, http.StatusNotFound, errTrackNotFound, nil)
		return
	}

	wallet, err := domain.ParseWallet(track.ArtistWallet)
	if err != nil {
		log.Error("Track has unusable artist wallet", "wallet", track.ArtistWallet, "error", err)
		if errors.Is(err, domain.ErrMissingWallet) {
			respondError(c, http.StatusInternalServerError, errWalletMissing, nil)
		} else {
			respondError(c, http.StatusInternalServerError, errWalletInvalid, nil)
		}
		return
	}

	quote := pricing.QuoteFor(track.DurationSeconds, track.PricePerMinuteCents)
	log.Debug("Stream pricing", "durationSeconds", quote.DurationSeconds, "pricePerMinuteCents", quote.PricePerMinuteCents, "minutes", quote.Minutes, "totalPriceCents", quote.TotalCents)

	reqs, err := s.challenges.Build(resourceURL(c.Request), trackID, wallet.String(), quote.UpfrontCents)
	if err != nil {
		log.Error("Failed to build payment requirements", "error", err)
		respondError(c, http.StatusInternalServerError, errWalletInvalid, nil)
		return
	}

	decision := s.gate.Evaluate(ctx, x402.PaymentHeaderValue(c.Request.Header), reqs)
	switch decision.State {
	case x402.StateChallenged:
		s.metrics.PaymentDecision(string(decision.State), "")
		c.JSON(http.StatusPaymentRequired, decision.Challenge)
		return
	case x402.StateRejected:
		log.Info("Payment rejected", "code", decision.Rejection.Code, "stage", decision.Rejection.Stage)
		s.metrics.PaymentDecision(string(decision.State), decision.Rejection.Code)
		respondError(c, http.StatusPaymentRequired, decision.Rejection.Code, decision.Rejection.Detail)
		return
	}
	s.metrics.PaymentDecision(string(decision.State), "")

	ciphertext, err := s.store.Get(ctx, track.AudioCID)
	if errors.Is(err, storage.ErrNotFound) {
		log.Error("Paid track content missing from store", "audioCid", track.AudioCID)
		respondError(c, http.StatusNotFound, errTrackNotFound, nil)
		return
	}
	if err != nil {
		log.Error("Failed to fetch track content", "audioCid", track.AudioCID, "error", err)
		respondError(c, http.StatusInternalServerError, errContentFetch, nil)
		return
	}

	audio, err := s.cipher.Decrypt(ciphertext)
	if err != nil {
		log.Error("Failed to decrypt track content", "audioCid", track.AudioCID, "error", err)
		respondError(c, http.StatusInternalServerError, errContentIntegrity, nil)
		return
	}

	if receipt, err := x402.EncodeSettleResponse(decision.Settlement); err == nil {
		c.Header(x402.PaymentResponseHeader, receipt)
	}
	c.Header("Content-Length", strconv.Itoa(len(audio)))
	c.Header("Cache-Control", "no-store")
	c.Header(headerDuration, strconv.FormatInt(quote.DurationSeconds, 10))
	c.Header(headerPricePerMinute, strconv.FormatInt(quote.PricePerMinuteCents, 10))
	c.Header(headerTotalPrice, strconv.FormatInt(quote.TotalCents, 10))
	c.Data(http.StatusOK, "audio/mpeg", audio)

	s.metrics.StreamServed(quote.TotalCents)
	log.Info("Stream delivered", "bytes", len(audio), "payer", decision.Payer, "payee", wallet.Checksum())
}
