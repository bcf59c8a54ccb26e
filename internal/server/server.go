package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaki95/streampay/config"
	"github.com/jaki95/streampay/internal/crypt"
	"github.com/jaki95/streampay/internal/domain"
	"github.com/jaki95/streampay/internal/metrics"
	"github.com/jaki95/streampay/internal/onramp"
	"github.com/jaki95/streampay/internal/release"
	"github.com/jaki95/streampay/internal/storage"
	"github.com/jaki95/streampay/internal/x402"
)

// TrackCatalog looks up published tracks.
type TrackCatalog interface {
	TrackByTrackID(ctx context.Context, trackID string) (*domain.Track, error)
}

// ReleasePublisher stores and publishes an uploaded release.
type ReleasePublisher interface {
	Publish(ctx context.Context, req release.Request) (*release.Result, error)
}

// SessionMinter issues onramp session tokens.
type SessionMinter interface {
	Configured() bool
	Override() string
	CreateSession(ctx context.Context, req onramp.SessionRequest) (string, error)
}

// Deps are the collaborators a Server is built from. They are created and
// closed by the caller.
type Deps struct {
	Catalog    TrackCatalog
	Store      storage.ContentStore
	Cipher     *crypt.Cipher
	Challenges *x402.ChallengeBuilder
	Gate       *x402.Gate
	Releases   ReleasePublisher
	Onramp     SessionMinter
	Metrics    *metrics.Metrics
}

// Server handles HTTP requests for streaming, uploads and onramp sessions.
type Server struct {
	cfg    *config.Config
	router *gin.Engine

	catalog    TrackCatalog
	store      storage.ContentStore
	cipher     *crypt.Cipher
	challenges *x402.ChallengeBuilder
	gate       *x402.Gate
	releases   ReleasePublisher
	onramp     SessionMinter
	metrics    *metrics.Metrics
}

// New creates a new HTTP server instance
func New(cfg *config.Config, deps Deps) *Server {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	s := &Server{
		cfg:        cfg,
		router:     gin.Default(),
		catalog:    deps.Catalog,
		store:      deps.Store,
		cipher:     deps.Cipher,
		challenges: deps.Challenges,
		gate:       deps.Gate,
		releases:   deps.Releases,
		onramp:     deps.Onramp,
		metrics:    deps.Metrics,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(requestID())
	s.router.Use(cors())

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	s.router.GET("/stream/:trackId", s.streamTrack)
	s.router.POST("/upload", s.uploadRelease)
	s.router.GET("/cover/:coverCid", s.getCover)
	s.router.POST("/onramp-session", s.createOnrampSession)
}

// Handler exposes the router for an http.Server or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "streampay",
	})
}
