package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"spinchart/internal/app/trending"
	"spinchart/internal/store"
	"spinchart/shared/go/logging"
	"spinchart/shared/go/middleware"
)

// UserService captures the account operations needed by the HTTP handlers.
type UserService interface {
	Signup(ctx context.Context, username, password string) (int64, error)
	Login(ctx context.Context, username, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (int64, error)
}

// PlayService records playback and lists listening history.
type PlayService interface {
	RecordPlay(ctx context.Context, userID, songID int64) (store.Song, error)
	RecentlyPlayed(ctx context.Context, userID int64, limit int) ([]store.RecentPlay, error)
}

// TrendingService exposes snapshot builds, rankings and stats.
type TrendingService interface {
	Trending(ctx context.Context, period trending.Period, date time.Time, limit int) ([]trending.RankedSong, error)
	BuildSnapshot(ctx context.Context, period trending.Period, date time.Time) (int64, error)
	Snapshots(ctx context.Context, period trending.Period, limit int) ([]store.Snapshot, error)
	Stats(ctx context.Context, period trending.Period) trending.Stats
	UpdateAll(ctx context.Context, date time.Time) []trending.UpdateResult
	ResolveDate(date time.Time) time.Time
}

// HealthChecker reports whether the backing datastore is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users    UserService
	plays    PlayService
	trending TrendingService
	health   HealthChecker
}

// New configures a Server with the given services.
func New(users UserService, plays PlayService, trending TrendingService) *Server {
	return &Server{
		users:    users,
		plays:    plays,
		trending: trending,
	}
}

// WithHealthCheck makes /health ping hc and answer 503 when it fails.
func (s *Server) WithHealthCheck(hc HealthChecker) *Server {
	s.health = hc
	return s
}

// Routes exposes the HTTP handlers. Bearer tokens are resolved for every
// request; the listening history routes require one.
func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.Authenticate(s.users))

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	s.Register(router.PathPrefix("/api/v1").Subrouter())

	// Legacy routes for the existing frontend.
	s.Register(router.PathPrefix("/api").Subrouter())
	s.Register(router)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errRouteNotFound)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed", "method_not_allowed"))
	})

	return router
}

// Register mounts the API routes on router.
func (s *Server) Register(router *mux.Router) {
	router.HandleFunc("/auth/signup", s.handleSignup).Methods(http.MethodPost)
	router.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	router.HandleFunc("/trending", s.handleTrending).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/trending/snapshot", s.handleBuildSnapshot).Methods(http.MethodPost)
	router.HandleFunc("/trending/snapshots", s.handleSnapshots).Methods(http.MethodGet)
	router.HandleFunc("/trending/stats", s.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/trending/update", s.handleUpdate).Methods(http.MethodPost)

	router.Handle("/recently-played", middleware.RequireUser(http.HandlerFunc(s.handleRecordPlay))).Methods(http.MethodPost)
	router.Handle("/recently-played", middleware.RequireUser(http.HandlerFunc(s.handleRecentlyPlayed))).Methods(http.MethodGet)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			logging.WithContext(r.Context()).Error().Err(err).Msg("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, errorBody("datastore unavailable", "unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
