// Package httpapi exposes the tracker over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/p-n-ai/pai-tracker/internal/admin"
	"github.com/p-n-ai/pai-tracker/internal/auth"
	"github.com/p-n-ai/pai-tracker/internal/catalog"
	"github.com/p-n-ai/pai-tracker/internal/progress"
	"github.com/p-n-ai/pai-tracker/internal/realtime"
)

// HealthChecker is a dependency probed by /readyz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Check names a readiness probe.
type Check struct {
	Name    string
	Checker HealthChecker
}

// Deps holds everything the router serves.
type Deps struct {
	Auth           *auth.Service
	Gateway        *auth.Gateway
	Catalog        *catalog.Service
	Progress       *progress.Service
	Admin          *admin.Service
	Hub            *realtime.Hub
	Checks         []Check
	AllowedOrigins []string
}

type api struct {
	Deps
}

// NewRouter builds the HTTP handler with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	a := &api{Deps: d}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)

	mux.HandleFunc("POST /api/auth/register", a.handleRegister)
	mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	mux.HandleFunc("POST /api/auth/google", a.handleGoogle)

	mux.HandleFunc("POST /api/topic/addTopics", a.requireAdmin(a.handleAddTopic))
	mux.HandleFunc("GET /api/topic/get-allTopics", a.optionalUser(a.handleAllTopics))
	mux.HandleFunc("GET /api/topic/get-topic/{topicName}", a.requireUser(a.handleTopicByName))
	mux.HandleFunc("GET /api/topic/by-id/{topicId}", a.requireUser(a.handleTopicByID))
	mux.HandleFunc("PATCH /api/topic/{topicId}/questions/{questionId}", a.requireUser(a.handleUpdate))
	mux.HandleFunc("GET /api/topic/each-topic/progress", a.requireUser(a.handleTopicStats))
	mux.HandleFunc("GET /api/topic/all-topics/progress", a.requireUser(a.handleTotalPercent))
	mux.HandleFunc("GET /api/topic/bookmarked", a.requireUser(a.handleBookmarks))
	mux.HandleFunc("GET /api/topic/live", a.requireLiveUser(a.handleLive))

	mux.HandleFunc("GET /api/admin/allUsersProgress", a.requireAdmin(a.handleLeaderboard))
	mux.HandleFunc("GET /api/admin/user/{id}", a.requireAdmin(a.handleUserReport))
	mux.HandleFunc("GET /api/admin/export", a.requireAdmin(a.handleExport))

	return logRequests(cors(d.AllowedOrigins, mux))
}
