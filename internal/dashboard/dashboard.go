package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/errmatch/internal/matcher"
)

// SessionCookie names the cookie carrying the session ID. Each browser session
// owns at most one uploaded dataset.
const SessionCookie = "errmatch_session"

// Options configures a Dashboard.
type Options struct {
	MaxRows        int   // data rows kept per upload
	MaxUploadBytes int64 // multipart body cap
}

// Dashboard serves the browser chat interface: upload, chat and session
// management.
type Dashboard struct {
	engine *matcher.Engine
	opts   Options
	logger zerolog.Logger
}

// New creates a new Dashboard.
func New(engine *matcher.Engine, opts Options, logger zerolog.Logger) *Dashboard {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 16 << 20
	}
	return &Dashboard{engine: engine, opts: opts, logger: logger}
}

// RegisterRoutes mounts the request/response routes onto the given router.
func (d *Dashboard) RegisterRoutes(r chi.Router) {
	r.Get("/", d.ServeIndex)
	r.Post("/upload", d.handleUpload)
	r.Post("/chat", d.handleChat)
	r.Post("/clear", d.handleClear)
	r.Get("/dataset-info", d.handleDatasetInfo)
}

// RegisterStreaming mounts the websocket chat route. It must not sit behind a
// request deadline.
func (d *Dashboard) RegisterStreaming(r chi.Router) {
	r.Get("/ws/chat", d.handleWebSocket)
}

// sessionID returns the caller's session, or "" when there is none.
func sessionID(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// newSession issues a fresh session cookie and returns its ID.
func newSession(w http.ResponseWriter) string {
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func expireSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
