package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/jaminalder/codex-arcade/internal/app"
)

// NewServer wires routes and returns an http.Handler. It also installs
// the board-fragment renderers the service broadcasts to SSE
// subscribers.
func NewServer(s *app.Service, log *logrus.Logger) http.Handler {
	if log == nil {
		log = logrus.New()
	}
	h := &handlers{svc: s, tpl: loadTemplates(), log: log}
	s.SetRenderers(app.Renderers{
		Merge:     func(st app.MergeState) []byte { return h.renderMergeBoard(st, "") },
		Placement: func(st app.PlacementState) []byte { return h.renderPlacementBoard(st, "", "") },
		Pairs:     func(st app.PairsState) []byte { return h.renderPairsBoard(st, "") },
	})

	r := chi.NewRouter()
	r.Use(requestLogger(log))
	r.Get("/", h.index)
	r.Post("/sessions/{id}/delete", h.sessionDelete)

	r.Route("/merge", func(r chi.Router) {
		r.Post("/", h.mergeCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.mergeView)
			r.Post("/move", h.mergeMove)
			r.Post("/restart", h.mergeRestart)
			r.Get("/events", h.events)
		})
	})

	r.Route("/placement", func(r chi.Router) {
		r.Post("/", h.placementCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.placementView)
			r.Post("/cell", h.placementSetCell)
			r.Post("/hint", h.placementHint)
			r.Post("/check", h.placementCheck)
			r.Post("/solve", h.placementSolve)
			r.Post("/elapsed", h.placementElapsed)
			r.Get("/events", h.events)
		})
	})

	r.Route("/pairs", func(r chi.Router) {
		r.Post("/", h.pairsCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.pairsView)
			r.Post("/open", h.pairsOpen)
			r.Post("/resolve", h.pairsResolve)
			r.Get("/events", h.events)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/merge/move", h.apiMergeMove)
		r.Post("/placement/generate", h.apiPlacementGenerate)
		r.Post("/placement/solve", h.apiPlacementSolve)
		r.Post("/placement/validate", h.apiPlacementValidate)
	})
	return r
}

// statusWriter captures the HTTP status for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// requestLogger logs method, path, status, and duration per request.
func requestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"status": sw.status,
				"dur":    time.Since(start).Round(time.Millisecond).String(),
			}).Info("http")
		})
	}
}
