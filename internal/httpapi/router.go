package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/petrijr/rastro/internal/ingest"
	"github.com/petrijr/rastro/internal/persistence"
	"github.com/petrijr/rastro/pkg/api"
)

// Dependencies are the components the HTTP API exposes.
type Dependencies struct {
	// Reader answers GET /history. Required.
	Reader persistence.Reader
	// Memory answers the text and max-size endpoints. Optional.
	Memory *persistence.MemorySink

	// Publisher replays events posted to /events. Optional.
	Publisher *ingest.Publisher

	// TokenSecret, when set, is the HS256 key of the bearer tokens required
	// by the routes that change state.
	TokenSecret []byte

	Logger *zap.Logger
}

type handler struct {
	deps     Dependencies
	validate *validator.Validate
	logger   *zap.Logger
}

// NewRouter builds the operator API.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{
		deps:     deps,
		validate: validator.New(),
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "https://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.health)
	r.Route("/history", func(r chi.Router) {
		r.Get("/", h.listHistory)
		r.Get("/max-size", h.getMaxSize)
		r.With(h.requireToken).Put("/max-size", h.putMaxSize)
	})
	r.Get("/history.txt", h.historyText)
	r.With(h.requireToken).Post("/events", h.postEvent)
	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listHistory(w http.ResponseWriter, r *http.Request) {
	if h.deps.Reader == nil {
		writeError(w, http.StatusNotFound, "no readable history sink configured")
		return
	}
	recs, err := h.deps.Reader.Entries(r.Context())
	if err != nil {
		h.logger.Error("list history failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}

	if wfid := r.URL.Query().Get("wfid"); wfid != "" {
		filtered := recs[:0:0]
		for _, rec := range recs {
			if rec.CorrelationID != nil && rec.CorrelationID.WorkflowInstanceID == wfid {
				filtered = append(filtered, rec)
			}
		}
		recs = filtered
	}
	if recs == nil {
		recs = []api.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *handler) historyText(w http.ResponseWriter, r *http.Request) {
	if h.deps.Memory == nil {
		writeError(w, http.StatusNotFound, "no in-memory history configured")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.deps.Memory.String()))
}

type maxSizeBody struct {
	MaxSize int `json:"max_size" validate:"required,min=1"`
}

func (h *handler) getMaxSize(w http.ResponseWriter, r *http.Request) {
	if h.deps.Memory == nil {
		writeError(w, http.StatusNotFound, "no in-memory history configured")
		return
	}
	writeJSON(w, http.StatusOK, maxSizeBody{MaxSize: h.deps.Memory.MaxSize()})
}

func (h *handler) putMaxSize(w http.ResponseWriter, r *http.Request) {
	if h.deps.Memory == nil {
		writeError(w, http.StatusNotFound, "no in-memory history configured")
		return
	}
	var body maxSizeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.deps.Memory.SetMaxSize(body.MaxSize); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Info("history max size changed", zap.Int("max_size", body.MaxSize))
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
