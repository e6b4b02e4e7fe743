package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/petrijr/rastro/internal/ingest"
)

func (h *handler) postEvent(w http.ResponseWriter, r *http.Request) {
	if h.deps.Publisher == nil {
		writeError(w, http.StatusNotFound, "event ingestion not configured")
		return
	}

	var e ingest.Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.deps.Publisher.Publish(e); err != nil {
		switch {
		case errors.Is(err, ingest.ErrNoSource):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	h.logger.Debug("event accepted",
		zap.String("source", e.Source),
		zap.String("kind", e.Kind),
		zap.String("channel", e.Channel),
	)
	w.WriteHeader(http.StatusAccepted)
}
