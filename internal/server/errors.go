package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/research-assistant/internal/extract"
	"github.com/sells-group/research-assistant/internal/store"
)

// NotFoundDetail is returned for unknown session keys.
const NotFoundDetail = "Document not found. Please upload a document first."

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("http: encode response", zap.Error(err))
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeError maps service errors to status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeDetail(w, http.StatusNotFound, NotFoundDetail)
	case errors.Is(err, extract.ErrUnsupportedFormat):
		writeDetail(w, http.StatusBadRequest, extract.ErrUnsupportedFormat.Error())
	case errors.Is(err, extract.ErrEmptyContent):
		writeDetail(w, http.StatusBadRequest, extract.ErrEmptyContent.Error())
	case errors.Is(err, extract.ErrExtraction):
		writeDetail(w, http.StatusInternalServerError, "Error processing document: "+err.Error())
	default:
		zap.L().Error("http: request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "internal server error")
	}
}
