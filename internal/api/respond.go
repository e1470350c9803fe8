package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/underwriter/internal/validation"
)

// msgUnavailable is the only detail callers see when a review phase fails.
const msgUnavailable = "review service unavailable, retry later"

type errorBody struct {
	Error  string                  `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeInvalid answers 400 for validation failures and 500 for anything else.
func writeInvalid(w http.ResponseWriter, err error) {
	if fields, ok := validation.AsErrors(err); ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request", Fields: fields})
		return
	}
	zap.L().Error("api: decode request", zap.Error(err))
	writeError(w, http.StatusBadRequest, "invalid request")
}

// writeUnavailable logs the underlying failure and hides it from the caller.
func writeUnavailable(w http.ResponseWriter, op string, err error) {
	zap.L().Error("api: "+op+" failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, msgUnavailable)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		zap.L().Warn("api: read body", zap.Error(eris.Wrap(err, "api: read body")))
		writeError(w, http.StatusBadRequest, "invalid request")
		return nil, false
	}
	return raw, true
}
