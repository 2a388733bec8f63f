package respond

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"buscalisto/internal/dataaccess"
	"buscalisto/internal/query"
)

type ErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Body wraps every successful data response.
type Body struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Source  string `json:"source,omitempty"`
	View    string `json:"view,omitempty"`
	Cached  bool   `json:"cached,omitempty"`
}

func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string) {
	var b ErrorBody
	b.Error.Code = code
	b.Error.Message = msg
	WriteJSON(w, status, b)
}

func WriteBadRequest(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
}

// WriteState renders a settled query. Misses become 404, deadlines 504.
func WriteState[T any](w http.ResponseWriter, log *slog.Logger, resource string, st query.State[T]) {
	if st.Err != nil {
		switch {
		case errors.Is(st.Err, dataaccess.ErrNotFound):
			WriteError(w, http.StatusNotFound, "not_found", st.Err.Error())
		case errors.Is(st.Err, context.DeadlineExceeded):
			WriteError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
		case errors.Is(st.Err, context.Canceled):
			// client went away
		default:
			log.Error("query failed", "resource", resource, "err", st.Err)
			WriteInternalError(w)
		}
		return
	}

	WriteJSON(w, http.StatusOK, Body{
		Success: true,
		Data:    st.Data,
		Source:  string(st.Source),
		View:    string(st.View()),
		Cached:  st.Cached,
	})
}
