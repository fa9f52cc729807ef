// Package api exposes the JSON HTTP surface: notes CRUD and autosave, auth,
// self-service profile, and the privileged admin routes.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/quillnote/quillnote/internal/errs"
	"github.com/quillnote/quillnote/internal/notify"
	"github.com/quillnote/quillnote/internal/obs"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			obs.Pkg("api").Error("failed to encode response", slog.String("error", err.Error()))
		}
	}
}

// WriteError writes a JSON error response. The status comes from the error's
// code, the body carries the sanitized message plus the toast payload the
// client renders. Raw causes never reach the wire.
func WriteError(w http.ResponseWriter, err error) {
	status := errs.HTTPStatus(errs.CodeOf(err))
	if status >= 500 {
		obs.Pkg("api").Error("request failed", slog.String("error", err.Error()))
	}
	WriteJSON(w, status, map[string]any{
		"error": errs.MessageOf(err),
		"toast": notify.FromError(err),
	})
}

// WriteSuccess writes a 200 response with success flag and optional toast.
func WriteSuccess(w http.ResponseWriter, toast notify.Toast) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"toast":   toast,
	})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.ValidationErr("invalid request body")
	}
	return nil
}
