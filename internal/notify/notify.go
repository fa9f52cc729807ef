// Package notify maps operation outcomes to toast payloads the web client
// renders. The server never decides presentation beyond the payload shape.
package notify

import "github.com/quillnote/quillnote/internal/errs"

// Type is the toast variant.
type Type string

const (
	TypeDefault Type = "default"
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Toast is a notification payload.
type Toast struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Type        Type   `json:"type"`
	DurationMS  int    `json:"duration_ms,omitempty"`
}

// GenericFailureMessage is shown when an error carries no safe detail.
const GenericFailureMessage = "Something went wrong. Please try again later."

// Success builds a success toast.
func Success(title, description string) Toast {
	return Toast{Title: title, Description: description, Type: TypeSuccess}
}

// Info builds an info toast.
func Info(title, description string) Toast {
	return Toast{Title: title, Description: description, Type: TypeInfo}
}

// FromError builds the error toast for a failed operation. Expected failures
// (validation, auth) keep their specific message; everything else collapses
// to a generic failure so internals never reach the user.
func FromError(err error) Toast {
	code := errs.CodeOf(err)
	switch code {
	case errs.Validation:
		return Toast{Title: "Validation error", Description: errs.MessageOf(err), Type: TypeError}
	case errs.Auth:
		return Toast{Title: "Authentication error", Description: errs.MessageOf(err), Type: TypeError}
	case errs.NotFound:
		return Toast{Title: "Not found", Description: errs.MessageOf(err), Type: TypeError}
	case errs.PermissionDenied:
		return Toast{Title: "Forbidden", Description: errs.MessageOf(err), Type: TypeError}
	default:
		return Toast{Title: "Error", Description: GenericFailureMessage, Type: TypeError}
	}
}
