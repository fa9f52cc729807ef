package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quillnote/quillnote/internal/errs"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, errs.Database, errs.CodeOf(errs.DatabaseErr("failed to load notes", errors.New("disk I/O error"))))
	assert.Equal(t, errs.Auth, errs.CodeOf(errs.AuthErr("invalid credentials")))
	assert.Equal(t, errs.Validation, errs.CodeOf(errs.ValidationErr("email is required")))
	assert.Equal(t, errs.Internal, errs.CodeOf(errors.New("raw")))
	assert.Equal(t, errs.Internal, errs.CodeOf(nil))
}

func TestCodeOfWrapped(t *testing.T) {
	inner := errs.AuthErr("current password is incorrect")
	outer := fmt.Errorf("change password: %w", inner)
	assert.Equal(t, errs.Auth, errs.CodeOf(outer))
}

func TestMessageOfNeverLeaksCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:5432: connection refused")
	err := errs.DatabaseErr("failed to save note", cause)
	assert.Equal(t, "failed to save note", errs.MessageOf(err))

	// Untyped errors collapse to a generic message.
	assert.Equal(t, "internal error", errs.MessageOf(cause))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("constraint failed")
	err := errs.DatabaseErr("failed to save note", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, errs.HTTPStatus(errs.Validation))
	assert.Equal(t, http.StatusUnauthorized, errs.HTTPStatus(errs.Auth))
	assert.Equal(t, http.StatusForbidden, errs.HTTPStatus(errs.PermissionDenied))
	assert.Equal(t, http.StatusNotFound, errs.HTTPStatus(errs.NotFound))
	assert.Equal(t, http.StatusInternalServerError, errs.HTTPStatus(errs.Database))
	assert.Equal(t, http.StatusInternalServerError, errs.HTTPStatus(errs.Internal))
}
