package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/quillnote/quillnote/internal/errs"
	"github.com/quillnote/quillnote/internal/profile"
)

// Client calls the privileged admin routes over HTTP with a bearer token.
// Browser-facing code uses it so the privileged work runs behind the route
// guards instead of in the page handler.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates an admin API client. token is the caller's session id;
// an empty token is rejected at call time rather than here so the client can
// be constructed before login state is known.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateUser calls the user-creation route.
func (c *Client) CreateUser(ctx context.Context, params CreateUserParams) (*profile.Profile, error) {
	var out struct {
		User *profile.Profile `json:"user"`
	}
	if err := c.post(ctx, "/api/admin/create-user", params, &out, "Failed to create user"); err != nil {
		return nil, err
	}
	return out.User, nil
}

// UpdateUser calls the user-update route.
func (c *Client) UpdateUser(ctx context.Context, params UpdateUserParams) (*profile.Profile, error) {
	var out struct {
		User *profile.Profile `json:"user"`
	}
	if err := c.post(ctx, "/api/admin/update-user", params, &out, "Failed to update user"); err != nil {
		return nil, err
	}
	return out.User, nil
}

// DeleteUserAccount calls the account-deletion route, which runs the full
// cascade server-side under service credentials.
func (c *Client) DeleteUserAccount(ctx context.Context, userID string) error {
	body := map[string]string{"user_id": userID}
	return c.post(ctx, "/api/admin/delete-user", body, nil, "Failed to delete user account")
}

func (c *Client) post(ctx context.Context, path string, body, out any, failureMessage string) error {
	if c.token == "" {
		return errs.AuthErr("authentication required")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return errs.Wrap(errs.Internal, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errs.Wrap(errs.Internal, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.DatabaseErr(failureMessage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		msg := errBody.Error
		if msg == "" {
			msg = failureMessage
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errs.AuthErr(msg)
		case http.StatusForbidden:
			return errs.New(errs.PermissionDenied, msg)
		case http.StatusBadRequest:
			return errs.ValidationErr(msg)
		default:
			return errs.DatabaseErr(msg, fmt.Errorf("unexpected status %d", resp.StatusCode))
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errs.Wrap(errs.Internal, "failed to decode response", err)
		}
	}
	return nil
}
