// Package email sends transactional mail. Sending is always best-effort:
// callers log failures and carry on.
package email

import (
	"log/slog"
	"sync"

	"github.com/quillnote/quillnote/internal/obs"
)

// Template names.
const (
	TemplateInvite          = "invite"
	TemplatePasswordChanged = "password_changed"
)

// InviteData is the payload for account invitation emails sent when an admin
// creates a user.
type InviteData struct {
	Name     string
	Email    string
	LoginURL string
}

// PasswordChangedData is the payload for the security notice sent after a
// password change.
type PasswordChangedData struct {
	Email string
	When  string
}

// Service sends an email using a named template.
type Service interface {
	Send(to, templateName string, data any) error
}

// SentEmail is a captured email for testing.
type SentEmail struct {
	To       string
	Template string
	Data     any
}

// MockService captures emails instead of sending them.
type MockService struct {
	mu     sync.Mutex
	Emails []SentEmail
	log    *slog.Logger
}

// NewMockService creates a capturing mock email service.
func NewMockService() *MockService {
	return &MockService{log: obs.Pkg("email")}
}

// Send records the email and logs it for manual inspection.
func (m *MockService) Send(to, templateName string, data any) error {
	m.mu.Lock()
	m.Emails = append(m.Emails, SentEmail{To: to, Template: templateName, Data: data})
	m.mu.Unlock()

	m.log.Info("mock email captured",
		slog.String("to", to),
		slog.String("template", templateName),
	)
	return nil
}

// Sent returns a copy of the captured emails.
func (m *MockService) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentEmail, len(m.Emails))
	copy(out, m.Emails)
	return out
}
