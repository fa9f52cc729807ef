package email

import (
	"fmt"

	"github.com/resend/resend-go/v3"
)

// ResendService implements Service using the Resend API.
type ResendService struct {
	client      *resend.Client
	fromAddress string
}

// NewResendService creates a Resend-backed email service. fromAddress must
// be a verified sender.
func NewResendService(apiKey, fromAddress string) *ResendService {
	return &ResendService{
		client:      resend.NewClient(apiKey),
		fromAddress: fromAddress,
	}
}

// Send renders the template and sends it via Resend.
func (r *ResendService) Send(to, templateName string, data any) error {
	subject, html := renderTemplate(templateName, data)

	params := &resend.SendEmailRequest{
		From:    r.fromAddress,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	if _, err := r.client.Emails.Send(params); err != nil {
		return fmt.Errorf("resend: failed to send email: %w", err)
	}
	return nil
}

func renderTemplate(templateName string, data any) (subject, html string) {
	switch templateName {
	case TemplateInvite:
		d, _ := data.(InviteData)
		subject = "You've been invited to Quillnote"
		greeting := "Hi"
		if d.Name != "" {
			greeting = "Hi " + d.Name
		}
		html = fmt.Sprintf(
			`<p>%s,</p><p>An account has been created for %s. Sign in here:</p><p><a href="%s">%s</a></p>`,
			greeting, d.Email, d.LoginURL, d.LoginURL)
	case TemplatePasswordChanged:
		d, _ := data.(PasswordChangedData)
		subject = "Your Quillnote password was changed"
		html = fmt.Sprintf(
			`<p>The password for %s was changed at %s. If this wasn't you, contact support immediately.</p>`,
			d.Email, d.When)
	default:
		subject = "Message from Quillnote"
		html = fmt.Sprintf("<p>%+v</p>", data)
	}
	return subject, html
}
