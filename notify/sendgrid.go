package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/lifegate/workforce-engine/engine"
)

// Sendgrid delivers reward notifications by email through the SendGrid API.
type Sendgrid struct {
	client        *sendgrid.Client
	from          *sgmail.Email
	subjectPrefix string
}

var _ engine.Notifier = (*Sendgrid)(nil)

// NewSendgrid creates a SendGrid-backed notifier. fromName/fromEmail become
// the sender identity; appName is prefixed to every subject line.
func NewSendgrid(apiKey, appName, fromName, fromEmail string) *Sendgrid {
	return &Sendgrid{
		client:        sendgrid.NewSendClient(apiKey),
		from:          sgmail.NewEmail(fromName, fromEmail),
		subjectPrefix: "[" + appName + "] ",
	}
}

func (s *Sendgrid) Notify(ctx context.Context, worker engine.Worker, subject, body string) error {
	to := sgmail.NewEmail(worker.Name, worker.Email)
	msg := sgmail.NewSingleEmail(s.from, s.subjectPrefix+subject, to, body, "")

	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
