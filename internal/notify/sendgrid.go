// Package notify sends best-effort customer emails. Failures here must never
// alter the outcome of a generation run; callers log and move on.
package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"storybook/internal/infra"
)

// Service sends transactional emails through SendGrid. With no API key
// configured it degrades to logging the send and reporting success, which
// keeps development environments working without credentials.
type Service struct {
	apiKey   string
	from     *mail.Email
	logger   infra.Logger
	sendFunc func(message *mail.SGMailV3) (int, error)
}

// NewService constructs the SendGrid-backed notifier.
func NewService(apiKey, fromEmail, fromName string, logger infra.Logger) *Service {
	s := &Service{
		apiKey: apiKey,
		from:   mail.NewEmail(fromName, fromEmail),
		logger: logger,
	}
	if apiKey != "" {
		client := sendgrid.NewSendClient(apiKey)
		s.sendFunc = func(message *mail.SGMailV3) (int, error) {
			resp, err := client.Send(message)
			if err != nil {
				return 0, err
			}
			return resp.StatusCode, nil
		}
	}
	return s
}

// SendPreviewReady tells the customer their preview pages are viewable.
func (s *Service) SendPreviewReady(ctx context.Context, toEmail, childName, previewURL string) error {
	subject := fmt.Sprintf("%s's storybook preview is ready!", childName)
	plain := fmt.Sprintf("Great news! The first pages of %s's personalized storybook are ready to view.\n\nSee the preview here: %s\n", childName, previewURL)
	html := fmt.Sprintf("<p>Great news! The first pages of <strong>%s</strong>'s personalized storybook are ready to view.</p><p><a href=%q>See the preview</a></p>", childName, previewURL)
	return s.send(ctx, toEmail, subject, plain, html)
}

// SendBookReady tells the customer their full book PDF is available.
func (s *Service) SendBookReady(ctx context.Context, toEmail, childName, title, downloadURL string) error {
	subject := fmt.Sprintf("%q is ready to download!", title)
	plain := fmt.Sprintf("%s's complete storybook %q has been created.\n\nDownload it here: %s\n", childName, title, downloadURL)
	html := fmt.Sprintf("<p><strong>%s</strong>'s complete storybook <em>%s</em> has been created.</p><p><a href=%q>Download the book</a></p>", childName, title, downloadURL)
	return s.send(ctx, toEmail, subject, plain, html)
}

func (s *Service) send(ctx context.Context, toEmail, subject, plain, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if toEmail == "" {
		return fmt.Errorf("notify: recipient email is required")
	}
	if s.sendFunc == nil {
		s.logger.Info().Str("to", toEmail).Str("subject", subject).Msg("notify: no api key configured, skipping send")
		return nil
	}

	message := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", toEmail), plain, html)
	status, err := s.sendFunc(message)
	if err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	if status >= 400 {
		return fmt.Errorf("notify: send status %d", status)
	}
	s.logger.Info().Str("to", toEmail).Str("subject", subject).Msg("notify: email sent")
	return nil
}
