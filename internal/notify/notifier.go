package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/AfikDanan/DayZeroAI/internal/config"
	"github.com/AfikDanan/DayZeroAI/internal/telemetry"
)

// Sender abstracts the mail transport. *sendgrid.Client satisfies it.
type Sender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// EmailNotifier sends the "video ready" and "something went wrong" emails.
// Delivery is best-effort: any transport error or non-success status is
// absorbed into a structured fallback log so pipeline completion is never
// gated on email.
type EmailNotifier struct {
	sender Sender
	from   string
	log    *zap.Logger
}

func NewEmailNotifier(cfg config.Config, log *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		sender: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   cfg.FromEmail,
		log:    log,
	}
}

// NewEmailNotifierWithSender is used by tests to stub the transport.
func NewEmailNotifierWithSender(sender Sender, from string, log *zap.Logger) *EmailNotifier {
	return &EmailNotifier{sender: sender, from: from, log: log}
}

// NotifySuccess emails the new hire a link to their video.
func (n *EmailNotifier) NotifySuccess(ctx context.Context, recipient, name, videoURL string) {
	first := firstName(name)
	subject := fmt.Sprintf("Welcome to the team, %s!", first)
	body := successBody(first, videoURL)
	n.send(ctx, recipient, subject, body)
}

// NotifyFailure still sends a warm welcome, without the broken link.
func (n *EmailNotifier) NotifyFailure(ctx context.Context, recipient, name, errorDetail string) {
	first := firstName(name)
	subject := fmt.Sprintf("Welcome to the team, %s!", first)
	body := failureBody(first)
	// The error detail stays in logs and the job record, never in the email.
	n.log.Warn("sending failure notification",
		zap.String("recipient", recipient),
		zap.String("error_detail", errorDetail),
	)
	n.send(ctx, recipient, subject, body)
}

func (n *EmailNotifier) send(_ context.Context, recipient, subject, html string) {
	msg := mail.NewSingleEmail(
		mail.NewEmail("Onboarding", n.from),
		subject,
		mail.NewEmail("", recipient),
		summarize(html),
		html,
	)

	resp, err := n.sender.Send(msg)
	if err == nil && resp != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		n.log.Info("notification sent",
			zap.String("recipient", recipient),
			zap.Int("status", resp.StatusCode),
		)
		return
	}

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	telemetry.NotifyFallbacks.Inc()
	n.log.Warn("notification fallback",
		zap.String("recipient", recipient),
		zap.String("subject", subject),
		zap.String("body_summary", summarize(html)),
		zap.Int("status", status),
		zap.Error(err),
	)
}

func successBody(first, videoURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; padding: 20px;">
  <h2>Welcome to the Team, %s! 🎉</h2>
  <p>We're so excited to have you joining us! We've prepared a personalized
  welcome video just for you, covering everything you need to know about
  your first day and week.</p>
  <p><a href="%s">Watch Your Welcome Video</a></p>
  <p>If you have any questions before your start date, feel free to reach
  out to your manager or HR team.</p>
  <p>See you soon!</p>
</body>
</html>`, first, videoURL)
}

func failureBody(first string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; padding: 20px;">
  <h2>Welcome to the Team, %s! 🎉</h2>
  <p>We're excited to have you joining us!</p>
  <p>We attempted to create a personalized welcome video for you, but
  encountered a technical issue. Don't worry - our team has been notified
  and we'll send you the video shortly.</p>
  <p>If you have any questions, please reach out to HR.</p>
  <p>See you soon!</p>
</body>
</html>`, first)
}

func firstName(name string) string {
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}

// summarize strips markup down to a short plain-text line for the
// fallback log and the text/plain mail part.
func summarize(html string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	text := strings.Join(strings.Fields(sb.String()), " ")
	if len(text) > 160 {
		text = text[:160]
	}
	return text
}
