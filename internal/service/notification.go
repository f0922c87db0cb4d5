package service

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"garage-backend/internal/config"
	"garage-backend/internal/domain"
	"garage-backend/internal/logger"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// mailSender is satisfied by *sendgrid.Client.
type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

var (
	reportFiledHTML = template.Must(template.New("report_filed").Parse(
		`<p>A {{.ReporterType}} filed a report.</p><h3>{{.Title}}</h3><p>{{.Description}}</p>`))
	tierChangedHTML = template.Must(template.New("tier_changed").Parse(
		`<p>Hi {{.Name}},</p><p>Your membership level changed from <b>{{.From}}</b> to <b>{{.To}}</b>.</p>`))
)

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return b.String(), nil
}

type sendgridNotifier struct {
	client     mailSender
	from       *mail.Email
	ownerEmail string
}

// NewNotificationService returns a SendGrid-backed notifier, or one that only
// logs when no API key is configured.
func NewNotificationService(cfg config.NotificationConfig) NotificationService {
	if cfg.SendGridAPIKey == "" || cfg.FromEmail == "" {
		logger.Info("SendGrid not configured, notifications will be logged only")
		return noopNotifier{}
	}
	return newSendgridNotifier(sendgrid.NewSendClient(cfg.SendGridAPIKey), cfg)
}

func newSendgridNotifier(client mailSender, cfg config.NotificationConfig) *sendgridNotifier {
	return &sendgridNotifier{
		client:     client,
		from:       mail.NewEmail(cfg.FromName, cfg.FromEmail),
		ownerEmail: cfg.OwnerEmail,
	}
}

func (n *sendgridNotifier) send(ctx context.Context, toName, toEmail, subject, plainText, htmlBody string) error {
	logger.ExternalServiceCall("SendGrid", "Send", "to", toEmail, "subject", subject)
	msg := mail.NewSingleEmail(n.from, subject, mail.NewEmail(toName, toEmail), plainText, htmlBody)
	resp, err := n.client.SendWithContext(ctx, msg)
	if err == nil && resp.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", resp.StatusCode, resp.Body)
	}
	logger.ExternalServiceResult("SendGrid", "Send", err, "to", toEmail)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// ReportFiled tells the shop owner about a new report.
func (n *sendgridNotifier) ReportFiled(ctx context.Context, report *domain.Report) error {
	if n.ownerEmail == "" {
		return nil
	}
	subject := fmt.Sprintf("New report: %s", report.Title)
	plain := fmt.Sprintf("A %s filed a report.\n\n%s\n\n%s", report.ReporterType, report.Title, report.Description)
	body, err := render(reportFiledHTML, report)
	if err != nil {
		return err
	}
	return n.send(ctx, "Owner", n.ownerEmail, subject, plain, body)
}

func (n *sendgridNotifier) TierChanged(ctx context.Context, member *domain.Member, from, to domain.Tier) error {
	if member.Email == "" {
		return nil
	}
	subject := fmt.Sprintf("Your membership is now %s", to)
	plain := fmt.Sprintf("Hi %s,\n\nYour membership level changed from %s to %s.", member.Name, from, to)
	body, err := render(tierChangedHTML, struct {
		Name     string
		From, To domain.Tier
	}{member.Name, from, to})
	if err != nil {
		return err
	}
	return n.send(ctx, member.Name, member.Email, subject, plain, body)
}

type noopNotifier struct{}

func (noopNotifier) ReportFiled(ctx context.Context, report *domain.Report) error {
	logger.Debug("Notification skipped", "event", "report_filed", "reportID", report.ID)
	return nil
}

func (noopNotifier) TierChanged(ctx context.Context, member *domain.Member, from, to domain.Tier) error {
	logger.Debug("Notification skipped", "event", "tier_changed", "memberID", member.ID, "to", to)
	return nil
}
