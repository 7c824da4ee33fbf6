package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"github.com/loomhq/resource-governor/internal/core/domain/quota"
	"github.com/loomhq/resource-governor/internal/core/ports"
)

// AlertConfig holds quota alert email configuration.
type AlertConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	OpsEmail       string
	CompanyName    string
}

// AlertService sends quota exhaustion notifications through SendGrid.
type AlertService struct {
	config *AlertConfig
	logger *logrus.Logger
	client *sendgrid.Client
	tmpl   *template.Template
}

const quotaAlertTemplate = `
<html>
  <body>
    <h2>{{.CompanyName}} — quota exceeded</h2>
    <p>Organization <strong>{{.OrgID}}</strong> has exhausted its <strong>{{.Resource}}</strong> quota.</p>
    <p>Used: {{.Used}} / {{.Limit}}</p>
    <p>Further consumption of this resource is being denied until the monthly reset or a tier upgrade.</p>
  </body>
</html>`

// NewAlertService creates a new quota alert service instance.
func NewAlertService(config *AlertConfig, logger *logrus.Logger) (ports.AlertService, error) {
	tmpl, err := template.New("quota_alert").Parse(quotaAlertTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quota alert template: %w", err)
	}

	return &AlertService{
		config: config,
		logger: logger,
		client: sendgrid.NewSendClient(config.SendGridAPIKey),
		tmpl:   tmpl,
	}, nil
}

type quotaAlertData struct {
	CompanyName string
	OrgID       string
	Resource    quota.ResourceKind
	Used        int64
	Limit       int64
}

// SendQuotaAlert emails the operations address about a denied consumption.
func (a *AlertService) SendQuotaAlert(ctx context.Context, orgID string, resource quota.ResourceKind, used, limit int64) error {
	var buf bytes.Buffer
	data := quotaAlertData{
		CompanyName: a.config.CompanyName,
		OrgID:       orgID,
		Resource:    resource,
		Used:        used,
		Limit:       limit,
	}
	if err := a.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render quota alert: %w", err)
	}

	from := mail.NewEmail(a.config.FromName, a.config.FromEmail)
	recipient := mail.NewEmail("", a.config.OpsEmail)
	subject := fmt.Sprintf("Quota exceeded: %s (%s)", orgID, resource)
	message := mail.NewSingleEmail(from, subject, recipient, "", buf.String())

	response, err := a.client.Send(message)
	if err != nil {
		a.logger.WithFields(logrus.Fields{
			"org_id":   orgID,
			"resource": resource,
		}).WithError(err).Error("Failed to send quota alert")
		return fmt.Errorf("failed to send quota alert: %w", err)
	}

	a.logger.WithFields(logrus.Fields{
		"org_id":      orgID,
		"resource":    resource,
		"status_code": response.StatusCode,
	}).Info("Quota alert sent")
	return nil
}
