package utils

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/mailjet/mailjet-apiv3-go/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
	"payment_reconciler/models"
)

type MailConfig struct {
	From     string
	FromName string
	To       []string

	MailjetAPIKey    string
	MailjetSecretKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
}

// Enabled reports whether any delivery channel is configured.
func (c MailConfig) Enabled() bool {
	if c.From == "" || len(c.To) == 0 {
		return false
	}
	return (c.MailjetAPIKey != "" && c.MailjetSecretKey != "") || c.SMTPHost != ""
}

// OperatorMailer tells operators about approved payments waiting to be
// claimed. Mailjet is used when keys are set, plain SMTP otherwise.
type OperatorMailer struct {
	cfg  MailConfig
	send func(subject, html string) error
}

func NewOperatorMailer(cfg MailConfig) *OperatorMailer {
	m := &OperatorMailer{cfg: cfg}
	if cfg.MailjetAPIKey != "" && cfg.MailjetSecretKey != "" {
		m.send = m.sendMailjet
	} else {
		m.send = m.sendSMTP
	}
	return m
}

var transferAlert = template.Must(template.New("alert").Parse(`<body style="margin:0;padding:0;background:#f6f6f6;">
  <table width="100%" cellpadding="0" cellspacing="0" border="0" style="max-width:600px;background:#f3f2f0;border-radius:28px;">
    <tr>
      <td style="padding:32px;font-family:Arial,sans-serif;">
        <h1 style="margin:0 0 12px 0;font-size:28px;color:#111;">Nuevo pago aprobado</h1>
        <table cellpadding="0" cellspacing="0" border="0" style="width:100%;">
          <tr><td style="color:#555;padding:6px 0;">Pago:</td><td style="font-weight:bold;">{{.PaymentID}}</td></tr>
          <tr><td style="color:#555;padding:6px 0;">Monto:</td><td style="font-weight:bold;">{{.Amount}}</td></tr>
          <tr><td style="color:#555;padding:6px 0;">Descripción:</td><td>{{.Description}}</td></tr>
          {{if .ApprovedAt}}<tr><td style="color:#555;padding:6px 0;">Aprobado:</td><td>{{.ApprovedAt.Format "2006-01-02 15:04"}}</td></tr>{{end}}
        </table>
      </td>
    </tr>
  </table>
</body>`))

// TransferApproved sends the alert. Delivery failures are logged, never
// returned.
func (m *OperatorMailer) TransferApproved(_ context.Context, t models.Transfer) {
	var body bytes.Buffer
	if err := transferAlert.Execute(&body, t); err != nil {
		logrus.Errorf("render alert for %d: %v", t.PaymentID, err)
		return
	}

	subject := fmt.Sprintf("Pago %d aprobado sin reclamar", t.PaymentID)
	if err := m.send(subject, body.String()); err != nil {
		logrus.WithField("payment_id", t.PaymentID).Errorf("operator alert: %v", err)
		return
	}
	logrus.WithField("payment_id", t.PaymentID).Info("operator alert sent")
}

func (m *OperatorMailer) sendMailjet(subject, html string) error {
	mj := mailjet.NewMailjetClient(m.cfg.MailjetAPIKey, m.cfg.MailjetSecretKey)

	to := make(mailjet.RecipientsV31, 0, len(m.cfg.To))
	for _, addr := range m.cfg.To {
		to = append(to, mailjet.RecipientV31{Email: addr})
	}
	messages := &mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{
		{
			From:     &mailjet.RecipientV31{Email: m.cfg.From, Name: m.cfg.FromName},
			To:       &to,
			Subject:  subject,
			HTMLPart: html,
		},
	}}

	_, err := mj.SendMailV31(messages)
	return errors.Wrap(err, "mailjet")
}

func (m *OperatorMailer) sendSMTP(subject, html string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.From, m.cfg.FromName)
	msg.SetHeader("To", m.cfg.To...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	d := gomail.NewDialer(m.cfg.SMTPHost, m.cfg.SMTPPort, m.cfg.SMTPUser, m.cfg.SMTPPassword)
	return errors.Wrap(d.DialAndSend(msg), "smtp")
}
