package utils

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"payment_reconciler/models"
)

func TestMailConfigEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  MailConfig
		want bool
	}{
		{name: "empty", cfg: MailConfig{}, want: false},
		{name: "no recipients", cfg: MailConfig{From: "a@b.c", SMTPHost: "smtp"}, want: false},
		{name: "smtp", cfg: MailConfig{From: "a@b.c", To: []string{"ops@b.c"}, SMTPHost: "smtp"}, want: true},
		{name: "mailjet", cfg: MailConfig{From: "a@b.c", To: []string{"ops@b.c"}, MailjetAPIKey: "k", MailjetSecretKey: "s"}, want: true},
		{name: "half mailjet", cfg: MailConfig{From: "a@b.c", To: []string{"ops@b.c"}, MailjetAPIKey: "k"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransferApprovedRendersAlert(t *testing.T) {
	var subject, body string
	m := NewOperatorMailer(MailConfig{})
	m.send = func(s, h string) error {
		subject, body = s, h
		return nil
	}

	approved := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	m.TransferApproved(context.Background(), models.Transfer{
		PaymentID:   123,
		Amount:      decimal.NewFromInt(500),
		Description: "Cuota <enero>",
		ApprovedAt:  &approved,
	})

	if !strings.Contains(subject, "123") {
		t.Errorf("subject = %q", subject)
	}
	for _, want := range []string{"500", "Cuota &lt;enero&gt;", "2024-01-01 10:00"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestTransferApprovedSwallowsSendError(t *testing.T) {
	m := NewOperatorMailer(MailConfig{})
	m.send = func(string, string) error { return errors.New("smtp down") }

	m.TransferApproved(context.Background(), models.Transfer{PaymentID: 1})
}
