package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestGetPayment(t *testing.T) {
	const body = `{"id":123,"status":"approved","transaction_amount":500,` +
		`"date_approved":"2024-01-01T10:00:00.000-03:00","description":"Cuota",` +
		`"payer":{"email":"payer@example.com","identification":{"type":"DNI","number":"20123456"}}}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/123" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	client := NewMercadoPagoClient(Config{BaseURL: srv.URL, AccessToken: "secret"})
	p, err := client.GetPayment(context.Background(), 123)
	if err != nil {
		t.Fatalf("GetPayment() error = %v", err)
	}

	if p.ID != 123 || p.Status != "approved" {
		t.Errorf("payment = %+v", p)
	}
	if p.TransactionAmount.String() != "500" {
		t.Errorf("amount = %s", p.TransactionAmount)
	}
	want := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	if p.DateApproved == nil || !p.DateApproved.Equal(want) {
		t.Errorf("date_approved = %v, want %v", p.DateApproved, want)
	}
	if p.Payer.Email == nil || *p.Payer.Email != "payer@example.com" {
		t.Errorf("payer email = %v", p.Payer.Email)
	}
	if p.Payer.Identification.Number != "20123456" {
		t.Errorf("identification = %q", p.Payer.Identification.Number)
	}
	if string(p.Raw) != body {
		t.Errorf("raw body not preserved: %s", p.Raw)
	}
}

func TestGetPaymentErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retries    int
		wantCalls  int32
		wantNotFnd bool
	}{
		{name: "Given 404 Then not found without retry", status: http.StatusNotFound, retries: 2, wantCalls: 1, wantNotFnd: true},
		{name: "Given 401 Then error without retry", status: http.StatusUnauthorized, retries: 2, wantCalls: 1},
		{name: "Given 503 Then retried", status: http.StatusServiceUnavailable, retries: 2, wantCalls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := NewMercadoPagoClient(Config{BaseURL: srv.URL, RetryCount: tt.retries})
			_, err := client.GetPayment(context.Background(), 9)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Cause(err) == ErrPaymentNotFound; got != tt.wantNotFnd {
				t.Errorf("not found = %v, want %v (%v)", got, tt.wantNotFnd, err)
			}
			if got := atomic.LoadInt32(&calls); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}
