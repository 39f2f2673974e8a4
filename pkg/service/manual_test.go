package service

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"payment_reconciler/models"
)

func TestManualTransferRegistry(t *testing.T) {
	repos, db := newTestRepos(t)
	ctx := context.Background()
	pub := &recordingPublisher{}
	registry := NewManualTransferRegistry(repos.ManualTransfer, repos.Authorization, pub)

	alice := seedUser(t, db, "alice", "alice@example.com", false)
	admin := seedUser(t, db, "root", "root@example.com", true)
	realAt := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)

	assigned, err := registry.Create(ctx, admin, models.ManualTransferInput{
		TransactionID: " 0001-ABC ",
		BankName:      "Galicia",
		RealAt:        &realAt,
		Amount:        decimal.NewFromInt(15000),
		OwnerID:       alice.ID,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if assigned.ID == "" || assigned.TransactionID != "0001-ABC" || assigned.OwnerID == nil || *assigned.OwnerID != alice.ID {
		t.Errorf("created = %+v", assigned)
	}

	free, err := registry.Create(ctx, admin, models.ManualTransferInput{
		TransactionID: "0002",
		BankName:      "Macro",
		Amount:        decimal.NewFromInt(700),
	})
	if err != nil {
		t.Fatalf("Create() free error = %v", err)
	}
	if free.OwnerID != nil {
		t.Errorf("free transfer owner = %v", *free.OwnerID)
	}

	mine, err := registry.ListForUser(ctx, alice.ID, false)
	if err != nil || len(mine) != 1 || mine[0].ID != assigned.ID {
		t.Errorf("ListForUser(mine) = %v, %v", mine, err)
	}
	open, err := registry.ListForUser(ctx, alice.ID, true)
	if err != nil || len(open) != 1 || open[0].ID != free.ID {
		t.Errorf("ListForUser(unclaimed) = %v, %v", open, err)
	}

	all, err := registry.ListAll(ctx, admin)
	if err != nil || len(all) != 2 {
		t.Errorf("ListAll() = %v, %v", all, err)
	}

	moved, err := registry.Reassign(ctx, admin, free.ID, alice.ID)
	if err != nil {
		t.Fatalf("Reassign() error = %v", err)
	}
	if moved.OwnerEmail == nil || *moved.OwnerEmail != "alice@example.com" {
		t.Errorf("reassigned owner email = %v", moved.OwnerEmail)
	}
	freed, err := registry.Reassign(ctx, admin, assigned.ID, "")
	if err != nil || freed.OwnerID != nil {
		t.Errorf("Reassign(free) = %+v, %v", freed, err)
	}

	if got := pub.Types(); len(got) != 2 {
		t.Errorf("events = %v, want two manual_transfer.created", got)
	}
}

func TestManualTransferRegistryValidation(t *testing.T) {
	repos, db := newTestRepos(t)
	ctx := context.Background()
	registry := NewManualTransferRegistry(repos.ManualTransfer, repos.Authorization, &recordingPublisher{})

	alice := seedUser(t, db, "alice", "alice@example.com", false)
	admin := seedUser(t, db, "root", "root@example.com", true)
	valid := models.ManualTransferInput{TransactionID: "1", BankName: "BBVA", Amount: decimal.NewFromInt(1)}

	if _, err := registry.Create(ctx, alice, valid); errors.Cause(err) != ErrForbidden {
		t.Errorf("non-admin Create() error = %v", err)
	}
	if _, err := registry.ListAll(ctx, alice); errors.Cause(err) != ErrForbidden {
		t.Errorf("non-admin ListAll() error = %v", err)
	}
	if _, err := registry.Reassign(ctx, alice, "x", ""); errors.Cause(err) != ErrForbidden {
		t.Errorf("non-admin Reassign() error = %v", err)
	}
	if _, err := registry.Reassign(ctx, admin, "missing", ""); errors.Cause(err) != ErrNotFound {
		t.Errorf("Reassign() of missing id error = %v", err)
	}

	invalid := []models.ManualTransferInput{
		{BankName: "BBVA", Amount: decimal.NewFromInt(1)},
		{TransactionID: "1", Amount: decimal.NewFromInt(1)},
		{TransactionID: "1", BankName: "BBVA"},
		{TransactionID: "1", BankName: "BBVA", Amount: decimal.NewFromInt(-5)},
		{TransactionID: "1", BankName: "BBVA", Amount: decimal.NewFromInt(1), OwnerID: "ghost"},
	}
	for _, in := range invalid {
		_, err := registry.Create(ctx, admin, in)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Create(%+v) error = %v, want ValidationError", in, err)
		}
	}
}
