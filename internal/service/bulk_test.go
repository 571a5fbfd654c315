package service

import (
	"context"
	"testing"
	"time"

	"irl-points-system/internal/models"
)

func TestProcessBatchMixedRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seedAccount(t, env, "0xknown", 0, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	err := env.db.Model(&models.UserPointsAccount{}).
		Where("user_address = ?", "0xknown").
		Update("email", "known@example.com").Error
	if err != nil {
		t.Fatalf("set email: %v", err)
	}

	result, err := env.bulk.ProcessBatch(ctx, "admin@example.com", []BulkAwardRow{
		{Email: "Known@Example.com", Points: 300, Reason: "contest winner"},
		{Email: "ghost@example.com", Points: 100, Reason: "contest runner-up"},
		{Email: "", Points: 50, Reason: "no email"},
		{Email: "bad@example.com", Points: -10, Reason: "negative"},
	})
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	if result.BatchID == "" {
		t.Fatal("expected a batch id")
	}
	if result.Success != 1 || result.Pending != 1 || result.Failed != 2 {
		t.Fatalf("expected 1 success / 1 pending / 2 failed, got %d/%d/%d",
			result.Success, result.Pending, result.Failed)
	}

	if result.Results[0].Status != BulkRowSuccess || result.Results[0].UserAddress != "0xknown" {
		t.Fatalf("expected success for the known user, got %+v", result.Results[0])
	}
	if result.Results[1].Status != BulkRowUserNotFound {
		t.Fatalf("expected user_not_found for the ghost, got %+v", result.Results[1])
	}

	// The known user was paid the row's explicit value.
	env.mustTotal(t, "0xknown", 300)

	// The ghost's row waits in the holding area under the batch id.
	waiting, err := env.pendingRepo.ListUnawardedByEmail(ctx, "ghost@example.com")
	if err != nil {
		t.Fatalf("ListUnawardedByEmail: %v", err)
	}
	if len(waiting) != 1 || waiting[0].UploadBatchID != result.BatchID {
		t.Fatalf("expected one pending row under batch %s, got %+v", result.BatchID, waiting)
	}
	if waiting[0].UploadedByEmail != "admin@example.com" {
		t.Fatalf("expected uploader recorded, got %q", waiting[0].UploadedByEmail)
	}
}

func TestListAndDeletePending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	batch, err := env.bulk.ProcessBatch(ctx, "admin@example.com", []BulkAwardRow{
		{Email: "a@example.com", Points: 10, Reason: "a"},
		{Email: "b@example.com", Points: 20, Reason: "b"},
	})
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if batch.Pending != 2 {
		t.Fatalf("expected 2 pending rows, got %d", batch.Pending)
	}

	rows, err := env.bulk.ListPending(ctx, 0, 10, false)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	deleted, err := env.bulk.DeletePending(ctx, rows[0].ID)
	if err != nil {
		t.Fatalf("DeletePending: %v", err)
	}
	if !deleted {
		t.Fatal("expected the row to be deleted")
	}

	rows, err = env.bulk.ListPending(ctx, 0, 10, false)
	if err != nil {
		t.Fatalf("ListPending after delete: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row left, got %d", len(rows))
	}

	// A replayed row can no longer be deleted.
	if _, err := env.stats.RegisterUser(ctx, RegisterRequest{
		UserAddress: "0xlate",
		Email:       rows[0].Email,
	}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	deleted, err = env.bulk.DeletePending(ctx, rows[0].ID)
	if err != nil {
		t.Fatalf("DeletePending replayed row: %v", err)
	}
	if deleted {
		t.Fatal("a replayed row must not be deletable")
	}
}
