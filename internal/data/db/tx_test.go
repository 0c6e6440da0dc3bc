package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/gma-backend/internal/platform/dbctx"
	"github.com/yungbote/gma-backend/internal/platform/logger"
)

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&pgconn.PgError{Code: "40001"}, true},
		{fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40P01"}), true},
		{&pgconn.PgError{Code: "23505"}, false},
		{errors.New("database is locked"), true},
		{context.Canceled, false},
		{errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Fatalf("IsRetryable(%v): want=%v got=%v", tc.err, tc.want, got)
		}
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	log, _ := logger.New("test")
	svc, err := Open(log, Config{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "tx.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc.DB()
}

func TestTransactionRetriesTransientConflicts(t *testing.T) {
	gdb := openTestDB(t)
	calls := 0
	err := Transaction(dbctx.Context{Ctx: context.Background()}, gdb, func(tx *gorm.DB) error {
		calls++
		if calls < 2 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls: want=2 got=%d", calls)
	}
}

func TestTransactionDoesNotRetryOtherErrors(t *testing.T) {
	gdb := openTestDB(t)
	calls := 0
	sentinel := errors.New("boom")
	err := Transaction(dbctx.Context{Ctx: context.Background()}, gdb, func(tx *gorm.DB) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("want sentinel, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}

func TestTransactionGivesUpAfterAttempts(t *testing.T) {
	gdb := openTestDB(t)
	calls := 0
	err := Transaction(dbctx.Context{Ctx: context.Background()}, gdb, func(tx *gorm.DB) error {
		calls++
		return &pgconn.PgError{Code: "40P01"}
	})
	if err == nil || calls != txAttempts {
		t.Fatalf("want failure after %d calls, got calls=%d err=%v", txAttempts, calls, err)
	}
}
