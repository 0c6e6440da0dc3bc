package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/gma-backend/internal/platform/dbctx"
	"github.com/yungbote/gma-backend/internal/platform/httpx"
)

const (
	txAttempts    = 3
	txBaseBackoff = 50 * time.Millisecond
)

// IsRetryable reports whether err is a transient conflict that a fresh
// transaction may not hit again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "40001", "40P01", "55P03": // serialization_failure, deadlock_detected, lock_not_available
			return true
		}
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "deadlock")
}

// Transaction runs fn inside a transaction, retrying the whole unit when the
// database reports a transient conflict. Inside an existing transaction fn
// runs once as a nested savepoint; the outermost caller owns retries.
func Transaction(dbc dbctx.Context, fallback *gorm.DB, fn func(tx *gorm.DB) error) error {
	if dbc.Tx != nil {
		return dbc.DB(fallback).Transaction(fn)
	}
	ctx := dbc.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	var err error
	for attempt := 1; attempt <= txAttempts; attempt++ {
		err = dbc.DB(fallback).Transaction(fn)
		if err == nil || !IsRetryable(err) || attempt == txAttempts {
			return err
		}
		if werr := httpx.Wait(ctx, httpx.JitterSleep(txBaseBackoff*time.Duration(attempt))); werr != nil {
			return err
		}
	}
	return err
}
