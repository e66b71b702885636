package helpers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nexfield/nexfield-api/libs/go/logger"
)

// TransactionFunc runs inside a database transaction.
type TransactionFunc func(tx pgx.Tx) error

// WithTransaction runs fn inside a transaction, committing when it
// returns nil and rolling back otherwise.
func WithTransaction(ctx context.Context, pool *pgxpool.Pool, fn TransactionFunc) error {
	if err := pgx.BeginFunc(ctx, pool, fn); err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// serialization_failure: the transaction lost a concurrency race and is
// safe to run again from the top.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

// WithTransactionRetry runs fn inside a transaction, retrying up to
// maxRetries times on serialization failures. Every other error returns
// immediately; re-running a transaction that failed on its own merits
// would just fail again.
func WithTransactionRetry(ctx context.Context, pool *pgxpool.Pool, maxRetries int, fn TransactionFunc) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = WithTransaction(ctx, pool, fn); err == nil {
			return nil
		}
		if !isSerializationFailure(err) || attempt == maxRetries {
			return err
		}
		logger.Warn("Transaction failed due to serialization error, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
	}
	return err
}
