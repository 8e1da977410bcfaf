package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZertGraf/observ/internal/domain"
	"github.com/ZertGraf/observ/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is what the stores need from a connection: *pgxpool.Pool in
// production, a pgx.Tx when a store runs inside another store's
// transaction.
type DB interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// withTx executes fn within a transaction, committing on success and
// rolling back on error.
func withTx(ctx context.Context, db DB, log *logger.Logger, fn func(pgx.Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error("failed to rollback transaction",
					"error", rbErr,
					"original_error", err,
				)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// mapConstraintError translates membership and ownership constraint
// violations into domain errors.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		if pgErr.ConstraintName == "pk_project_members" {
			return domain.ErrAlreadyMember
		}
	case pgForeignKeyViolation:
		switch pgErr.ConstraintName {
		case "fk_project_members_user", "fk_projects_owner":
			return domain.ErrUserNotFound
		case "fk_project_members_project":
			return domain.ErrProjectNotFound
		}
	}

	return err
}
