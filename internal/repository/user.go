package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZertGraf/observ/internal/domain"
	"github.com/ZertGraf/observ/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
)

type UserRepo struct {
	db     DB
	logger *logger.Logger
}

func NewUserRepo(db DB, logger *logger.Logger) *UserRepo {
	return &UserRepo{
		db:     db,
		logger: logger.Component("repository/user"),
	}
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT id, username, tier
		FROM users
		WHERE id = $1
	`

	var user domain.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Tier,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *UserRepo) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT id, username, tier FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}

	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]*domain.User, error) {
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Tier); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return users, nil
}

// Upsert creates the user or updates the tier of an existing username.
func (r *UserRepo) Upsert(ctx context.Context, username string, tier int) (*domain.User, error) {
	query := `
		INSERT INTO users (username, tier)
		VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET tier = EXCLUDED.tier
		RETURNING id, username, tier
	`

	var user domain.User
	if err := r.db.QueryRow(ctx, query, username, tier).Scan(&user.ID, &user.Username, &user.Tier); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	r.logger.Info("user saved", "user_id", user.ID, "username", user.Username, "tier", user.Tier)
	return &user, nil
}
