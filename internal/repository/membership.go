package repository

import (
	"context"
	"fmt"

	"github.com/ZertGraf/observ/internal/domain"
	"github.com/ZertGraf/observ/internal/pkg/logger"
)

type MembershipRepo struct {
	db     DB
	logger *logger.Logger
}

func NewMembershipRepo(db DB, logger *logger.Logger) *MembershipRepo {
	return &MembershipRepo{
		db:     db,
		logger: logger.Component("repository/membership"),
	}
}

// Add relies on the primary key of project_members to reject duplicates.
func (r *MembershipRepo) Add(ctx context.Context, projectID, userID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)`,
		projectID, userID,
	)
	if err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert member: %w", err)
	}

	return nil
}

func (r *MembershipRepo) Remove(ctx context.Context, projectID, userID int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`,
		projectID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}

	return nil
}

// ListUsers returns the members in join order.
func (r *MembershipRepo) ListUsers(ctx context.Context, projectID int64) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.id, u.username, u.tier
		FROM project_members m
		INNER JOIN users u ON u.id = m.user_id
		WHERE m.project_id = $1
		ORDER BY m.joined_at, u.id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}

	return collectUsers(rows)
}

func (r *MembershipRepo) RemoveAll(ctx context.Context, projectID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM project_members WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("delete members: %w", err)
	}

	return nil
}
