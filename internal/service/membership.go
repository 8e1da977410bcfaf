package service

import (
	"context"
	"fmt"

	"github.com/ZertGraf/observ/internal/domain"
	"github.com/ZertGraf/observ/internal/policy"
)

// Members lists the users joined to a project.
func (s *ProjectService) Members(ctx context.Context, projectID int64) ([]*domain.User, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	users, err := s.members.ListUsers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return users, nil
}

// MemberCandidates lists the users that could still be added to a project.
// It requires the same permission as adding a member.
func (s *ProjectService) MemberCandidates(ctx context.Context, actor *domain.User, projectID int64) ([]*domain.User, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	if err := policy.Authorize(actor, project, policy.OpAddMember); err != nil {
		return nil, err
	}

	members, err := s.members.ListUsers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	all, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	joined := make(map[int64]bool, len(members))
	for _, m := range members {
		joined[m.ID] = true
	}

	candidates := make([]*domain.User, 0, len(all))
	for _, u := range all {
		if !joined[u.ID] {
			candidates = append(candidates, u)
		}
	}

	return candidates, nil
}

// AddMember joins userID to the project on behalf of actor.
func (s *ProjectService) AddMember(ctx context.Context, actor *domain.User, projectID, userID int64) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}

	if err := policy.Authorize(actor, project, policy.OpAddMember); err != nil {
		return err
	}

	if err := s.members.Add(ctx, projectID, userID); err != nil {
		return fmt.Errorf("add member: %w", err)
	}

	s.logger.Info("member added",
		"project_id", projectID,
		"user_id", userID,
		"actor_id", actor.ID,
	)

	return nil
}

// RemoveMember drops userID from the project. Removing a non-member is
// not an error.
func (s *ProjectService) RemoveMember(ctx context.Context, actor *domain.User, projectID, userID int64) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}

	if err := policy.Authorize(actor, project, policy.OpRemoveMember); err != nil {
		return err
	}

	if err := s.members.Remove(ctx, projectID, userID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	s.logger.Info("member removed",
		"project_id", projectID,
		"user_id", userID,
		"actor_id", actor.ID,
	)

	return nil
}

// Join adds actor to an active project.
func (s *ProjectService) Join(ctx context.Context, actor *domain.User, projectID int64) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}

	if err := policy.Authorize(actor, project, policy.OpJoin); err != nil {
		return err
	}

	if err := s.members.Add(ctx, projectID, actor.ID); err != nil {
		return fmt.Errorf("join project: %w", err)
	}

	s.logger.Info("user joined project",
		"project_id", projectID,
		"user_id", actor.ID,
	)

	return nil
}
