package service

import (
	"context"
	"fmt"

	"github.com/ZertGraf/observ/internal/domain"
	"github.com/ZertGraf/observ/internal/pkg/logger"
	"github.com/ZertGraf/observ/internal/policy"
	"github.com/ZertGraf/observ/internal/repository"
	. "github.com/go-ozzo/ozzo-validation"
)

// CommitAggregator produces per-repository commit history. ok is false
// when the repository list holds nothing to aggregate.
type CommitAggregator interface {
	Aggregate(ctx context.Context, repos []string) (records []domain.CommitRecord, ok bool, err error)
}

type ProjectService struct {
	projects   repository.ProjectRepository
	users      repository.UserRepository
	members    repository.MembershipRepository
	aggregator CommitAggregator
	logger     *logger.Logger
}

func NewProjectService(
	projects repository.ProjectRepository,
	users repository.UserRepository,
	members repository.MembershipRepository,
	aggregator CommitAggregator,
	logger *logger.Logger,
) *ProjectService {
	return &ProjectService{
		projects:   projects,
		users:      users,
		members:    members,
		aggregator: aggregator,
		logger:     logger.Component("service/project"),
	}
}

// Get returns the project with its members.
func (s *ProjectService) Get(ctx context.Context, id int64) (*domain.ProjectDetail, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	members, err := s.members.ListUsers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return &domain.ProjectDetail{Project: project, Members: members}, nil
}

// FindByName resolves a project by its name, treated as a LIKE pattern.
func (s *ProjectService) FindByName(ctx context.Context, name string) (*domain.Project, error) {
	project, err := s.projects.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}
	return project, nil
}

// List returns every project whose name contains search, or all projects
// when search is empty.
func (s *ProjectService) List(ctx context.Context, search string) ([]*domain.Project, error) {
	projects, err := s.projects.List(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	s.logger.Debug("projects listed",
		"search", search,
		"count", len(projects),
	)

	return projects, nil
}

// Create stores a new project owned by actor and joins actor to it. The
// submitted owner is ignored.
func (s *ProjectService) Create(ctx context.Context, actor *domain.User, draft *domain.ProjectDraft) (*domain.Project, error) {
	if err := policy.Authorize(actor, nil, policy.OpCreate); err != nil {
		return nil, err
	}

	project, err := s.fromDraft(draft)
	if err != nil {
		return nil, err
	}
	project.OwnerID = actor.ID

	created, err := s.projects.CreateWithOwner(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.logger.Info("project created",
		"project_id", created.ID,
		"name", created.Name,
		"owner_id", created.OwnerID,
		"repos_count", len(created.Repos),
	)

	return created, nil
}

// Edit replaces name, active flag and repos of an existing project. The
// owner is taken from the draft when it names one, otherwise kept.
func (s *ProjectService) Edit(ctx context.Context, actor *domain.User, id int64, draft *domain.ProjectDraft) (*domain.Project, error) {
	current, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	if err := policy.Authorize(actor, current, policy.OpEdit); err != nil {
		return nil, err
	}

	project, err := s.fromDraft(draft)
	if err != nil {
		return nil, err
	}
	project.ID = id
	if project.OwnerID == 0 {
		project.OwnerID = current.OwnerID
	}

	updated, err := s.projects.Update(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	s.logger.Info("project updated",
		"project_id", id,
		"actor_id", actor.ID,
		"owner_id", updated.OwnerID,
		"active", updated.Active,
		"repos_count", len(updated.Repos),
	)

	return updated, nil
}

// Delete removes the project together with all of its memberships.
func (s *ProjectService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}

	if err := policy.Authorize(actor, project, policy.OpDelete); err != nil {
		return err
	}

	if err := s.projects.DeleteWithMembers(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	s.logger.Info("project deleted",
		"project_id", id,
		"actor_id", actor.ID,
	)

	return nil
}

// Commits aggregates commit history for the project's repositories.
func (s *ProjectService) Commits(ctx context.Context, id int64) ([]domain.CommitRecord, bool, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("get project: %w", err)
	}

	records, ok, err := s.aggregator.Aggregate(ctx, project.Repos)
	if err != nil {
		return nil, false, fmt.Errorf("aggregate commits of project %d: %w", id, err)
	}

	s.logger.Info("project commits aggregated",
		"project_id", id,
		"aggregated", ok,
		"records_count", len(records),
	)

	return records, ok, nil
}

func (s *ProjectService) fromDraft(draft *domain.ProjectDraft) (*domain.Project, error) {
	if err := s.validateDraft(draft); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	repos, err := domain.NormalizeRepos(draft.Repos)
	if err != nil {
		return nil, err
	}

	return &domain.Project{
		Name:    draft.Name,
		OwnerID: draft.OwnerID,
		Active:  draft.Active,
		Repos:   repos,
	}, nil
}

func (s *ProjectService) validateDraft(draft *domain.ProjectDraft) error {
	if draft == nil {
		return fmt.Errorf("project is nil")
	}

	return ValidateStruct(draft,
		Field(&draft.Name,
			Required,
			Length(1, 255),
		),
		Field(&draft.OwnerID,
			Min(int64(0)),
		),
	)
}
