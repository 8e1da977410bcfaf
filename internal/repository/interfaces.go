package repository

import (
	"context"

	"github.com/ZertGraf/observ/internal/domain"
)

// ProjectRepository persists projects.
type ProjectRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	// FindByName returns the first project whose name matches the LIKE pattern.
	FindByName(ctx context.Context, pattern string) (*domain.Project, error)
	// List returns projects whose name contains search; all projects when search is empty.
	List(ctx context.Context, search string) ([]*domain.Project, error)
	// CreateWithOwner inserts the project and joins its owner in one transaction.
	CreateWithOwner(ctx context.Context, project *domain.Project) (*domain.Project, error)
	Update(ctx context.Context, project *domain.Project) (*domain.Project, error)
	// DeleteWithMembers removes the project and all its membership relations in one transaction.
	DeleteWithMembers(ctx context.Context, id int64) error
}

// UserRepository reads users. Users are managed outside this service.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}

// MembershipRepository maintains the project/user relation.
type MembershipRepository interface {
	// Add fails with ErrAlreadyMember when the pair exists.
	Add(ctx context.Context, projectID, userID int64) error
	// Remove is a no-op for a missing pair.
	Remove(ctx context.Context, projectID, userID int64) error
	ListUsers(ctx context.Context, projectID int64) ([]*domain.User, error)
	RemoveAll(ctx context.Context, projectID int64) error
}
