// Package memory is an in-process implementation of the repository
// interfaces, used for local development and tests.
package memory

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ZertGraf/observ/internal/domain"
)

type membership struct {
	projectID int64
	userID    int64
}

// Store keeps projects, users and memberships in memory. Every
// multi-record operation runs under one lock so it is atomic.
type Store struct {
	mu            sync.RWMutex
	nextProjectID int64
	projects      map[int64]domain.Project
	users         map[int64]domain.User
	members       []membership
}

func New() *Store {
	return &Store{
		nextProjectID: 1,
		projects:      make(map[int64]domain.Project),
		users:         make(map[int64]domain.User),
	}
}

// PutUser inserts or replaces a user.
func (s *Store) PutUser(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// Projects returns a view of the store as a ProjectRepository.
func (s *Store) Projects() *ProjectRepo { return &ProjectRepo{s} }

// Users returns a view of the store as a UserRepository.
func (s *Store) Users() *UserRepo { return &UserRepo{s} }

// Memberships returns a view of the store as a MembershipRepository.
func (s *Store) Memberships() *MembershipRepo { return &MembershipRepo{s} }

type ProjectRepo struct{ s *Store }

func (r *ProjectRepo) GetByID(_ context.Context, id int64) (*domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return cloneProject(p), nil
}

func (r *ProjectRepo) FindByName(_ context.Context, pattern string) (*domain.Project, error) {
	re := likePattern(pattern)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.sortedProjects() {
		if re.MatchString(p.Name) {
			return cloneProject(p), nil
		}
	}
	return nil, domain.ErrProjectNotFound
}

func (r *ProjectRepo) List(_ context.Context, search string) ([]*domain.Project, error) {
	re := likePattern("%" + search + "%")

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	projects := []*domain.Project{}
	for _, p := range r.s.sortedProjects() {
		if re.MatchString(p.Name) {
			projects = append(projects, cloneProject(p))
		}
	}
	return projects, nil
}

func (r *ProjectRepo) CreateWithOwner(_ context.Context, project *domain.Project) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[project.OwnerID]; !ok {
		return nil, domain.ErrUserNotFound
	}

	created := *cloneProject(*project)
	created.ID = r.s.nextProjectID
	r.s.nextProjectID++

	r.s.projects[created.ID] = created
	r.s.members = append(r.s.members, membership{projectID: created.ID, userID: created.OwnerID})

	return cloneProject(created), nil
}

func (r *ProjectRepo) Update(_ context.Context, project *domain.Project) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[project.ID]; !ok {
		return nil, domain.ErrProjectNotFound
	}
	if _, ok := r.s.users[project.OwnerID]; !ok {
		return nil, domain.ErrUserNotFound
	}

	updated := *cloneProject(*project)
	r.s.projects[project.ID] = updated
	return cloneProject(updated), nil
}

func (r *ProjectRepo) DeleteWithMembers(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[id]; !ok {
		return domain.ErrProjectNotFound
	}

	r.s.removeMembers(id)
	delete(r.s.projects, id)
	return nil
}

type UserRepo struct{ s *Store }

func (r *UserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

type MembershipRepo struct{ s *Store }

func (r *MembershipRepo) Add(_ context.Context, projectID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[projectID]; !ok {
		return domain.ErrProjectNotFound
	}
	if _, ok := r.s.users[userID]; !ok {
		return domain.ErrUserNotFound
	}
	for _, m := range r.s.members {
		if m.projectID == projectID && m.userID == userID {
			return domain.ErrAlreadyMember
		}
	}

	r.s.members = append(r.s.members, membership{projectID: projectID, userID: userID})
	return nil
}

func (r *MembershipRepo) Remove(_ context.Context, projectID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := r.s.members[:0]
	for _, m := range r.s.members {
		if m.projectID == projectID && m.userID == userID {
			continue
		}
		kept = append(kept, m)
	}
	r.s.members = kept
	return nil
}

func (r *MembershipRepo) ListUsers(_ context.Context, projectID int64) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := []*domain.User{}
	for _, m := range r.s.members {
		if m.projectID != projectID {
			continue
		}
		if u, ok := r.s.users[m.userID]; ok {
			users = append(users, &u)
		}
	}
	return users, nil
}

func (r *MembershipRepo) RemoveAll(_ context.Context, projectID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.removeMembers(projectID)
	return nil
}

// MemberCount reports how many relations reference the project.
func (s *Store) MemberCount(projectID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, m := range s.members {
		if m.projectID == projectID {
			n++
		}
	}
	return n
}

func (s *Store) removeMembers(projectID int64) {
	kept := s.members[:0]
	for _, m := range s.members {
		if m.projectID != projectID {
			kept = append(kept, m)
		}
	}
	s.members = kept
}

func (s *Store) sortedProjects() []domain.Project {
	projects := make([]domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects
}

func cloneProject(p domain.Project) *domain.Project {
	p.Repos = append([]string{}, p.Repos...)
	return &p
}

// likePattern compiles a SQL LIKE pattern. Matching is case-sensitive.
func likePattern(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`^`)
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(`.*`)
		case '_':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`$`)
	return regexp.MustCompile("(?s)" + b.String())
}
