package memory

import (
	"context"
	"testing"

	"github.com/ZertGraf/observ/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := New()
	s.PutUser(domain.User{ID: 1, Username: "alice", Tier: 0})
	s.PutUser(domain.User{ID: 2, Username: "bob", Tier: 1})
	return s
}

func TestCreateWithOwnerJoinsOwner(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	p, err := s.Projects().CreateWithOwner(ctx, &domain.Project{Name: "observ", OwnerID: 1, Repos: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)

	members, err := s.Memberships().ListUsers(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, int64(1), members[0].ID)
}

func TestCreateWithUnknownOwnerLeavesNothing(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	_, err := s.Projects().CreateWithOwner(ctx, &domain.Project{Name: "ghost", OwnerID: 99})
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	all, err := s.Projects().List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMembershipUniqueness(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	p, err := s.Projects().CreateWithOwner(ctx, &domain.Project{Name: "observ", OwnerID: 1})
	require.NoError(t, err)

	require.NoError(t, s.Memberships().Add(ctx, p.ID, 2))
	assert.ErrorIs(t, s.Memberships().Add(ctx, p.ID, 2), domain.ErrAlreadyMember)
	assert.ErrorIs(t, s.Memberships().Add(ctx, p.ID, 42), domain.ErrUserNotFound)

	require.NoError(t, s.Memberships().Remove(ctx, p.ID, 2))
	require.NoError(t, s.Memberships().Remove(ctx, p.ID, 2))
	assert.Equal(t, 1, s.MemberCount(p.ID))
}

func TestDeleteWithMembers(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	p, err := s.Projects().CreateWithOwner(ctx, &domain.Project{Name: "observ", OwnerID: 1})
	require.NoError(t, err)
	require.NoError(t, s.Memberships().Add(ctx, p.ID, 2))

	require.NoError(t, s.Projects().DeleteWithMembers(ctx, p.ID))
	assert.Zero(t, s.MemberCount(p.ID))

	_, err = s.Projects().GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	assert.ErrorIs(t, s.Projects().DeleteWithMembers(ctx, p.ID), domain.ErrProjectNotFound)
}

func TestRemoveAllKeepsOtherProjects(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	first, err := s.Projects().CreateWithOwner(ctx, &domain.Project{Name: "first", OwnerID: 1})
	require.NoError(t, err)
	second, err := s.Projects().CreateWithOwner(ctx, &domain.Project{Name: "second", OwnerID: 1})
	require.NoError(t, err)
	require.NoError(t, s.Memberships().Add(ctx, first.ID, 2))

	require.NoError(t, s.Memberships().RemoveAll(ctx, first.ID))

	assert.Zero(t, s.MemberCount(first.ID))
	assert.Equal(t, 1, s.MemberCount(second.ID))
	users, err := s.Memberships().ListUsers(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestListAndFindByNameUseLikeSemantics(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	for _, name := range []string{"Observ", "observ-web", "widgets", "obs_tool"} {
		_, err := s.Projects().CreateWithOwner(ctx, &domain.Project{Name: name, OwnerID: 1})
		require.NoError(t, err)
	}

	got, err := s.Projects().List(ctx, "obs")
	require.NoError(t, err)
	assert.Equal(t, []string{"observ-web", "obs_tool"}, names(got))

	got, err = s.Projects().List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, got, 4)

	p, err := s.Projects().FindByName(ctx, "widgets")
	require.NoError(t, err)
	assert.Equal(t, "widgets", p.Name)

	p, err = s.Projects().FindByName(ctx, "obs_t%")
	require.NoError(t, err)
	assert.Equal(t, "obs_tool", p.Name)

	_, err = s.Projects().FindByName(ctx, "widget")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestReturnedProjectsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	p, err := s.Projects().CreateWithOwner(ctx, &domain.Project{Name: "observ", OwnerID: 1, Repos: []string{"a"}})
	require.NoError(t, err)

	p.Repos[0] = "mutated"

	again, err := s.Projects().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.Repos)
}

func names(projects []*domain.Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.Name
	}
	return out
}
