package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/ZertGraf/observ/internal/domain"
	"github.com/ZertGraf/observ/internal/pkg/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestProjectRepoCreateWithOwnerCommits(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProjectRepo(mock, logger.Discard())

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO projects`).
		WithArgs("observ", int64(3), true, `["https://github.com/acme/api"]`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(`INSERT INTO project_members`).
		WithArgs(int64(7), int64(3)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	created, err := repo.CreateWithOwner(context.Background(), &domain.Project{
		Name:    "observ",
		OwnerID: 3,
		Active:  true,
		Repos:   []string{"https://github.com/acme/api"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)
	assert.Equal(t, int64(3), created.OwnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepoCreateWithOwnerRollsBackOnMembershipFailure(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProjectRepo(mock, logger.Discard())

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO projects`).
		WithArgs("observ", int64(3), false, `[]`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(`INSERT INTO project_members`).
		WithArgs(int64(7), int64(3)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	created, err := repo.CreateWithOwner(context.Background(), &domain.Project{Name: "observ", OwnerID: 3})
	require.Error(t, err)
	assert.Nil(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepoCreateWithUnknownOwner(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProjectRepo(mock, logger.Discard())

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO projects`).
		WithArgs("observ", int64(99), false, `[]`).
		WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "fk_projects_owner"})
	mock.ExpectRollback()

	_, err := repo.CreateWithOwner(context.Background(), &domain.Project{Name: "observ", OwnerID: 99})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepoDeleteWithMembersRemovesMembersFirst(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProjectRepo(mock, logger.Discard())

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM project_members WHERE project_id`).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`DELETE FROM projects WHERE id`).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteWithMembers(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepoDeleteMissingProjectRollsBack(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProjectRepo(mock, logger.Discard())

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM project_members WHERE project_id`).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM projects WHERE id`).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := repo.DeleteWithMembers(context.Background(), 7)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepoGetByID(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProjectRepo(mock, logger.Discard())

	mock.ExpectQuery(`SELECT id, name, owner_id, active, repos FROM projects WHERE id`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "owner_id", "active", "repos"}).
			AddRow(int64(7), "observ", int64(3), true, `["github.com/acme/api","not-a-repo"]`))

	project, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"github.com/acme/api", "not-a-repo"}, project.Repos)

	mock.ExpectQuery(`SELECT id, name, owner_id, active, repos FROM projects WHERE id`).
		WithArgs(int64(8)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "owner_id", "active", "repos"}))

	_, err = repo.GetByID(context.Background(), 8)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
