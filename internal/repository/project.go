package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZertGraf/observ/internal/domain"
	"github.com/ZertGraf/observ/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
)

const projectColumns = `id, name, owner_id, active, repos`

type ProjectRepo struct {
	db     DB
	logger *logger.Logger
}

func NewProjectRepo(db DB, logger *logger.Logger) *ProjectRepo {
	return &ProjectRepo{
		db:     db,
		logger: logger.Component("repository/project"),
	}
}

func (r *ProjectRepo) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	project, err := scanProject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	return project, nil
}

func (r *ProjectRepo) FindByName(ctx context.Context, pattern string) (*domain.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE name LIKE $1
		ORDER BY id
		LIMIT 1
	`

	project, err := scanProject(r.db.QueryRow(ctx, query, pattern))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("find project by name: %w", err)
	}

	return project, nil
}

// List matches the search term as a wildcard-wrapped LIKE pattern. The
// term itself is not escaped, so % and _ keep their pattern meaning.
func (r *ProjectRepo) List(ctx context.Context, search string) ([]*domain.Project, error) {
	var (
		rows pgx.Rows
		err  error
	)

	if search != "" {
		rows, err = r.db.Query(ctx, `
			SELECT `+projectColumns+`
			FROM projects
			WHERE name LIKE '%' || $1 || '%'
			ORDER BY id
		`, search)
	} else {
		rows, err = r.db.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	}
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := []*domain.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return projects, nil
}

func (r *ProjectRepo) CreateWithOwner(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	created := *project

	err := withTx(ctx, r.db, r.logger, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO projects (name, owner_id, active, repos)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, project.Name, project.OwnerID, project.Active, domain.EncodeRepos(project.Repos)).Scan(&created.ID)
		if err != nil {
			return fmt.Errorf("insert project: %w", mapConstraintError(err))
		}

		if err := r.membersIn(tx).Add(ctx, created.ID, project.OwnerID); err != nil {
			return fmt.Errorf("join owner: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *ProjectRepo) Update(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	query := `
		UPDATE projects
		SET name = $1, owner_id = $2, active = $3, repos = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING ` + projectColumns

	updated, err := scanProject(r.db.QueryRow(ctx, query,
		project.Name,
		project.OwnerID,
		project.Active,
		domain.EncodeRepos(project.Repos),
		project.ID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("update project: %w", mapConstraintError(err))
	}

	return updated, nil
}

func (r *ProjectRepo) DeleteWithMembers(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, r.logger, func(tx pgx.Tx) error {
		if err := r.membersIn(tx).RemoveAll(ctx, id); err != nil {
			return err
		}

		result, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}

		if result.RowsAffected() == 0 {
			return domain.ErrProjectNotFound
		}

		return nil
	})
}

// membersIn returns a membership store bound to tx.
func (r *ProjectRepo) membersIn(tx pgx.Tx) *MembershipRepo {
	return &MembershipRepo{db: tx, logger: r.logger}
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		project domain.Project
		repos   string
	)

	if err := row.Scan(&project.ID, &project.Name, &project.OwnerID, &project.Active, &repos); err != nil {
		return nil, err
	}

	decoded, err := domain.DecodeRepos(repos)
	if err != nil {
		return nil, fmt.Errorf("decode repos of project %d: %w", project.ID, err)
	}
	project.Repos = decoded

	return &project, nil
}
