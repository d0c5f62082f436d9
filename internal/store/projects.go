package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/core"
)

const projectColumns = `id, user_id, name, workspace_id, workspace_type, created_at, updated_at`

func scanProject(row pgx.Row) (core.Project, error) {
	var p core.Project
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.WorkspaceID, &p.WorkspaceType,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Project{}, core.NewAppError(core.ErrNotFound, "project not found")
		}
		return core.Project{}, err
	}
	return p, nil
}

func collectProjects(rows pgx.Rows) ([]core.Project, error) {
	defer rows.Close()
	var out []core.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type CreateProjectParams struct {
	ID     string
	UserID string
	Name   string
}

func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (core.Project, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO projects (id, user_id, name)
		VALUES ($1, $2, $3)
		RETURNING `+projectColumns,
		arg.ID, arg.UserID, arg.Name)
	return scanProject(row)
}

func (q *Queries) GetProject(ctx context.Context, id string) (core.Project, error) {
	row := q.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

// AssignProject binds a project to a workspace and pins its workspace
// type. Ownership and type checks happen in the binder before this runs.
func (q *Queries) AssignProject(ctx context.Context, projectID, workspaceID string, t core.WorkspaceType) (core.Project, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE projects SET workspace_id = $2, workspace_type = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+projectColumns,
		projectID, workspaceID, t)
	return scanProject(row)
}

func (q *Queries) UnassignProject(ctx context.Context, projectID string) (core.Project, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE projects SET workspace_id = NULL, workspace_type = NULL, updated_at = now()
		WHERE id = $1
		RETURNING `+projectColumns, projectID)
	return scanProject(row)
}

// UnassignProjectsByWorkspace clears both binding columns for every
// project bound to the workspace. Runs in the workspace delete
// transaction; the FK's ON DELETE SET NULL would leave workspace_type
// behind otherwise.
func (q *Queries) UnassignProjectsByWorkspace(ctx context.Context, workspaceID string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE projects SET workspace_id = NULL, workspace_type = NULL, updated_at = now()
		WHERE workspace_id = $1`, workspaceID)
	return err
}

func (q *Queries) ListProjectsByWorkspace(ctx context.Context, workspaceID string) ([]core.Project, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE workspace_id = $1 ORDER BY created_at`, workspaceID)
	if err != nil {
		return nil, err
	}
	return collectProjects(rows)
}

func (q *Queries) ListProjectsByUser(ctx context.Context, userID string) ([]core.Project, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	return collectProjects(rows)
}

// ListCompatibleProjects returns the user's projects whose workspace type
// is unset or equals t. Unset is compatible with every type.
func (q *Queries) ListCompatibleProjects(ctx context.Context, userID string, t core.WorkspaceType) ([]core.Project, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE user_id = $1 AND (workspace_type IS NULL OR workspace_type = $2)
		ORDER BY created_at`, userID, t)
	if err != nil {
		return nil, err
	}
	return collectProjects(rows)
}

func (q *Queries) ListUnassignedProjects(ctx context.Context, userID string) ([]core.Project, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE user_id = $1 AND workspace_id IS NULL ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	return collectProjects(rows)
}

func (q *Queries) CountProjectsByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM projects WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

func (q *Queries) CountProjectsByWorkspace(ctx context.Context, workspaceID string) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM projects WHERE workspace_id = $1`, workspaceID).Scan(&n)
	return n, err
}
