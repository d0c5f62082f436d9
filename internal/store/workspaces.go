package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/core"
)

const workspaceColumns = `id, user_id, name, description, type, config, status,
	is_default, current_project_id, container_name, container_id, volume_name,
	created_at, updated_at`

func scanWorkspace(row pgx.Row) (core.Workspace, error) {
	var (
		ws        core.Workspace
		configRaw []byte
	)
	err := row.Scan(&ws.ID, &ws.UserID, &ws.Name, &ws.Description, &ws.Type,
		&configRaw, &ws.Status, &ws.IsDefault, &ws.CurrentProjectID,
		&ws.ContainerName, &ws.ContainerID, &ws.VolumeName,
		&ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Workspace{}, core.NewAppError(core.ErrNotFound, "workspace not found")
		}
		return core.Workspace{}, err
	}
	if err := json.Unmarshal(configRaw, &ws.Config); err != nil {
		return core.Workspace{}, fmt.Errorf("decode workspace config: %w", err)
	}
	return ws, nil
}

func collectWorkspaces(rows pgx.Rows) ([]core.Workspace, error) {
	defer rows.Close()
	var out []core.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

type CreateWorkspaceParams struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Type        core.WorkspaceType
	Config      core.WorkspaceConfig
	IsDefault   bool
}

func (q *Queries) CreateWorkspace(ctx context.Context, arg CreateWorkspaceParams) (core.Workspace, error) {
	configRaw, err := json.Marshal(arg.Config)
	if err != nil {
		return core.Workspace{}, fmt.Errorf("encode workspace config: %w", err)
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO workspaces (id, user_id, name, description, type, config, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+workspaceColumns,
		arg.ID, arg.UserID, arg.Name, arg.Description, arg.Type, configRaw, arg.IsDefault)
	return scanWorkspace(row)
}

func (q *Queries) GetWorkspace(ctx context.Context, id string) (core.Workspace, error) {
	row := q.db.QueryRow(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id)
	return scanWorkspace(row)
}

func (q *Queries) ListWorkspacesByUser(ctx context.Context, userID string) ([]core.Workspace, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+workspaceColumns+` FROM workspaces
		WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	return collectWorkspaces(rows)
}

func (q *Queries) ListWorkspacesByType(ctx context.Context, userID string, t core.WorkspaceType) ([]core.Workspace, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+workspaceColumns+` FROM workspaces
		WHERE user_id = $1 AND type = $2 ORDER BY created_at`, userID, t)
	if err != nil {
		return nil, err
	}
	return collectWorkspaces(rows)
}

func (q *Queries) ListWorkspacesByStatus(ctx context.Context, status core.WorkspaceStatus) ([]core.Workspace, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+workspaceColumns+` FROM workspaces
		WHERE status = $1 ORDER BY created_at`, status)
	if err != nil {
		return nil, err
	}
	return collectWorkspaces(rows)
}

// ListRunningSince returns workspaces marked running whose last update is
// older than cutoff. Used by the idle sweep.
func (q *Queries) ListRunningSince(ctx context.Context, cutoff time.Time) ([]core.Workspace, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+workspaceColumns+` FROM workspaces
		WHERE status = $1 AND updated_at < $2 ORDER BY updated_at`,
		core.WorkspaceRunning, cutoff)
	if err != nil {
		return nil, err
	}
	return collectWorkspaces(rows)
}

// ListContainerNames returns every non-empty container_name in the
// registry. The orphan sweep diffs the engine's labeled containers
// against this set.
func (q *Queries) ListContainerNames(ctx context.Context) (map[string]bool, error) {
	rows, err := q.db.Query(ctx, `SELECT container_name FROM workspaces WHERE container_name <> ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := make(map[string]bool)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names[n] = true
	}
	return names, rows.Err()
}

// ListVolumeNames returns every non-empty volume_name in the registry,
// plus every explicitly preserved one.
func (q *Queries) ListVolumeNames(ctx context.Context) (map[string]bool, error) {
	rows, err := q.db.Query(ctx, `
		SELECT volume_name FROM workspaces WHERE volume_name <> ''
		UNION
		SELECT volume_name FROM preserved_volumes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := make(map[string]bool)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names[n] = true
	}
	return names, rows.Err()
}

// PreserveVolume pins a volume name so ListVolumeNames keeps reporting it
// after its workspace row is gone. Preserving twice is a no-op.
func (q *Queries) PreserveVolume(ctx context.Context, volumeName string) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO preserved_volumes (volume_name) VALUES ($1)
		ON CONFLICT (volume_name) DO NOTHING`, volumeName)
	return err
}

type UpdateWorkspaceParams struct {
	ID          string
	Name        *string
	Description *string
	Status      *core.WorkspaceStatus
}

// UpdateWorkspace merges the non-nil fields into the row. The default flag
// and current project travel through their own dedicated operations.
func (q *Queries) UpdateWorkspace(ctx context.Context, arg UpdateWorkspaceParams) (core.Workspace, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE workspaces SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			status = COALESCE($4, status),
			updated_at = now()
		WHERE id = $1
		RETURNING `+workspaceColumns,
		arg.ID, arg.Name, arg.Description, arg.Status)
	return scanWorkspace(row)
}

func (q *Queries) UpdateWorkspaceStatus(ctx context.Context, id string, status core.WorkspaceStatus) error {
	_, err := q.db.Exec(ctx, `
		UPDATE workspaces SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	return err
}

// TouchWorkspace refreshes updated_at without changing anything else, used
// to mark activity so the idle sweep leaves the workspace alone.
func (q *Queries) TouchWorkspace(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, `UPDATE workspaces SET updated_at = now() WHERE id = $1`, id)
	return err
}

type SetProvisionedParams struct {
	ID            string
	ContainerName string
	ContainerID   string
	VolumeName    string
	Status        core.WorkspaceStatus
}

// SetProvisioned records the engine handles after the first start.
func (q *Queries) SetProvisioned(ctx context.Context, arg SetProvisionedParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE workspaces SET container_name = $2, container_id = $3,
			volume_name = $4, status = $5, updated_at = now()
		WHERE id = $1`,
		arg.ID, arg.ContainerName, arg.ContainerID, arg.VolumeName, arg.Status)
	return err
}

// ClearContainer drops the container handles but keeps the volume, used
// when the container is removed and will be recreated on next start.
func (q *Queries) ClearContainer(ctx context.Context, id string, status core.WorkspaceStatus) error {
	_, err := q.db.Exec(ctx, `
		UPDATE workspaces SET container_name = '', container_id = '',
			status = $2, updated_at = now()
		WHERE id = $1`, id, status)
	return err
}

// ClearDefault unsets the user's default flag. Paired with MarkDefault
// inside one transaction; the partial unique index in the schema rejects
// any interleaving that would produce two defaults.
func (q *Queries) ClearDefault(ctx context.Context, userID string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE workspaces SET is_default = false, updated_at = now()
		WHERE user_id = $1 AND is_default`, userID)
	return err
}

func (q *Queries) MarkDefault(ctx context.Context, id string) (core.Workspace, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE workspaces SET is_default = true, updated_at = now()
		WHERE id = $1
		RETURNING `+workspaceColumns, id)
	return scanWorkspace(row)
}

// PromoteOldest flags the user's oldest workspace as default and returns
// it. Returns NotFound when the user has no workspaces left.
func (q *Queries) PromoteOldest(ctx context.Context, userID string) (core.Workspace, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE workspaces SET is_default = true, updated_at = now()
		WHERE id = (
			SELECT id FROM workspaces WHERE user_id = $1
			ORDER BY created_at LIMIT 1
		)
		RETURNING `+workspaceColumns, userID)
	return scanWorkspace(row)
}

func (q *Queries) SetCurrentProject(ctx context.Context, id string, projectID *string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE workspaces SET current_project_id = $2, updated_at = now()
		WHERE id = $1`, id, projectID)
	return err
}

func (q *Queries) DeleteWorkspace(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NewAppError(core.ErrNotFound, "workspace not found")
	}
	return nil
}

func (q *Queries) CountWorkspacesByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM workspaces WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}
