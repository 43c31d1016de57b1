package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"atelier/api/internal/lifecycle"
)

const projectColumns = `id, owner_id, briefing_id, name, status, progress,
	is_contractual, started_at, completed_at, hold_expires_at, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (Project, error) {
	var item Project
	err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.BriefingID,
		&item.Name,
		&item.Status,
		&item.Progress,
		&item.IsContractual,
		&item.StartedAt,
		&item.CompletedAt,
		&item.HoldExpiresAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, projectID)
	item, err := scanProject(row)
	if err != nil {
		return Project{}, err
	}
	return item, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context, filter ProjectFilter) ([]Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE 1=1`
	args := []any{}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		query += fmt.Sprintf(" AND owner_id=$%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if filter.Query != "" {
		args = append(args, "%"+strings.ToLower(filter.Query)+"%")
		query += fmt.Sprintf(" AND LOWER(name) LIKE $%d", len(args))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !filter.Until.IsZero() {
		args = append(args, filter.Until)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := make([]Project, 0)
	for rows.Next() {
		item, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) ListMilestones(ctx context.Context, projectID string) ([]Milestone, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, position, completed, completed_at
		FROM milestones
		WHERE project_id=$1
		ORDER BY position
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer rows.Close()

	items := make([]Milestone, 0, 4)
	for rows.Next() {
		var item Milestone
		if err := rows.Scan(&item.ID, &item.ProjectID, &item.Name, &item.Position, &item.Completed, &item.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate milestones: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetMilestone(ctx context.Context, milestoneID string) (Milestone, error) {
	var item Milestone
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, position, completed, completed_at
		FROM milestones
		WHERE id=$1
	`, milestoneID).Scan(&item.ID, &item.ProjectID, &item.Name, &item.Position, &item.Completed, &item.CompletedAt)
	if err != nil {
		return Milestone{}, err
	}
	return item, nil
}

// UpdateProjectStatus moves a project between statuses, guarded on the
// expected current status. startedAt is only stamped while still unset, so
// re-activation after a pause does not move it. The caller decides which
// stamps apply to the transition.
func (s *PostgresStore) UpdateProjectStatus(ctx context.Context, projectID, from, to string, stampStarted, stampCompleted bool) error {
	set := `status=$3, updated_at=NOW()`
	if stampStarted {
		set += `, started_at=COALESCE(started_at, NOW())`
	}
	if stampCompleted {
		set += `, completed_at=NOW()`
	}
	result, err := s.db.ExecContext(ctx, `UPDATE projects SET `+set+` WHERE id=$1 AND status=$2`, projectID, from, to)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project status rows: %w", err)
	}
	if affected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// ToggleMilestone flips one milestone and recomputes the parent project's
// progress inside a single transaction. The project row is locked first so
// concurrent toggles on the same project serialize and each recomputation
// sees the other's write.
func (s *PostgresStore) ToggleMilestone(ctx context.Context, milestoneID string, completed bool) (Milestone, Project, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Milestone{}, Project{}, fmt.Errorf("begin toggle tx: %w", err)
	}

	var milestone Milestone
	err = tx.QueryRowContext(ctx, `
		SELECT id, project_id, name, position, completed, completed_at
		FROM milestones
		WHERE id=$1
	`, milestoneID).Scan(&milestone.ID, &milestone.ProjectID, &milestone.Name, &milestone.Position, &milestone.Completed, &milestone.CompletedAt)
	if err != nil {
		return Milestone{}, Project{}, rollbackOn(tx, err)
	}

	row := tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=$1 FOR UPDATE`, milestone.ProjectID)
	project, err := scanProject(row)
	if err != nil {
		return Milestone{}, Project{}, rollbackOn(tx, err)
	}

	var completedAt *time.Time
	if completed {
		now := time.Now()
		completedAt = &now
	}
	if err := execAffectingOne(ctx, tx, `
		UPDATE milestones SET completed=$2, completed_at=$3 WHERE id=$1
	`, milestoneID, completed, completedAt); err != nil {
		return Milestone{}, Project{}, rollbackOn(tx, fmt.Errorf("update milestone: %w", err))
	}

	var total, done int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE completed)
		FROM milestones
		WHERE project_id=$1
	`, milestone.ProjectID).Scan(&total, &done); err != nil {
		return Milestone{}, Project{}, rollbackOn(tx, fmt.Errorf("count milestones: %w", err))
	}

	progress := lifecycle.Progress(done, total)
	if err := execAffectingOne(ctx, tx, `
		UPDATE projects SET progress=$2, updated_at=NOW() WHERE id=$1
	`, milestone.ProjectID, progress); err != nil {
		return Milestone{}, Project{}, rollbackOn(tx, fmt.Errorf("update project progress: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return Milestone{}, Project{}, fmt.Errorf("commit toggle tx: %w", err)
	}

	milestone.Completed = completed
	milestone.CompletedAt = completedAt
	project.Progress = progress
	return milestone, project, nil
}
