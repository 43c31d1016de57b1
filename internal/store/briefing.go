package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"atelier/api/internal/lifecycle"
)

const briefingColumns = `id, owner_id, service_category, summary, goals, status,
	rejection_reason, is_contractual, project_id, submitted_at, reviewed_at,
	hold_expires_at, created_at, updated_at`

func scanBriefing(row interface{ Scan(...any) error }) (Briefing, error) {
	var item Briefing
	err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.ServiceCategory,
		&item.Summary,
		&item.Goals,
		&item.Status,
		&item.RejectionReason,
		&item.IsContractual,
		&item.ProjectID,
		&item.SubmittedAt,
		&item.ReviewedAt,
		&item.HoldExpiresAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

func (s *PostgresStore) InsertBriefing(ctx context.Context, item Briefing) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO briefings (id, owner_id, service_category, summary, goals, status, is_contractual, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, item.ID, item.OwnerID, item.ServiceCategory, item.Summary, item.Goals, item.Status, item.IsContractual, item.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert briefing: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBriefing(ctx context.Context, briefingID string) (Briefing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+briefingColumns+` FROM briefings WHERE id=$1`, briefingID)
	item, err := scanBriefing(row)
	if err != nil {
		return Briefing{}, err
	}
	return item, nil
}

func (s *PostgresStore) ListBriefings(ctx context.Context, filter BriefingFilter) ([]Briefing, error) {
	query := `SELECT ` + briefingColumns + ` FROM briefings WHERE 1=1`
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
		query += fmt.Sprintf(" AND (LOWER(summary) LIKE $%d OR LOWER(goals) LIKE $%d)", len(args), len(args))
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
		return nil, fmt.Errorf("list briefings: %w", err)
	}
	defer rows.Close()

	items := make([]Briefing, 0)
	for rows.Next() {
		item, err := scanBriefing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan briefing: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate briefings: %w", err)
	}
	return items, nil
}

// UpdateBriefingStatus moves a briefing between non-terminal statuses. The
// update is guarded on the expected current status so a concurrent writer
// loses with ErrStaleStatus instead of clobbering a newer state. Returning to
// DRAFT clears the submission timestamp; entering SUBMITTED stamps it.
func (s *PostgresStore) UpdateBriefingStatus(ctx context.Context, briefingID, from, to string) error {
	var query string
	switch to {
	case lifecycle.BriefingDraft:
		query = `UPDATE briefings SET status=$3, submitted_at=NULL, updated_at=NOW() WHERE id=$1 AND status=$2`
	case lifecycle.BriefingSubmitted:
		query = `UPDATE briefings SET status=$3, submitted_at=COALESCE(submitted_at, NOW()), updated_at=NOW() WHERE id=$1 AND status=$2`
	default:
		query = `UPDATE briefings SET status=$3, updated_at=NOW() WHERE id=$1 AND status=$2`
	}
	result, err := s.db.ExecContext(ctx, query, briefingID, from, to)
	if err != nil {
		return fmt.Errorf("update briefing status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update briefing status rows: %w", err)
	}
	if affected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// ApproveBriefing performs the approval transaction: the briefing moves to
// APPROVED, the project row and its four milestones are created, and either
// all writes land or none do. Preconditions are re-checked against the locked
// row so concurrent approvals serialize on the briefing.
func (s *PostgresStore) ApproveBriefing(ctx context.Context, briefingID string, project Project, milestones []Milestone) (Briefing, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Briefing{}, fmt.Errorf("begin approve tx: %w", err)
	}

	row := tx.QueryRowContext(ctx, `SELECT `+briefingColumns+` FROM briefings WHERE id=$1 FOR UPDATE`, briefingID)
	briefing, err := scanBriefing(row)
	if err != nil {
		return Briefing{}, rollbackOn(tx, err)
	}
	if briefing.ProjectID != nil {
		return Briefing{}, rollbackOn(tx, ErrAlreadyLinked)
	}
	if !lifecycle.BriefingReviewable(briefing.Status) {
		return Briefing{}, rollbackOn(tx, ErrStaleStatus)
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO projects (id, owner_id, briefing_id, name, status, progress, is_contractual)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
	`, project.ID, briefing.OwnerID, briefingID, project.Name, project.Status, briefing.IsContractual); err != nil {
		return Briefing{}, rollbackOn(tx, fmt.Errorf("insert project: %w", err))
	}

	for _, milestone := range milestones {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO milestones (id, project_id, name, position, completed)
			VALUES ($1, $2, $3, $4, FALSE)
		`, milestone.ID, project.ID, milestone.Name, milestone.Position); err != nil {
			return Briefing{}, rollbackOn(tx, fmt.Errorf("insert milestone %d: %w", milestone.Position, err))
		}
	}

	if err := execAffectingOne(ctx, tx, `
		UPDATE briefings SET status=$2, project_id=$3, reviewed_at=$4, updated_at=NOW()
		WHERE id=$1
	`, briefingID, lifecycle.BriefingApproved, project.ID, now); err != nil {
		return Briefing{}, rollbackOn(tx, fmt.Errorf("mark briefing approved: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return Briefing{}, fmt.Errorf("commit approve tx: %w", err)
	}

	briefing.Status = lifecycle.BriefingApproved
	briefing.ProjectID = &project.ID
	briefing.ReviewedAt = &now
	return briefing, nil
}

// RejectBriefing is a single-record update guarded on the reviewable statuses
// and the absence of a linked project.
func (s *PostgresStore) RejectBriefing(ctx context.Context, briefingID, reason string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE briefings SET status=$3, rejection_reason=$2, reviewed_at=NOW(), updated_at=NOW()
		WHERE id=$1
			AND status IN ($4, $5)
			AND project_id IS NULL
	`, briefingID, reason, lifecycle.BriefingRejected, lifecycle.BriefingSubmitted, lifecycle.BriefingUnderReview)
	if err != nil {
		return fmt.Errorf("reject briefing: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reject briefing rows: %w", err)
	}
	if affected == 0 {
		// Disambiguate for the caller: gone, linked, or stale status.
		current, lookupErr := s.GetBriefing(ctx, briefingID)
		if lookupErr != nil {
			if errors.Is(lookupErr, sql.ErrNoRows) {
				return sql.ErrNoRows
			}
			return fmt.Errorf("reject briefing recheck: %w", lookupErr)
		}
		if current.ProjectID != nil {
			return ErrAlreadyLinked
		}
		return ErrStaleStatus
	}
	return nil
}
