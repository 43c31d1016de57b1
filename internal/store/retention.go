package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// inactivityExpr is the reference point for inactivity age: last login, or
// account creation when the user never logged in.
const inactivityExpr = `COALESCE(last_login_at, created_at)`

// ListWarnCandidates returns verified client accounts, not under legal hold
// and not yet warned, whose last activity falls inside (oldest, newest].
func (s *PostgresStore) ListWarnCandidates(ctx context.Context, oldest, newest time.Time) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE role='client'
			AND NOT legal_hold
			AND is_email_verified
			AND retention_warned_at IS NULL
			AND `+inactivityExpr+` <= $2
			AND `+inactivityExpr+` > $1
		ORDER BY `+inactivityExpr+`
	`, oldest, newest)
	if err != nil {
		return nil, fmt.Errorf("list warn candidates: %w", err)
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan warn candidate: %w", err)
		}
		items = append(items, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate warn candidates: %w", err)
	}
	return items, nil
}

// ListPurgeCandidates returns verified client accounts, not under legal
// hold, whose last activity is at or before the cutoff. The warning marker is
// deliberately ignored: deletion is due regardless of whether the warning
// ever reached the user.
func (s *PostgresStore) ListPurgeCandidates(ctx context.Context, cutoff time.Time) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE role='client'
			AND NOT legal_hold
			AND is_email_verified
			AND `+inactivityExpr+` <= $1
		ORDER BY `+inactivityExpr+`
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list purge candidates: %w", err)
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purge candidate: %w", err)
		}
		items = append(items, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purge candidates: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) MarkRetentionWarned(ctx context.Context, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET retention_warned_at=$2, updated_at=NOW() WHERE id=$1
	`, userID, at)
	if err != nil {
		return fmt.Errorf("mark retention warned: %w", err)
	}
	return nil
}

// PurgeUserData removes one inactive user and their personal data in a
// single transaction: an audit entry is written first, non-contractual
// briefings and projects are hard-deleted, contractual ones survive with the
// owner reference cleared and a statutory hold horizon stamped, and finally
// the user row goes (password resets cascade). The owner detachment is a
// single UPDATE; no intermediate sentinel value is needed.
func (s *PostgresStore) PurgeUserData(ctx context.Context, userID string, holdUntil time.Time, audit AuditEvent) (PurgeResult, error) {
	var result PurgeResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin purge tx: %w", err)
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1 FOR UPDATE)`, userID).Scan(&exists); err != nil {
		return result, rollbackOn(tx, fmt.Errorf("lock user: %w", err))
	}
	if !exists {
		return result, rollbackOn(tx, sql.ErrNoRows)
	}

	if err := insertAuditEventTx(ctx, tx, audit); err != nil {
		return result, rollbackOn(tx, fmt.Errorf("insert audit event: %w", err))
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM milestones
		WHERE project_id IN (SELECT id FROM projects WHERE owner_id=$1 AND NOT is_contractual)
	`, userID); err != nil {
		return result, rollbackOn(tx, fmt.Errorf("delete milestones: %w", err))
	}

	deleted, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE owner_id=$1 AND NOT is_contractual`, userID)
	if err != nil {
		return result, rollbackOn(tx, fmt.Errorf("delete projects: %w", err))
	}
	count, _ := deleted.RowsAffected()
	result.ProjectsDeleted = int(count)

	deleted, err = tx.ExecContext(ctx, `DELETE FROM briefings WHERE owner_id=$1 AND NOT is_contractual`, userID)
	if err != nil {
		return result, rollbackOn(tx, fmt.Errorf("delete briefings: %w", err))
	}
	count, _ = deleted.RowsAffected()
	result.BriefingsDeleted = int(count)

	detached, err := tx.ExecContext(ctx, `
		UPDATE projects SET owner_id=NULL, hold_expires_at=$2, updated_at=NOW()
		WHERE owner_id=$1 AND is_contractual
	`, userID, holdUntil)
	if err != nil {
		return result, rollbackOn(tx, fmt.Errorf("detach projects: %w", err))
	}
	count, _ = detached.RowsAffected()
	result.ProjectsDetached = int(count)

	detached, err = tx.ExecContext(ctx, `
		UPDATE briefings SET owner_id=NULL, hold_expires_at=$2, updated_at=NOW()
		WHERE owner_id=$1 AND is_contractual
	`, userID, holdUntil)
	if err != nil {
		return result, rollbackOn(tx, fmt.Errorf("detach briefings: %w", err))
	}
	count, _ = detached.RowsAffected()
	result.BriefingsDetached = int(count)

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, userID); err != nil {
		return result, rollbackOn(tx, fmt.Errorf("delete user: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("commit purge tx: %w", err)
	}
	return result, nil
}

// ListStaleUnconvertedBriefings returns briefings created before the cutoff
// that never became a project and still carry an owner reference. Already
// anonymized rows have a NULL owner and fall out of the query, which keeps
// the policy idempotent per record.
func (s *PostgresStore) ListStaleUnconvertedBriefings(ctx context.Context, cutoff time.Time) ([]Briefing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+briefingColumns+`
		FROM briefings
		WHERE created_at < $1
			AND project_id IS NULL
			AND owner_id IS NOT NULL
		ORDER BY created_at
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale briefings: %w", err)
	}
	defer rows.Close()

	items := make([]Briefing, 0)
	for rows.Next() {
		item, err := scanBriefing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stale briefing: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale briefings: %w", err)
	}
	return items, nil
}

// AnonymizeBriefing overwrites the free-text fields with the redaction
// placeholder and severs the owner link. Service category and status stay
// for aggregate statistics.
func (s *PostgresStore) AnonymizeBriefing(ctx context.Context, briefingID, placeholder string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE briefings
		SET summary=$2, goals=$2, owner_id=NULL, updated_at=NOW()
		WHERE id=$1 AND project_id IS NULL
	`, briefingID, placeholder)
	if err != nil {
		return fmt.Errorf("anonymize briefing: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("anonymize briefing rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) InsertAuditEvent(ctx context.Context, event AuditEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit tx: %w", err)
	}
	if err := insertAuditEventTx(ctx, tx, event); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert audit event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit tx: %w", err)
	}
	return nil
}

func insertAuditEventTx(ctx context.Context, tx *sql.Tx, event AuditEvent) error {
	payload := event.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_events (event_type, actor_id, actor_name, subject_id, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, event.EventType, event.ActorID, event.ActorName, event.SubjectID, encoded)
	return err
}
