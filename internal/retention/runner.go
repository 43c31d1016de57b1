// Package retention implements the scheduled data retention policies:
// warning dormant clients, deleting accounts past the inactivity horizon,
// and anonymizing stale briefings that never became projects.
package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"atelier/api/internal/metrics"
	"atelier/api/internal/store"
)

// AnonymizedPlaceholder replaces free-text briefing fields during
// anonymization.
const AnonymizedPlaceholder = "[redacted]"

// warningMarkerTTL bounds how long the Redis warning marker outlives a
// crashed sweep. It comfortably exceeds the warn-to-delete gap, so a user
// is never warned twice within one inactivity episode, and still expires
// eventually instead of pinning the key forever.
const warningMarkerTTL = 60 * 24 * time.Hour

// Store is the database surface the sweeper needs.
type Store interface {
	ListWarnCandidates(ctx context.Context, oldest, newest time.Time) ([]store.User, error)
	ListPurgeCandidates(ctx context.Context, cutoff time.Time) ([]store.User, error)
	MarkRetentionWarned(ctx context.Context, userID string, at time.Time) error
	PurgeUserData(ctx context.Context, userID string, holdUntil time.Time, audit store.AuditEvent) (store.PurgeResult, error)
	ListStaleUnconvertedBriefings(ctx context.Context, cutoff time.Time) ([]store.Briefing, error)
	AnonymizeBriefing(ctx context.Context, briefingID, placeholder string) error
}

// Marker is the distributed once-only guard for warning emails.
type Marker interface {
	TryAcquireWarning(ctx context.Context, userID string, ttl time.Duration) (bool, error)
	ReleaseWarning(ctx context.Context, userID string) error
}

// Mailer sends the inactivity warning.
type Mailer interface {
	IsConfigured() bool
	SendInactivityWarningEmail(to, userName, signInURL, deletionDate string) error
}

// Notifier publishes retention events to the bus.
type Notifier interface {
	Emit(eventType, subjectID, ownerID string, data map[string]any)
}

// Config carries the policy windows, all relative to the sweep time.
type Config struct {
	WarnAfter      time.Duration
	DeleteAfter    time.Duration
	AnonymizeAfter time.Duration
	HoldRetention  time.Duration
	SignInURL      string
}

// Summary reports the outcome of one sweep.
type Summary struct {
	Warned          int `json:"warned"`
	WarnFailed      int `json:"warn_failed"`
	Purged          int `json:"purged"`
	PurgeFailed     int `json:"purge_failed"`
	Preserved       int `json:"preserved"`
	Anonymized      int `json:"anonymized"`
	AnonymizeFailed int `json:"anonymize_failed"`
}

type Runner struct {
	store    Store
	marker   Marker
	mailer   Mailer
	notifier Notifier
	config   Config
	logger   *zap.Logger
	now      func() time.Time
}

func NewRunner(st Store, marker Marker, mailer Mailer, notifier Notifier, config Config, logger *zap.Logger) *Runner {
	return &Runner{
		store:    st,
		marker:   marker,
		mailer:   mailer,
		notifier: notifier,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// Sweep runs the three policies in order: purge before warn, so an account
// already past the deletion horizon is deleted rather than pointlessly
// warned. A failure in one policy does not stop the others; per-record
// failures are logged, counted, and folded into the returned error, so a
// sweep only reports success when every policy ran clean.
func (r *Runner) Sweep(ctx context.Context) (Summary, error) {
	started := r.now()
	var summary Summary
	var errs []error

	if err := r.purgeExpired(ctx, &summary); err != nil {
		errs = append(errs, fmt.Errorf("purge policy: %w", err))
	}
	if err := r.warnDormant(ctx, &summary); err != nil {
		errs = append(errs, fmt.Errorf("warn policy: %w", err))
	}
	if err := r.anonymizeStale(ctx, &summary); err != nil {
		errs = append(errs, fmt.Errorf("anonymize policy: %w", err))
	}

	metrics.RecordRetentionSweepDuration(time.Since(started))
	r.logger.Info("retention sweep finished",
		zap.Int("warned", summary.Warned),
		zap.Int("warn_failed", summary.WarnFailed),
		zap.Int("purged", summary.Purged),
		zap.Int("purge_failed", summary.PurgeFailed),
		zap.Int("preserved", summary.Preserved),
		zap.Int("anonymized", summary.Anonymized),
		zap.Int("anonymize_failed", summary.AnonymizeFailed),
	)
	return summary, errors.Join(errs...)
}

// warnDormant emails clients whose last activity is past the warning
// threshold but before the deletion horizon. The Redis marker is claimed
// before sending so concurrent sweepers produce at most one email; a failed
// send releases the marker and the durable column stays NULL, so the next
// sweep retries.
func (r *Runner) warnDormant(ctx context.Context, summary *Summary) error {
	now := r.now()
	oldest := now.Add(-r.config.DeleteAfter)
	newest := now.Add(-r.config.WarnAfter)

	candidates, err := r.store.ListWarnCandidates(ctx, oldest, newest)
	if err != nil {
		return err
	}

	var errs []error
	for _, user := range candidates {
		acquired, err := r.marker.TryAcquireWarning(ctx, user.ID, warningMarkerTTL)
		if err != nil {
			summary.WarnFailed++
			errs = append(errs, fmt.Errorf("acquire marker %s: %w", user.ID, err))
			metrics.IncrementRetentionAction("warn", "failed")
			r.logger.Warn("warning marker acquire failed", zap.String("user_id", user.ID), zap.Error(err))
			continue
		}
		if !acquired {
			// Another sweeper already owns this user's warning.
			continue
		}

		deletionDate := user.LastActivity().Add(r.config.DeleteAfter).Format("January 2, 2006")
		if err := r.sendWarning(user, deletionDate); err != nil {
			summary.WarnFailed++
			errs = append(errs, fmt.Errorf("warn %s: %w", user.ID, err))
			metrics.IncrementRetentionAction("warn", "failed")
			r.logger.Warn("warning email failed", zap.String("user_id", user.ID), zap.Error(err))
			if releaseErr := r.marker.ReleaseWarning(ctx, user.ID); releaseErr != nil {
				r.logger.Warn("warning marker release failed", zap.String("user_id", user.ID), zap.Error(releaseErr))
			}
			continue
		}

		if err := r.store.MarkRetentionWarned(ctx, user.ID, now); err != nil {
			// The email went out; keep the marker so the user is not
			// re-warned while it lives, and count the durable miss.
			summary.WarnFailed++
			errs = append(errs, fmt.Errorf("mark warned %s: %w", user.ID, err))
			metrics.IncrementRetentionAction("warn", "failed")
			r.logger.Warn("warning mark failed", zap.String("user_id", user.ID), zap.Error(err))
			continue
		}

		summary.Warned++
		metrics.IncrementRetentionAction("warn", "sent")
		if r.notifier != nil {
			r.notifier.Emit("retention.warning", user.ID, user.ID, map[string]any{
				"deletion_date": deletionDate,
			})
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) sendWarning(user store.User, deletionDate string) error {
	if !r.mailer.IsConfigured() {
		return errors.New("mailer not configured")
	}
	return r.mailer.SendInactivityWarningEmail(user.Email, user.DisplayName, r.config.SignInURL, deletionDate)
}

// purgeExpired deletes accounts past the inactivity horizon. Contractual
// records survive with the owner detached and a statutory hold horizon; the
// whole per-user removal is one transaction, so a crash leaves either the
// full account or nothing.
func (r *Runner) purgeExpired(ctx context.Context, summary *Summary) error {
	now := r.now()
	cutoff := now.Add(-r.config.DeleteAfter)
	holdUntil := now.Add(r.config.HoldRetention)

	candidates, err := r.store.ListPurgeCandidates(ctx, cutoff)
	if err != nil {
		return err
	}

	var errs []error
	for _, user := range candidates {
		audit := store.AuditEvent{
			EventType: "retention.purged",
			ActorID:   "system",
			ActorName: "retention-sweeper",
			SubjectID: user.ID,
			Payload: map[string]any{
				"last_activity": user.LastActivity().UTC().Format(time.RFC3339),
			},
		}
		result, err := r.store.PurgeUserData(ctx, user.ID, holdUntil, audit)
		if err != nil {
			summary.PurgeFailed++
			errs = append(errs, fmt.Errorf("purge %s: %w", user.ID, err))
			metrics.IncrementRetentionAction("purge", "failed")
			r.logger.Error("user purge failed", zap.String("user_id", user.ID), zap.Error(err))
			continue
		}

		summary.Purged++
		metrics.IncrementRetentionAction("purge", "deleted")
		if result.Preserved() {
			summary.Preserved++
			metrics.IncrementRetentionAction("purge", "preserved")
		}
		r.logger.Info("user purged",
			zap.String("user_id", user.ID),
			zap.Int("briefings_deleted", result.BriefingsDeleted),
			zap.Int("projects_deleted", result.ProjectsDeleted),
			zap.Int("briefings_detached", result.BriefingsDetached),
			zap.Int("projects_detached", result.ProjectsDetached),
		)
		if r.notifier != nil {
			r.notifier.Emit("retention.purged", user.ID, "", map[string]any{
				"briefings_deleted":  result.BriefingsDeleted,
				"projects_deleted":   result.ProjectsDeleted,
				"briefings_detached": result.BriefingsDetached,
				"projects_detached":  result.ProjectsDetached,
			})
		}
	}
	return errors.Join(errs...)
}

// anonymizeStale strips personal content from briefings that never became a
// project and are past the anonymization horizon.
func (r *Runner) anonymizeStale(ctx context.Context, summary *Summary) error {
	cutoff := r.now().Add(-r.config.AnonymizeAfter)

	candidates, err := r.store.ListStaleUnconvertedBriefings(ctx, cutoff)
	if err != nil {
		return err
	}

	var errs []error
	for _, briefing := range candidates {
		if err := r.store.AnonymizeBriefing(ctx, briefing.ID, AnonymizedPlaceholder); err != nil {
			summary.AnonymizeFailed++
			errs = append(errs, fmt.Errorf("anonymize %s: %w", briefing.ID, err))
			metrics.IncrementRetentionAction("anonymize", "failed")
			r.logger.Warn("briefing anonymization failed", zap.String("briefing_id", briefing.ID), zap.Error(err))
			continue
		}
		summary.Anonymized++
		metrics.IncrementRetentionAction("anonymize", "done")
	}
	return errors.Join(errs...)
}
