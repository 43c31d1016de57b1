package app

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"atelier/api/internal/auth"
	"atelier/api/internal/authpw"
	"atelier/api/internal/config"
	"atelier/api/internal/lifecycle"
	"atelier/api/internal/metrics"
	"atelier/api/internal/rbac"
	"atelier/api/internal/retention"
	"atelier/api/internal/session"
	"atelier/api/internal/store"
	"atelier/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Role         string
	JTI          string
	ExpiresAt    time.Time
}

type CreateBriefingInput struct {
	ServiceCategory string `json:"serviceCategory"`
	Summary         string `json:"summary"`
	Goals           string `json:"goals"`
	IsContractual   bool   `json:"isContractual"`
	Draft           bool   `json:"draft"`
}

type dataStore interface {
	GetUserByID(ctx context.Context, userID string) (store.User, error)
	InsertBriefing(ctx context.Context, item store.Briefing) error
	GetBriefing(ctx context.Context, briefingID string) (store.Briefing, error)
	ListBriefings(ctx context.Context, filter store.BriefingFilter) ([]store.Briefing, error)
	UpdateBriefingStatus(ctx context.Context, briefingID, from, to string) error
	ApproveBriefing(ctx context.Context, briefingID string, project store.Project, milestones []store.Milestone) (store.Briefing, error)
	RejectBriefing(ctx context.Context, briefingID, reason string) error
	GetProject(ctx context.Context, projectID string) (store.Project, error)
	ListProjects(ctx context.Context, filter store.ProjectFilter) ([]store.Project, error)
	ListMilestones(ctx context.Context, projectID string) ([]store.Milestone, error)
	GetMilestone(ctx context.Context, milestoneID string) (store.Milestone, error)
	UpdateProjectStatus(ctx context.Context, projectID, from, to string, stampStarted, stampCompleted bool) error
	ToggleMilestone(ctx context.Context, milestoneID string, completed bool) (store.Milestone, store.Project, error)
	InsertAuditEvent(ctx context.Context, event store.AuditEvent) error
	Ping(ctx context.Context) error
}

type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, data session.TokenData, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (session.TokenData, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	RevokeAccessToken(ctx context.Context, jti string, until time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)
	Ping(ctx context.Context) error
}

type notifier interface {
	Emit(eventType, subjectID, ownerID string, data map[string]any)
}

type mailer interface {
	IsConfigured() bool
	SendBriefingApprovedEmail(to, userName, summary, projectName string) error
	SendBriefingRejectedEmail(to, userName, summary, reason string) error
}

type Service struct {
	cfg       config.Config
	store     dataStore
	sessions  sessionStore
	authSvc   *authpw.Service
	mail      mailer
	events    notifier
	retention *retention.Runner
	logger    *zap.Logger
}

func New(cfg config.Config, dataStore dataStore, sessions sessionStore, authSvc *authpw.Service, mail mailer, events notifier, runner *retention.Runner, logger *zap.Logger) *Service {
	return &Service{
		cfg:       cfg,
		store:     dataStore,
		sessions:  sessions,
		authSvc:   authSvc,
		mail:      mail,
		events:    events,
		retention: runner,
		logger:    logger,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) PingSessions(ctx context.Context) error {
	return s.sessions.Ping(ctx)
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authSvc
}

func (s *Service) SMTPConfigured() bool {
	return s.mail != nil && s.mail.IsConfigured()
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

// ── Sessions ──

func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	data, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	// Re-read the user so role changes and deletions take effect on refresh.
	user, err := s.store.GetUserByID(ctx, data.UserID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), user.ID, user.DisplayName, user.Role, jti, s.cfg.AccessTTL)
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), session.TokenData{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	}, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Role:         user.Role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.sessions.IsAccessTokenRevoked(ctx, claims.ID)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Role:      user.Role,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) Logout(ctx context.Context, sess Session, refreshToken string) error {
	if sess.JTI != "" {
		_ = s.sessions.RevokeAccessToken(ctx, sess.JTI, sess.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// ── Briefings ──

func (s *Service) CreateBriefing(ctx context.Context, sess Session, input CreateBriefingInput) (map[string]any, error) {
	if !s.Can(sess.Role, rbac.ActionSubmit) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}

	category := strings.TrimSpace(input.ServiceCategory)
	summary := strings.TrimSpace(input.Summary)
	goals := strings.TrimSpace(input.Goals)
	if category == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "serviceCategory is required", nil)
	}
	if summary == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "summary is required", nil)
	}

	status := lifecycle.BriefingSubmitted
	var submittedAt *time.Time
	if input.Draft {
		status = lifecycle.BriefingDraft
	} else {
		now := time.Now()
		submittedAt = &now
	}

	ownerID := sess.UserID
	briefing := store.Briefing{
		ID:              util.NewID("brf"),
		OwnerID:         &ownerID,
		ServiceCategory: category,
		Summary:         summary,
		Goals:           goals,
		Status:          status,
		IsContractual:   input.IsContractual,
		SubmittedAt:     submittedAt,
	}
	if err := s.store.InsertBriefing(ctx, briefing); err != nil {
		return nil, err
	}

	metrics.IncrementLifecycleTransition("briefing", status)
	return briefingPayload(briefing), nil
}

func (s *Service) GetBriefing(ctx context.Context, sess Session, briefingID string) (map[string]any, error) {
	briefing, err := s.store.GetBriefing(ctx, briefingID)
	if err != nil {
		return nil, err
	}
	if !s.canSeeBriefing(sess, briefing) {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
	return briefingPayload(briefing), nil
}

func (s *Service) ListBriefings(ctx context.Context, sess Session, filter store.BriefingFilter) (map[string]any, error) {
	// Clients only see their own briefings; reviewers can filter freely.
	if !s.Can(sess.Role, rbac.ActionReview) {
		filter.OwnerID = sess.UserID
	}
	items, err := s.store.ListBriefings(ctx, filter)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(items))
	for _, item := range items {
		payload = append(payload, briefingPayload(item))
	}
	return map[string]any{"briefings": payload}, nil
}

// UpdateBriefingStatus drives the generic briefing transitions: submit,
// withdraw, and moving a submission in or out of review. APPROVED and
// REJECTED are unreachable here; those go through the dedicated operations.
func (s *Service) UpdateBriefingStatus(ctx context.Context, sess Session, briefingID, to string) (map[string]any, error) {
	if !lifecycle.ValidBriefingStatus(to) {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown status", map[string]any{"status": to})
	}
	if lifecycle.BriefingTerminal(to) {
		return nil, domainError(http.StatusUnprocessableEntity, "INVALID_TRANSITION", "approval and rejection have dedicated operations", map[string]any{"to": to})
	}

	briefing, err := s.store.GetBriefing(ctx, briefingID)
	if err != nil {
		return nil, err
	}

	// Review transitions belong to staff; submit/withdraw to the owner.
	reviewStep := to == lifecycle.BriefingUnderReview || briefing.Status == lifecycle.BriefingUnderReview
	if reviewStep {
		if !s.Can(sess.Role, rbac.ActionReview) {
			return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
		}
	} else {
		if !s.ownsBriefing(sess, briefing) && !s.Can(sess.Role, rbac.ActionReview) {
			return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
		}
	}

	if !lifecycle.CanBriefingTransition(briefing.Status, to) {
		return nil, domainError(http.StatusUnprocessableEntity, "INVALID_TRANSITION", "transition not allowed", map[string]any{
			"from": briefing.Status,
			"to":   to,
		})
	}

	if err := s.store.UpdateBriefingStatus(ctx, briefingID, briefing.Status, to); err != nil {
		return nil, mapStoreConflict(err)
	}

	metrics.IncrementLifecycleTransition("briefing", to)
	updated, err := s.store.GetBriefing(ctx, briefingID)
	if err != nil {
		return nil, err
	}
	return briefingPayload(updated), nil
}

// ApproveBriefing converts a reviewable briefing into a project with its four
// standard milestones in one transaction.
func (s *Service) ApproveBriefing(ctx context.Context, sess Session, briefingID, projectName string) (map[string]any, error) {
	if !s.Can(sess.Role, rbac.ActionReview) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}

	briefing, err := s.store.GetBriefing(ctx, briefingID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.BriefingReviewable(briefing.Status) {
		return nil, domainError(http.StatusUnprocessableEntity, "INVALID_TRANSITION", "transition not allowed", map[string]any{
			"from": briefing.Status,
			"to":   lifecycle.BriefingApproved,
		})
	}

	name := strings.TrimSpace(projectName)
	if name == "" {
		name = briefing.Summary
		if len(name) > 80 {
			name = name[:80]
		}
	}

	project := store.Project{
		ID:     util.NewID("prj"),
		Name:   name,
		Status: lifecycle.ProjectAwaitingApproval,
	}
	milestones := make([]store.Milestone, 0, len(lifecycle.MilestoneNames))
	for i, milestoneName := range lifecycle.MilestoneNames {
		milestones = append(milestones, store.Milestone{
			ID:       util.NewID("mst"),
			Name:     milestoneName,
			Position: i + 1,
		})
	}

	approved, err := s.store.ApproveBriefing(ctx, briefingID, project, milestones)
	if err != nil {
		return nil, mapStoreConflict(err)
	}

	metrics.IncrementLifecycleTransition("briefing", lifecycle.BriefingApproved)
	s.audit(ctx, "briefing.approved", sess, briefingID, map[string]any{"project_id": project.ID})
	if s.events != nil {
		s.events.Emit("briefing.approved", briefingID, derefOwner(approved.OwnerID), map[string]any{
			"project_id": project.ID,
		})
	}
	s.notifyReviewOutcome(ctx, approved, name, "")

	createdMilestones, err := s.store.ListMilestones(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	createdProject, err := s.store.GetProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"briefing": briefingPayload(approved),
		"project":  projectPayload(createdProject, createdMilestones),
	}, nil
}

// RejectBriefing declines a reviewable briefing with a mandatory reason of
// 10 to 500 characters, validated before anything is written.
func (s *Service) RejectBriefing(ctx context.Context, sess Session, briefingID, reason string) (map[string]any, error) {
	if !s.Can(sess.Role, rbac.ActionReview) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}

	reason = strings.TrimSpace(reason)
	if length := utf8.RuneCountInString(reason); length < 10 || length > 500 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "reason must be between 10 and 500 characters", map[string]any{
			"length": length,
		})
	}

	briefing, err := s.store.GetBriefing(ctx, briefingID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.BriefingReviewable(briefing.Status) {
		return nil, domainError(http.StatusUnprocessableEntity, "INVALID_TRANSITION", "transition not allowed", map[string]any{
			"from": briefing.Status,
			"to":   lifecycle.BriefingRejected,
		})
	}

	if err := s.store.RejectBriefing(ctx, briefingID, reason); err != nil {
		return nil, mapStoreConflict(err)
	}

	metrics.IncrementLifecycleTransition("briefing", lifecycle.BriefingRejected)
	rejected, err := s.store.GetBriefing(ctx, briefingID)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "briefing.rejected", sess, briefingID, map[string]any{"reason": reason})
	if s.events != nil {
		s.events.Emit("briefing.rejected", briefingID, derefOwner(rejected.OwnerID), map[string]any{
			"reason": reason,
		})
	}
	s.notifyReviewOutcome(ctx, rejected, "", reason)

	return briefingPayload(rejected), nil
}

// ── Projects ──

func (s *Service) GetProject(ctx context.Context, sess Session, projectID string) (map[string]any, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !s.canSeeProject(sess, project) {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
	milestones, err := s.store.ListMilestones(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return projectPayload(project, milestones), nil
}

func (s *Service) ListProjects(ctx context.Context, sess Session, filter store.ProjectFilter) (map[string]any, error) {
	if !s.Can(sess.Role, rbac.ActionReview) {
		filter.OwnerID = sess.UserID
	}
	items, err := s.store.ListProjects(ctx, filter)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(items))
	for _, item := range items {
		payload = append(payload, projectPayload(item, nil))
	}
	return map[string]any{"projects": payload}, nil
}

// UpdateProjectStatus moves a project through its lifecycle. Authorization is
// checked before the transition table so a client probing a staff operation
// gets 403, not a validation hint.
func (s *Service) UpdateProjectStatus(ctx context.Context, sess Session, projectID, to string) (map[string]any, error) {
	if !s.Can(sess.Role, rbac.ActionReview) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	if !lifecycle.ValidProjectStatus(to) {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown status", map[string]any{"status": to})
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanProjectTransition(project.Status, to) {
		return nil, domainError(http.StatusUnprocessableEntity, "INVALID_TRANSITION", "transition not allowed", map[string]any{
			"from": project.Status,
			"to":   to,
		})
	}

	stampStarted := to == lifecycle.ProjectActive
	stampCompleted := to == lifecycle.ProjectCompleted
	if err := s.store.UpdateProjectStatus(ctx, projectID, project.Status, to, stampStarted, stampCompleted); err != nil {
		return nil, mapStoreConflict(err)
	}

	metrics.IncrementLifecycleTransition("project", to)
	if to == lifecycle.ProjectCompleted && s.events != nil {
		s.events.Emit("project.completed", projectID, derefOwner(project.OwnerID), nil)
	}

	updated, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	milestones, err := s.store.ListMilestones(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return projectPayload(updated, milestones), nil
}

// ToggleMilestone flips one milestone and returns it with the recomputed
// project progress. Any project state accepts toggles; an unknown milestone
// is the only failure.
func (s *Service) ToggleMilestone(ctx context.Context, sess Session, milestoneID string, completed bool) (map[string]any, error) {
	if !s.Can(sess.Role, rbac.ActionReview) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}

	if _, err := s.store.GetMilestone(ctx, milestoneID); err != nil {
		return nil, err
	}

	updatedMilestone, updatedProject, err := s.store.ToggleMilestone(ctx, milestoneID, completed)
	if err != nil {
		return nil, mapStoreConflict(err)
	}

	if completed && s.events != nil {
		s.events.Emit("milestone.completed", milestoneID, derefOwner(updatedProject.OwnerID), map[string]any{
			"project_id": updatedProject.ID,
			"name":       updatedMilestone.Name,
			"progress":   updatedProject.Progress,
		})
	}

	return map[string]any{
		"milestone": milestonePayload(updatedMilestone),
		"project":   projectPayload(updatedProject, nil),
	}, nil
}

// ── Retention ──

// RunRetention triggers one sweep on demand, outside the schedule.
func (s *Service) RunRetention(ctx context.Context, sess Session) (map[string]any, error) {
	if !s.Can(sess.Role, rbac.ActionRetention) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	if s.retention == nil {
		return nil, domainError(http.StatusServiceUnavailable, "RETENTION_UNAVAILABLE", "Retention runner not configured", nil)
	}

	summary, err := s.retention.Sweep(ctx)
	if err != nil {
		s.logger.Error("manual retention sweep finished with errors", zap.Error(err))
		return map[string]any{"summary": summary, "partial": true}, nil
	}
	s.audit(ctx, "retention.sweep", sess, "", map[string]any{
		"warned":     summary.Warned,
		"purged":     summary.Purged,
		"anonymized": summary.Anonymized,
	})
	return map[string]any{"summary": summary, "partial": false}, nil
}

// ── helpers ──

func (s *Service) ownsBriefing(sess Session, briefing store.Briefing) bool {
	return briefing.OwnerID != nil && *briefing.OwnerID == sess.UserID
}

func (s *Service) canSeeBriefing(sess Session, briefing store.Briefing) bool {
	return s.Can(sess.Role, rbac.ActionReview) || s.ownsBriefing(sess, briefing)
}

func (s *Service) canSeeProject(sess Session, project store.Project) bool {
	if s.Can(sess.Role, rbac.ActionReview) {
		return true
	}
	return project.OwnerID != nil && *project.OwnerID == sess.UserID
}

// audit records the event; failures are logged, never surfaced, since the
// primary state change already committed.
func (s *Service) audit(ctx context.Context, eventType string, sess Session, subjectID string, payload map[string]any) {
	err := s.store.InsertAuditEvent(ctx, store.AuditEvent{
		EventType: eventType,
		ActorID:   sess.UserID,
		ActorName: sess.UserName,
		SubjectID: subjectID,
		Payload:   payload,
	})
	if err != nil {
		s.logger.Warn("audit insert failed", zap.String("event", eventType), zap.Error(err))
	}
}

// notifyReviewOutcome emails the briefing owner about approval or rejection,
// best-effort.
func (s *Service) notifyReviewOutcome(ctx context.Context, briefing store.Briefing, projectName, reason string) {
	if s.mail == nil || !s.mail.IsConfigured() || briefing.OwnerID == nil {
		return
	}
	owner, err := s.store.GetUserByID(ctx, *briefing.OwnerID)
	if err != nil {
		s.logger.Warn("review outcome mail skipped", zap.String("briefing_id", briefing.ID), zap.Error(err))
		return
	}

	if reason == "" {
		err = s.mail.SendBriefingApprovedEmail(owner.Email, owner.DisplayName, briefing.Summary, projectName)
	} else {
		err = s.mail.SendBriefingRejectedEmail(owner.Email, owner.DisplayName, briefing.Summary, reason)
	}
	if err != nil {
		s.logger.Warn("review outcome mail failed", zap.String("briefing_id", briefing.ID), zap.Error(err))
	}
}

func mapStoreConflict(err error) error {
	switch {
	case err == nil:
		return nil
	case err == store.ErrAlreadyLinked:
		return domainError(http.StatusConflict, "ALREADY_LINKED", "briefing already linked to a project", nil)
	case err == store.ErrStaleStatus:
		return domainError(http.StatusConflict, "STALE_STATUS", "record changed concurrently, reload and retry", nil)
	default:
		return err
	}
}

func derefOwner(ownerID *string) string {
	if ownerID == nil {
		return ""
	}
	return *ownerID
}

func briefingPayload(item store.Briefing) map[string]any {
	return map[string]any{
		"id":              item.ID,
		"ownerId":         item.OwnerID,
		"serviceCategory": item.ServiceCategory,
		"summary":         item.Summary,
		"goals":           item.Goals,
		"status":          item.Status,
		"rejectionReason": item.RejectionReason,
		"isContractual":   item.IsContractual,
		"projectId":       item.ProjectID,
		"submittedAt":     item.SubmittedAt,
		"reviewedAt":      item.ReviewedAt,
		"createdAt":       item.CreatedAt,
		"updatedAt":       item.UpdatedAt,
	}
}

func projectPayload(item store.Project, milestones []store.Milestone) map[string]any {
	payload := map[string]any{
		"id":            item.ID,
		"ownerId":       item.OwnerID,
		"briefingId":    item.BriefingID,
		"name":          item.Name,
		"status":        item.Status,
		"progress":      item.Progress,
		"isContractual": item.IsContractual,
		"startedAt":     item.StartedAt,
		"completedAt":   item.CompletedAt,
		"createdAt":     item.CreatedAt,
		"updatedAt":     item.UpdatedAt,
	}
	if milestones != nil {
		items := make([]map[string]any, 0, len(milestones))
		for _, milestone := range milestones {
			items = append(items, milestonePayload(milestone))
		}
		payload["milestones"] = items
	}
	return payload
}

func milestonePayload(item store.Milestone) map[string]any {
	return map[string]any{
		"id":          item.ID,
		"projectId":   item.ProjectID,
		"name":        item.Name,
		"position":    item.Position,
		"completed":   item.Completed,
		"completedAt": item.CompletedAt,
	}
}
