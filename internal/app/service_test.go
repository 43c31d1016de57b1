package app

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"atelier/api/internal/config"
	"atelier/api/internal/lifecycle"
	"atelier/api/internal/session"
	"atelier/api/internal/store"
)

// fakeStore implements dataStore with overridable function fields.
type fakeStore struct {
	getUserByID          func(ctx context.Context, userID string) (store.User, error)
	insertBriefing       func(ctx context.Context, item store.Briefing) error
	getBriefing          func(ctx context.Context, briefingID string) (store.Briefing, error)
	listBriefings        func(ctx context.Context, filter store.BriefingFilter) ([]store.Briefing, error)
	updateBriefingStatus func(ctx context.Context, briefingID, from, to string) error
	approveBriefing      func(ctx context.Context, briefingID string, project store.Project, milestones []store.Milestone) (store.Briefing, error)
	rejectBriefing       func(ctx context.Context, briefingID, reason string) error
	getProject           func(ctx context.Context, projectID string) (store.Project, error)
	listProjects         func(ctx context.Context, filter store.ProjectFilter) ([]store.Project, error)
	listMilestones       func(ctx context.Context, projectID string) ([]store.Milestone, error)
	getMilestone         func(ctx context.Context, milestoneID string) (store.Milestone, error)
	updateProjectStatus  func(ctx context.Context, projectID, from, to string, stampStarted, stampCompleted bool) error
	toggleMilestone      func(ctx context.Context, milestoneID string, completed bool) (store.Milestone, store.Project, error)
	insertAuditEvent     func(ctx context.Context, event store.AuditEvent) error
	ping                 func(ctx context.Context) error
}

func (f *fakeStore) GetUserByID(ctx context.Context, userID string) (store.User, error) {
	if f.getUserByID != nil {
		return f.getUserByID(ctx, userID)
	}
	return store.User{ID: userID, DisplayName: "User", Email: userID + "@example.com", Role: "client"}, nil
}

func (f *fakeStore) InsertBriefing(ctx context.Context, item store.Briefing) error {
	if f.insertBriefing != nil {
		return f.insertBriefing(ctx, item)
	}
	return nil
}

func (f *fakeStore) GetBriefing(ctx context.Context, briefingID string) (store.Briefing, error) {
	if f.getBriefing != nil {
		return f.getBriefing(ctx, briefingID)
	}
	return store.Briefing{}, sql.ErrNoRows
}

func (f *fakeStore) ListBriefings(ctx context.Context, filter store.BriefingFilter) ([]store.Briefing, error) {
	if f.listBriefings != nil {
		return f.listBriefings(ctx, filter)
	}
	return nil, nil
}

func (f *fakeStore) UpdateBriefingStatus(ctx context.Context, briefingID, from, to string) error {
	if f.updateBriefingStatus != nil {
		return f.updateBriefingStatus(ctx, briefingID, from, to)
	}
	return nil
}

func (f *fakeStore) ApproveBriefing(ctx context.Context, briefingID string, project store.Project, milestones []store.Milestone) (store.Briefing, error) {
	if f.approveBriefing != nil {
		return f.approveBriefing(ctx, briefingID, project, milestones)
	}
	return store.Briefing{}, errors.New("not implemented")
}

func (f *fakeStore) RejectBriefing(ctx context.Context, briefingID, reason string) error {
	if f.rejectBriefing != nil {
		return f.rejectBriefing(ctx, briefingID, reason)
	}
	return nil
}

func (f *fakeStore) GetProject(ctx context.Context, projectID string) (store.Project, error) {
	if f.getProject != nil {
		return f.getProject(ctx, projectID)
	}
	return store.Project{}, sql.ErrNoRows
}

func (f *fakeStore) ListProjects(ctx context.Context, filter store.ProjectFilter) ([]store.Project, error) {
	if f.listProjects != nil {
		return f.listProjects(ctx, filter)
	}
	return nil, nil
}

func (f *fakeStore) ListMilestones(ctx context.Context, projectID string) ([]store.Milestone, error) {
	if f.listMilestones != nil {
		return f.listMilestones(ctx, projectID)
	}
	return nil, nil
}

func (f *fakeStore) GetMilestone(ctx context.Context, milestoneID string) (store.Milestone, error) {
	if f.getMilestone != nil {
		return f.getMilestone(ctx, milestoneID)
	}
	return store.Milestone{}, sql.ErrNoRows
}

func (f *fakeStore) UpdateProjectStatus(ctx context.Context, projectID, from, to string, stampStarted, stampCompleted bool) error {
	if f.updateProjectStatus != nil {
		return f.updateProjectStatus(ctx, projectID, from, to, stampStarted, stampCompleted)
	}
	return nil
}

func (f *fakeStore) ToggleMilestone(ctx context.Context, milestoneID string, completed bool) (store.Milestone, store.Project, error) {
	if f.toggleMilestone != nil {
		return f.toggleMilestone(ctx, milestoneID, completed)
	}
	return store.Milestone{}, store.Project{}, errors.New("not implemented")
}

func (f *fakeStore) InsertAuditEvent(ctx context.Context, event store.AuditEvent) error {
	if f.insertAuditEvent != nil {
		return f.insertAuditEvent(ctx, event)
	}
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.ping != nil {
		return f.ping(ctx)
	}
	return nil
}

type fakeSessions struct{}

func (fakeSessions) SaveRefreshSession(context.Context, string, session.TokenData, time.Time) error {
	return nil
}
func (fakeSessions) LookupRefreshSession(context.Context, string) (session.TokenData, error) {
	return session.TokenData{}, session.ErrNotFound
}
func (fakeSessions) RevokeRefreshSession(context.Context, string) error      { return nil }
func (fakeSessions) RevokeAccessToken(context.Context, string, time.Time) error { return nil }
func (fakeSessions) IsAccessTokenRevoked(context.Context, string) (bool, error) {
	return false, nil
}
func (fakeSessions) Ping(context.Context) error { return nil }

type fakeEvents struct {
	emitted []string
}

func (f *fakeEvents) Emit(eventType, _, _ string, _ map[string]any) {
	f.emitted = append(f.emitted, eventType)
}

func newTestService(st *fakeStore) (*Service, *fakeEvents) {
	events := &fakeEvents{}
	cfg := config.Config{JWTSecret: "test", AccessTTL: time.Minute, RefreshTTL: time.Hour}
	svc := New(cfg, st, fakeSessions{}, nil, nil, events, nil, zap.NewNop())
	return svc, events
}

func clientSession() Session {
	return Session{UserID: "usr_client", UserName: "Client", Role: "client"}
}

func staffSession() Session {
	return Session{UserID: "usr_staff", UserName: "Staff", Role: "staff"}
}

func adminSession() Session {
	return Session{UserID: "usr_admin", UserName: "Admin", Role: "admin"}
}

func ownedBriefing(id, ownerID, status string) store.Briefing {
	return store.Briefing{
		ID:              id,
		OwnerID:         &ownerID,
		ServiceCategory: "branding",
		Summary:         "A refreshed identity for a boutique roastery",
		Status:          status,
	}
}

func wantDomainError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("err = %v, want DomainError", err)
	}
	if domainErr.Status != status || domainErr.Code != code {
		t.Fatalf("got %d/%s, want %d/%s", domainErr.Status, domainErr.Code, status, code)
	}
}

// ── briefing creation ──

func TestCreateBriefingSubmitsByDefault(t *testing.T) {
	var inserted store.Briefing
	st := &fakeStore{
		insertBriefing: func(_ context.Context, item store.Briefing) error {
			inserted = item
			return nil
		},
	}
	svc, _ := newTestService(st)

	_, err := svc.CreateBriefing(context.Background(), clientSession(), CreateBriefingInput{
		ServiceCategory: "branding",
		Summary:         "A refreshed identity for a boutique roastery",
		Goals:           "Stand out on the shelf",
	})
	if err != nil {
		t.Fatalf("CreateBriefing failed: %v", err)
	}
	if inserted.Status != lifecycle.BriefingSubmitted {
		t.Errorf("status = %q, want SUBMITTED", inserted.Status)
	}
	if inserted.SubmittedAt == nil {
		t.Error("submission must stamp submittedAt")
	}
	if inserted.OwnerID == nil || *inserted.OwnerID != "usr_client" {
		t.Errorf("ownerId = %v, want usr_client", inserted.OwnerID)
	}
}

func TestCreateBriefingDraftSkipsSubmission(t *testing.T) {
	var inserted store.Briefing
	st := &fakeStore{
		insertBriefing: func(_ context.Context, item store.Briefing) error {
			inserted = item
			return nil
		},
	}
	svc, _ := newTestService(st)

	_, err := svc.CreateBriefing(context.Background(), clientSession(), CreateBriefingInput{
		ServiceCategory: "web",
		Summary:         "A marketing site relaunch",
		Draft:           true,
	})
	if err != nil {
		t.Fatalf("CreateBriefing failed: %v", err)
	}
	if inserted.Status != lifecycle.BriefingDraft {
		t.Errorf("status = %q, want DRAFT", inserted.Status)
	}
	if inserted.SubmittedAt != nil {
		t.Error("draft must not stamp submittedAt")
	}
}

func TestCreateBriefingValidation(t *testing.T) {
	svc, _ := newTestService(&fakeStore{})
	_, err := svc.CreateBriefing(context.Background(), clientSession(), CreateBriefingInput{
		ServiceCategory: "branding",
	})
	wantDomainError(t, err, 422, "VALIDATION_ERROR")
}

// ── briefing status transitions ──

func TestUpdateBriefingStatusOwnerSubmits(t *testing.T) {
	st := &fakeStore{
		getBriefing: func(_ context.Context, id string) (store.Briefing, error) {
			b := ownedBriefing(id, "usr_client", lifecycle.BriefingDraft)
			return b, nil
		},
	}
	var movedTo string
	st.updateBriefingStatus = func(_ context.Context, _, from, to string) error {
		if from != lifecycle.BriefingDraft {
			t.Errorf("from = %q, want DRAFT", from)
		}
		movedTo = to
		return nil
	}
	svc, _ := newTestService(st)

	if _, err := svc.UpdateBriefingStatus(context.Background(), clientSession(), "brf_1", lifecycle.BriefingSubmitted); err != nil {
		t.Fatalf("UpdateBriefingStatus failed: %v", err)
	}
	if movedTo != lifecycle.BriefingSubmitted {
		t.Errorf("moved to %q, want SUBMITTED", movedTo)
	}
}

func TestUpdateBriefingStatusDirectApprovalBlocked(t *testing.T) {
	svc, _ := newTestService(&fakeStore{})
	for _, target := range []string{lifecycle.BriefingApproved, lifecycle.BriefingRejected} {
		_, err := svc.UpdateBriefingStatus(context.Background(), staffSession(), "brf_1", target)
		wantDomainError(t, err, 422, "INVALID_TRANSITION")
	}
}

func TestUpdateBriefingStatusClientCannotReview(t *testing.T) {
	st := &fakeStore{
		getBriefing: func(_ context.Context, id string) (store.Briefing, error) {
			return ownedBriefing(id, "usr_client", lifecycle.BriefingSubmitted), nil
		},
	}
	svc, _ := newTestService(st)

	_, err := svc.UpdateBriefingStatus(context.Background(), clientSession(), "brf_1", lifecycle.BriefingUnderReview)
	wantDomainError(t, err, 403, "FORBIDDEN")
}

func TestUpdateBriefingStatusInvalidTransition(t *testing.T) {
	st := &fakeStore{
		getBriefing: func(_ context.Context, id string) (store.Briefing, error) {
			return ownedBriefing(id, "usr_client", lifecycle.BriefingDraft), nil
		},
	}
	svc, _ := newTestService(st)

	// DRAFT cannot jump straight to UNDER_REVIEW.
	_, err := svc.UpdateBriefingStatus(context.Background(), staffSession(), "brf_1", lifecycle.BriefingUnderReview)
	wantDomainError(t, err, 422, "INVALID_TRANSITION")
}

func TestUpdateBriefingStatusStaleConflict(t *testing.T) {
	st := &fakeStore{
		getBriefing: func(_ context.Context, id string) (store.Briefing, error) {
			return ownedBriefing(id, "usr_client", lifecycle.BriefingDraft), nil
		},
		updateBriefingStatus: func(context.Context, string, string, string) error {
			return store.ErrStaleStatus
		},
	}
	svc, _ := newTestService(st)

	_, err := svc.UpdateBriefingStatus(context.Background(), clientSession(), "brf_1", lifecycle.BriefingSubmitted)
	wantDomainError(t, err, 409, "STALE_STATUS")
}

func TestUpdateBriefingStatusForeignBriefing(t *testing.T) {
	st := &fakeStore{
		getBriefing: func(_ context.Context, id string) (store.Briefing, error) {
			return ownedBriefing(id, "usr_other", lifecycle.BriefingDraft), nil
		},
	}
	svc, _ := newTestService(st)

	_, err := svc.UpdateBriefingStatus(context.Background(), clientSession(), "brf_1", lifecycle.BriefingSubmitted)
	wantDomainError(t, err, 403, "FORBIDDEN")
}

// ── approval ──

func TestApproveBriefingCreatesProjectWithFourMilestones(t *testing.T) {
	var gotProject store.Project
	var gotMilestones []store.Milestone
	st := &fakeStore{
		getBriefing: func(_ context.Context, id string) (store.Briefing, error) {
			return ownedBriefing(id, "usr_client", lifecycle.BriefingSubmitted), nil
		},
		approveBriefing: func(_ context.Context, briefingID string, project store.Project, milestones []store.Milestone) (store.Briefing, error) {
			gotProject = project
			gotMilestones = milestones
			approved := ownedBriefing(briefingID, "usr_client", lifecycle.BriefingApproved)
			approved.ProjectID = &project.ID
			return approved, nil
		},
		getProject: func(_ context.Context, id string) (store.Project, error) {
			return store.Project{ID: id, Status: lifecycle.ProjectAwaitingApproval}, nil
		},
	}
	svc, events := newTestService(st)

	payload, err := svc.ApproveBriefing(context.Background(), staffSession(), "brf_1", "Roastery Rebrand")
	if err != nil {
		t.Fatalf("ApproveBriefing failed: %v", err)
	}
	if gotProject.Name != "Roastery Rebrand" {
		t.Errorf("project name = %q", gotProject.Name)
	}
	if gotProject.Status != lifecycle.ProjectAwaitingApproval {
		t.Errorf("project status = %q, want AWAITING_APPROVAL", gotProject.Status)
	}
	if len(gotMilestones) != 4 {
		t.Fatalf("milestones = %d, want 4", len(gotMilestones))
	}
	for i, milestone := range gotMilestones {
		if milestone.Position != i+1 {
			t.Errorf("milestone %d position = %d", i, milestone.Position)
		}
		if milestone.Name != lifecycle.MilestoneNames[i] {
			t.Errorf("milestone %d name = %q, want %q", i, milestone.Name, lifecycle.MilestoneNames[i])
		}
	}
	if payload["briefing"] == nil || payload["project"] == nil {
		t.Error("payload missing briefing or project")
	}
	if len(events.emitted) != 1 || events.emitted[0] != "briefing.approved" {
		t.Errorf("events = %v", events.emitted)
	}
}

func TestApproveBriefingDefaultsNameFromSummary(t *testing.T) {
	var gotProject store.Project
	st := &fakeStore{
		getBriefing: func(_ context.Context, id string) (store.Briefing, error) {
			return ownedBriefing(id, "usr_client", lifecycle.BriefingUnderReview), nil
		},
		approveBriefing: func(_ context.Context, briefingID string, project store.Project, _ []store.Milestone) (store.Briefing, error) {
			gotProject = project
			return ownedBriefing(briefingID, "usr_client", lifecycle.BriefingApproved), nil
		},
		getProject: func(_ context.Context, id string) (store.Project, error) {
			return store.Project{ID: id}, nil
		},
	}
	svc, _ := newTestService(st)

	if _, err := svc.ApproveBriefing(context.Background(), staffSession(), "brf_1", ""); err != nil {
		t.Fatalf("ApproveBriefing failed: %v", err)
	}
	if gotProject.Name != "A refreshed identity for a boutique roastery" {
		t.Errorf("project name = %q", gotProject.Name)
	}
}

func TestApproveBriefingForbiddenForClient(t *testing.T) {
	svc, _ := newTestService(&fakeStore{})
	_, err := svc.ApproveBriefing(context.Background(), clientSession(), "brf_1", "")
	wantDomainError(t, err, 403, "FORBIDDEN")
}

func TestApproveBriefingAlreadyLinked(t *testing.T) {
	// The pre-read sees a reviewable briefing, but a concurrent approval
	// wins inside the transaction.
	st := &fakeStore{
		getBriefing: func(_ context.Context, id string) (store.Briefing, error) {
			return ownedBriefing(id, "usr_client", lifecycle.BriefingSubmitted), nil
		},
		approveBriefing: func(context.Context, string, store.Project, []store.Milestone) (store.Briefing, error) {
			return store.Briefing{}, store.ErrAlreadyLinked
		},
	}
	svc, _ := newTestService(st)

	_, err := svc.ApproveBriefing(context.Background(), staffSession(), "brf_1", "")
	wantDomainError(t, err, 409, "ALREADY_LINKED")
}

func TestApproveBriefingTerminalStatusIsInvalidTransition(t *testing.T) {
	for _, status := range []string{lifecycle.BriefingApproved, lifecycle.BriefingRejected, lifecycle.BriefingDraft} {
		st := &fakeStore{
			getBriefing: func(_ context.Context, id string) (store.Briefing, error) {
				return ownedBriefing(id, "usr_client", status), nil
			},
			approveBriefing: func(context.Context, string, store.Project, []store.Milestone) (store.Briefing, error) {
				t.Errorf("approval of a %s briefing must not reach storage", status)
				return store.Briefing{}, nil
			},
		}
		svc, _ := newTestService(st)

		_, err := svc.ApproveBriefing(context.Background(), staffSession(), "brf_1", "")
		wantDomainError(t, err, 422, "INVALID_TRANSITION")
	}
}

// ── rejection ──

func TestRejectBriefingReasonValidatedBeforeStorage(t *testing.T) {
	storeCalled := false
	st := &fakeStore{
		rejectBriefing: func(context.Context, string, string) error {
			storeCalled = true
			return nil
		},
	}
	svc, _ := newTestService(st)

	for _, reason := range []string{"", "too short", string(make([]byte, 501))} {
		_, err := svc.RejectBriefing(context.Background(), staffSession(), "brf_1", reason)
		wantDomainError(t, err, 422, "VALIDATION_ERROR")
	}
	if storeCalled {
		t.Error("invalid reason must not reach storage")
	}
}

func TestRejectBriefingSuccess(t *testing.T) {
	reason := "The requested timeline is not feasible for our studio."
	rejected := false
	st := &fakeStore{
		rejectBriefing: func(_ context.Context, _, got string) error {
			if got != reason {
				t.Errorf("reason = %q", got)
			}
			rejected = true
			return nil
		},
		getBriefing: func(_ context.Context, id string) (store.Briefing, error) {
			if !rejected {
				return ownedBriefing(id, "usr_client", lifecycle.BriefingSubmitted), nil
			}
			item := ownedBriefing(id, "usr_client", lifecycle.BriefingRejected)
			item.RejectionReason = &reason
			return item, nil
		},
	}
	svc, events := newTestService(st)

	payload, err := svc.RejectBriefing(context.Background(), staffSession(), "brf_1", reason)
	if err != nil {
		t.Fatalf("RejectBriefing failed: %v", err)
	}
	if payload["status"] != lifecycle.BriefingRejected {
		t.Errorf("status = %v", payload["status"])
	}
	if len(events.emitted) != 1 || events.emitted[0] != "briefing.rejected" {
		t.Errorf("events = %v", events.emitted)
	}
}

func TestRejectBriefingTerminalStatusIsInvalidTransition(t *testing.T) {
	reason := "The requested timeline is not feasible for our studio."
	for _, status := range []string{lifecycle.BriefingApproved, lifecycle.BriefingRejected} {
		st := &fakeStore{
			getBriefing: func(_ context.Context, id string) (store.Briefing, error) {
				return ownedBriefing(id, "usr_client", status), nil
			},
			rejectBriefing: func(context.Context, string, string) error {
				t.Errorf("rejection of a %s briefing must not reach storage", status)
				return nil
			},
		}
		svc, _ := newTestService(st)

		_, err := svc.RejectBriefing(context.Background(), staffSession(), "brf_1", reason)
		wantDomainError(t, err, 422, "INVALID_TRANSITION")
	}
}

func TestRejectBriefingReasonLengthCountsRunes(t *testing.T) {
	// Nine runes but eighteen bytes: a byte count would let it through.
	short := strings.Repeat("é", 9)
	svc, _ := newTestService(&fakeStore{})
	_, err := svc.RejectBriefing(context.Background(), staffSession(), "brf_1", short)
	wantDomainError(t, err, 422, "VALIDATION_ERROR")

	// Three hundred runes but six hundred bytes: a byte count would refuse it.
	long := strings.Repeat("é", 300)
	rejected := false
	st := &fakeStore{
		getBriefing: func(_ context.Context, id string) (store.Briefing, error) {
			return ownedBriefing(id, "usr_client", lifecycle.BriefingSubmitted), nil
		},
		rejectBriefing: func(_ context.Context, _, got string) error {
			if got != long {
				t.Errorf("reason = %q", got)
			}
			rejected = true
			return nil
		},
	}
	svc, _ = newTestService(st)
	if _, err := svc.RejectBriefing(context.Background(), staffSession(), "brf_1", long); err != nil {
		t.Fatalf("RejectBriefing failed: %v", err)
	}
	if !rejected {
		t.Error("a 300-rune reason must reach storage")
	}
}

// ── project status ──

func TestUpdateProjectStatusForbiddenBeforeTransitionCheck(t *testing.T) {
	st := &fakeStore{
		getProject: func(_ context.Context, id string) (store.Project, error) {
			t.Error("store must not be consulted before authorization")
			return store.Project{}, sql.ErrNoRows
		},
	}
	svc, _ := newTestService(st)

	// Even a nonsensical transition yields 403 for a client, not a hint.
	_, err := svc.UpdateProjectStatus(context.Background(), clientSession(), "prj_1", lifecycle.ProjectArchived)
	wantDomainError(t, err, 403, "FORBIDDEN")
}

func TestUpdateProjectStatusCompletion(t *testing.T) {
	ownerID := "usr_client"
	var stampedCompleted bool
	st := &fakeStore{
		getProject: func(_ context.Context, id string) (store.Project, error) {
			return store.Project{ID: id, OwnerID: &ownerID, Status: lifecycle.ProjectActive}, nil
		},
		updateProjectStatus: func(_ context.Context, _, from, to string, stampStarted, stampCompleted bool) error {
			if from != lifecycle.ProjectActive || to != lifecycle.ProjectCompleted {
				t.Errorf("transition %q -> %q", from, to)
			}
			stampedCompleted = stampCompleted
			return nil
		},
	}
	svc, events := newTestService(st)

	if _, err := svc.UpdateProjectStatus(context.Background(), staffSession(), "prj_1", lifecycle.ProjectCompleted); err != nil {
		t.Fatalf("UpdateProjectStatus failed: %v", err)
	}
	if !stampedCompleted {
		t.Error("completion must stamp completedAt")
	}
	if len(events.emitted) != 1 || events.emitted[0] != "project.completed" {
		t.Errorf("events = %v", events.emitted)
	}
}

func TestUpdateProjectStatusInvalidTransition(t *testing.T) {
	st := &fakeStore{
		getProject: func(_ context.Context, id string) (store.Project, error) {
			return store.Project{ID: id, Status: lifecycle.ProjectCancelled}, nil
		},
	}
	svc, _ := newTestService(st)

	_, err := svc.UpdateProjectStatus(context.Background(), adminSession(), "prj_1", lifecycle.ProjectActive)
	wantDomainError(t, err, 422, "INVALID_TRANSITION")
}

// ── milestone toggle ──

func TestToggleMilestoneReturnsRecomputedProgress(t *testing.T) {
	now := time.Now()
	st := &fakeStore{
		getMilestone: func(_ context.Context, id string) (store.Milestone, error) {
			return store.Milestone{ID: id, ProjectID: "prj_1", Name: "Concept", Position: 2}, nil
		},
		toggleMilestone: func(_ context.Context, id string, completed bool) (store.Milestone, store.Project, error) {
			return store.Milestone{ID: id, ProjectID: "prj_1", Name: "Concept", Position: 2, Completed: completed, CompletedAt: &now},
				store.Project{ID: "prj_1", Status: lifecycle.ProjectActive, Progress: 50}, nil
		},
	}
	svc, events := newTestService(st)

	payload, err := svc.ToggleMilestone(context.Background(), staffSession(), "mst_2", true)
	if err != nil {
		t.Fatalf("ToggleMilestone failed: %v", err)
	}
	project := payload["project"].(map[string]any)
	if project["progress"] != 50 {
		t.Errorf("progress = %v, want 50", project["progress"])
	}
	if len(events.emitted) != 1 || events.emitted[0] != "milestone.completed" {
		t.Errorf("events = %v", events.emitted)
	}
}

func TestToggleMilestoneWorksBeforeProjectActivation(t *testing.T) {
	// A project fresh out of approval accepts toggles; the first of its
	// four milestones puts progress at 25.
	st := &fakeStore{
		getMilestone: func(_ context.Context, id string) (store.Milestone, error) {
			return store.Milestone{ID: id, ProjectID: "prj_1", Name: "Kickoff", Position: 1}, nil
		},
		toggleMilestone: func(_ context.Context, id string, completed bool) (store.Milestone, store.Project, error) {
			return store.Milestone{ID: id, ProjectID: "prj_1", Name: "Kickoff", Position: 1, Completed: completed},
				store.Project{ID: "prj_1", Status: lifecycle.ProjectAwaitingApproval, Progress: 25}, nil
		},
	}
	svc, _ := newTestService(st)

	payload, err := svc.ToggleMilestone(context.Background(), staffSession(), "mst_1", true)
	if err != nil {
		t.Fatalf("ToggleMilestone failed: %v", err)
	}
	project := payload["project"].(map[string]any)
	if project["progress"] != 25 {
		t.Errorf("progress = %v, want 25", project["progress"])
	}
	if project["status"] != lifecycle.ProjectAwaitingApproval {
		t.Errorf("status = %v, want AWAITING_APPROVAL", project["status"])
	}
}

func TestToggleMilestoneUnknownIDNotFound(t *testing.T) {
	svc, _ := newTestService(&fakeStore{})
	_, err := svc.ToggleMilestone(context.Background(), staffSession(), "mst_missing", true)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestToggleMilestoneUncompleteEmitsNothing(t *testing.T) {
	st := &fakeStore{
		getMilestone: func(_ context.Context, id string) (store.Milestone, error) {
			return store.Milestone{ID: id, ProjectID: "prj_1", Completed: true}, nil
		},
		toggleMilestone: func(_ context.Context, id string, completed bool) (store.Milestone, store.Project, error) {
			return store.Milestone{ID: id, ProjectID: "prj_1", Completed: completed},
				store.Project{ID: "prj_1", Status: lifecycle.ProjectActive, Progress: 25}, nil
		},
	}
	svc, events := newTestService(st)

	if _, err := svc.ToggleMilestone(context.Background(), staffSession(), "mst_1", false); err != nil {
		t.Fatalf("ToggleMilestone failed: %v", err)
	}
	if len(events.emitted) != 0 {
		t.Errorf("events = %v, want none", events.emitted)
	}
}

// ── listings and visibility ──

func TestListBriefingsClientScopedToOwn(t *testing.T) {
	var gotFilter store.BriefingFilter
	st := &fakeStore{
		listBriefings: func(_ context.Context, filter store.BriefingFilter) ([]store.Briefing, error) {
			gotFilter = filter
			return nil, nil
		},
	}
	svc, _ := newTestService(st)

	_, err := svc.ListBriefings(context.Background(), clientSession(), store.BriefingFilter{OwnerID: "usr_other"})
	if err != nil {
		t.Fatalf("ListBriefings failed: %v", err)
	}
	if gotFilter.OwnerID != "usr_client" {
		t.Errorf("owner filter = %q, want usr_client", gotFilter.OwnerID)
	}
}

func TestListBriefingsStaffMayFilterFreely(t *testing.T) {
	var gotFilter store.BriefingFilter
	st := &fakeStore{
		listBriefings: func(_ context.Context, filter store.BriefingFilter) ([]store.Briefing, error) {
			gotFilter = filter
			return nil, nil
		},
	}
	svc, _ := newTestService(st)

	_, err := svc.ListBriefings(context.Background(), staffSession(), store.BriefingFilter{OwnerID: "usr_other"})
	if err != nil {
		t.Fatalf("ListBriefings failed: %v", err)
	}
	if gotFilter.OwnerID != "usr_other" {
		t.Errorf("owner filter = %q, want usr_other", gotFilter.OwnerID)
	}
}

func TestGetBriefingHidesForeignRecord(t *testing.T) {
	st := &fakeStore{
		getBriefing: func(_ context.Context, id string) (store.Briefing, error) {
			return ownedBriefing(id, "usr_other", lifecycle.BriefingSubmitted), nil
		},
	}
	svc, _ := newTestService(st)

	// A foreign briefing is indistinguishable from a missing one.
	_, err := svc.GetBriefing(context.Background(), clientSession(), "brf_1")
	wantDomainError(t, err, 404, "NOT_FOUND")
}

// ── retention endpoint ──

func TestRunRetentionStaffForbidden(t *testing.T) {
	svc, _ := newTestService(&fakeStore{})
	_, err := svc.RunRetention(context.Background(), staffSession())
	wantDomainError(t, err, 403, "FORBIDDEN")
}

func TestRunRetentionUnavailableWithoutRunner(t *testing.T) {
	svc, _ := newTestService(&fakeStore{})
	_, err := svc.RunRetention(context.Background(), adminSession())
	wantDomainError(t, err, 503, "RETENTION_UNAVAILABLE")
}
