package store

import "time"

type User struct {
	ID                    string
	DisplayName           string
	Email                 string
	PasswordHash          string
	Role                  string
	LegalHold             bool
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	RetentionWarnedAt     *time.Time
	LastLoginAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// LastActivity is the reference point for inactivity age: last login when
// the user has logged in at least once, account creation otherwise.
func (u User) LastActivity() time.Time {
	if u.LastLoginAt != nil {
		return *u.LastLoginAt
	}
	return u.CreatedAt
}

// Briefing is a client's structured project request. OwnerID is nullable
// because retention detaches or anonymizes the owner link while keeping the
// record for statistics or statutory holds.
type Briefing struct {
	ID              string
	OwnerID         *string
	ServiceCategory string
	Summary         string
	Goals           string
	Status          string
	RejectionReason *string
	IsContractual   bool
	ProjectID       *string
	SubmittedAt     *time.Time
	ReviewedAt      *time.Time
	HoldExpiresAt   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Project is the tracked unit of work created from an approved briefing.
// BriefingID is nullable: retention may remove a non-contractual briefing
// while its contractual project survives detached.
type Project struct {
	ID            string
	OwnerID       *string
	BriefingID    *string
	Name          string
	Status        string
	Progress      int
	IsContractual bool
	StartedAt     *time.Time
	CompletedAt   *time.Time
	HoldExpiresAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Milestone struct {
	ID          string
	ProjectID   string
	Name        string
	Position    int
	Completed   bool
	CompletedAt *time.Time
}

type AuditEvent struct {
	ID        int64
	EventType string
	ActorID   string
	ActorName string
	SubjectID string
	Payload   map[string]any
	CreatedAt time.Time
}

// PurgeResult summarises one user's retention deletion.
type PurgeResult struct {
	BriefingsDeleted  int
	ProjectsDeleted   int
	BriefingsDetached int
	ProjectsDetached  int
}

// Preserved reports whether any record survived under legal hold.
func (r PurgeResult) Preserved() bool {
	return r.BriefingsDetached > 0 || r.ProjectsDetached > 0
}

// BriefingFilter narrows briefing listings. Zero values mean "no filter".
type BriefingFilter struct {
	OwnerID string
	Status  string
	Query   string
	Since   time.Time
	Until   time.Time
	Limit   int
}

type ProjectFilter struct {
	OwnerID string
	Status  string
	Query   string
	Since   time.Time
	Until   time.Time
	Limit   int
}
