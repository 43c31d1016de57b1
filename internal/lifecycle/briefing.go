// Package lifecycle holds the status tables for briefings and projects and
// the progress calculation. Everything here is pure: no storage, no clock.
package lifecycle

// Briefing statuses.
const (
	BriefingDraft       = "DRAFT"
	BriefingSubmitted   = "SUBMITTED"
	BriefingUnderReview = "UNDER_REVIEW"
	BriefingApproved    = "APPROVED"
	BriefingRejected    = "REJECTED"
)

// briefingTransitions lists the targets reachable through the generic
// status-update operation. APPROVED and REJECTED are absent on purpose: they
// are only reachable through the dedicated approve/reject operations.
var briefingTransitions = map[string]map[string]struct{}{
	BriefingDraft:       {BriefingSubmitted: {}},
	BriefingSubmitted:   {BriefingUnderReview: {}, BriefingDraft: {}},
	BriefingUnderReview: {BriefingSubmitted: {}},
	BriefingApproved:    {},
	BriefingRejected:    {},
}

func ValidBriefingStatus(status string) bool {
	_, ok := briefingTransitions[status]
	return ok
}

func CanBriefingTransition(from, to string) bool {
	targets, ok := briefingTransitions[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

// BriefingReviewable reports whether a briefing in the given status can be
// approved or rejected.
func BriefingReviewable(status string) bool {
	return status == BriefingSubmitted || status == BriefingUnderReview
}

// BriefingTerminal reports whether the status admits no further transitions.
func BriefingTerminal(status string) bool {
	return status == BriefingApproved || status == BriefingRejected
}
