package lifecycle

// Project statuses.
const (
	ProjectAwaitingApproval = "AWAITING_APPROVAL"
	ProjectActive           = "ACTIVE"
	ProjectPaused           = "PAUSED"
	ProjectCompleted        = "COMPLETED"
	ProjectCancelled        = "CANCELLED"
	ProjectArchived         = "ARCHIVED"
)

var projectTransitions = map[string]map[string]struct{}{
	ProjectAwaitingApproval: {ProjectActive: {}, ProjectCancelled: {}},
	ProjectActive:           {ProjectPaused: {}, ProjectCompleted: {}, ProjectCancelled: {}},
	ProjectPaused:           {ProjectActive: {}, ProjectCancelled: {}},
	ProjectCompleted:        {ProjectArchived: {}},
	ProjectCancelled:        {},
	ProjectArchived:         {},
}

func ValidProjectStatus(status string) bool {
	_, ok := projectTransitions[status]
	return ok
}

func CanProjectTransition(from, to string) bool {
	targets, ok := projectTransitions[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

// MilestoneNames are the four fixed phases created with every project, in
// order. Position is 1-based.
var MilestoneNames = [4]string{"Kickoff", "Concept", "Production", "Delivery"}
