package lifecycle

import "math"

// Progress returns the completion percentage for a milestone set. A project
// with no milestones reports 0.
func Progress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}
