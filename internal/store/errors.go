package store

import "errors"

// Sentinel errors returned by transactional writes when a precondition that
// was checked before the transaction no longer holds inside it. Callers map
// these to their own error vocabulary; a concurrent loser fails cleanly
// instead of interleaving partial writes.
var (
	ErrAlreadyLinked = errors.New("briefing already linked to a project")
	ErrStaleStatus   = errors.New("status changed concurrently")
)
