package domain

import "time"

// Summary is the org-scoped analytics roll-up: session counts by status, the
// mean purity over latest results, and the most recent session activity.
type Summary struct {
	Pending        int64
	Processing     int64
	Completed      int64
	Failed         int64
	AveragePurity  float64 // 0 when no completed session has a result
	LastActivityAt *time.Time
}
