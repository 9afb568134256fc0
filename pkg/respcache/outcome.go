package respcache

import "github.com/closetkit/closet/pkg/models"

// Outcome tags what happened to a Save.
type Outcome int

const (
	// OutcomeStored means the entry was persisted.
	OutcomeStored Outcome = iota
	// OutcomeClearedOnQuota means the store was full and the cache cleared itself.
	OutcomeClearedOnQuota
	// OutcomeClearedOnError means another write error cleared the cache.
	OutcomeClearedOnError
	// OutcomeRejected means the payload was not valid JSON; the cache is unchanged.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStored:
		return "stored"
	case OutcomeClearedOnQuota:
		return "cleared_on_quota"
	case OutcomeClearedOnError:
		return "cleared_on_error"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// SaveResult describes a Save. Err is informational and never needs handling:
// the cache has already recovered.
type SaveResult struct {
	Outcome Outcome
	Entry   models.CacheEntry
	Err     error
}

// Degraded reports whether the save cleared the cache.
func (r SaveResult) Degraded() bool {
	return r.Outcome == OutcomeClearedOnQuota || r.Outcome == OutcomeClearedOnError
}
