package trending

import "errors"

var (
	// ErrInvalidPeriod signals a missing or unknown period type.
	ErrInvalidPeriod = errors.New("invalid period type")
	// ErrInvalidDate signals a malformed snapshot date.
	ErrInvalidDate = errors.New("invalid date")
	// ErrAggregation signals that a snapshot could not be built because the
	// play-event or snapshot store failed. Nothing is persisted in that case.
	ErrAggregation = errors.New("trending aggregation failed")
	// ErrDegraded marks stats served from fallback values. It is logged, never
	// returned to callers.
	ErrDegraded = errors.New("degraded trending result")
)
