package lending

import "context"

// ConsistencyLevel defines which database node read-only queries may be served from.
type ConsistencyLevel int

const (
	// StrongConsistency requires reads from the primary database.
	// This is the default, and the lending operations always run on the primary regardless of it.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency allows read-only queries (catalog, summary, current loans) to be served
	// from a replica, trading freshness for a reduced load on the primary.
	EventualConsistency
)

// contextKey is a private type to prevent context key collisions.
type contextKey string

// ConsistencyLevelKey is the context key used to store consistency level preferences.
const ConsistencyLevelKey contextKey = "lending.consistency_level"

// WithStrongConsistency returns a context that signals read-only queries must use the primary database.
//
// This is typically used right after an issue or return when the caller needs to see its own write.
func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, StrongConsistency)
}

// WithEventualConsistency returns a context that signals read-only queries may use a replica.
//
// Example usage:
//
//	ctx = lending.WithEventualConsistency(ctx)
//	items, err := engine.ListItems(ctx)
func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, EventualConsistency)
}

// GetConsistencyLevel extracts the consistency level from the context.
// If no consistency level is set, it returns StrongConsistency as the safe default.
func GetConsistencyLevel(ctx context.Context) ConsistencyLevel {
	if level, ok := ctx.Value(ConsistencyLevelKey).(ConsistencyLevel); ok {
		return level
	}

	return StrongConsistency
}

// String provides a string representation of ConsistencyLevel for logging and debugging.
func (c ConsistencyLevel) String() string {
	switch c {
	case StrongConsistency:
		return "strong"
	case EventualConsistency:
		return "eventual"
	default:
		return "unknown"
	}
}
