package activity

// DefaultLimit is the number of entries returned when no limit is given.
const DefaultLimit = 20

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	SessionID    string
	RunID        *string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
