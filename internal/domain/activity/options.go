package activity

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	ProjectID *uint64
	Type      *Type
	Limit     int
	Offset    int
}
