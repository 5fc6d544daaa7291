package domain

// Status is a record's lifecycle state. The value doubles as the status
// directory name; the community directory name is kept for layout
// compatibility with existing submission trees.
type Status string

const (
	StatusPending  Status = "community"
	StatusApproved Status = "approved"
	StatusDeleted  Status = "deleted"
)

// Dir returns the on-disk directory name for the status.
func (s Status) Dir() string { return string(s) }

// Public returns the API-facing name for the status.
func (s Status) Public() string {
	if s == StatusPending {
		return "pending"
	}
	return string(s)
}

// ParseStatus maps both the API-facing and on-disk names to a Status.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "pending", "community":
		return StatusPending, true
	case "approved":
		return StatusApproved, true
	case "deleted":
		return StatusDeleted, true
	}
	return "", false
}
