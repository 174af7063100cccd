package core

// Status is the presence state a logged-in user advertises.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusOffline Status = "offline"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusAway, StatusOffline:
		return true
	default:
		return false
	}
}

// Presence is one entry of a presence snapshot.
type Presence struct {
	Username string
	Status   Status
}
