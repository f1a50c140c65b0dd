package reservation

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusReleased  Status = "released"
	StatusExpired   Status = "expired"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusReleased, StatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	return s != StatusPending
}

// ReleaseReason selects the terminal status a release transitions to.
type ReleaseReason string

const (
	ReasonReleased ReleaseReason = "released"
	ReasonExpired  ReleaseReason = "expired"
)

func (r ReleaseReason) Status() Status {
	if r == ReasonExpired {
		return StatusExpired
	}
	return StatusReleased
}

func (r ReleaseReason) IsValid() bool {
	return r == ReasonReleased || r == ReasonExpired
}
