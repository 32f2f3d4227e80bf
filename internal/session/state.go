package session

// State is the lifecycle state of a Session.
//
//	Locked -> Unlocking -> Unlocked <-> Saving
//	              |            |
//	              +-> Locked <-+ (Discard, Close)
type State int32

const (
	StateLocked State = iota
	StateUnlocking
	StateUnlocked
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateUnlocking:
		return "unlocking"
	case StateUnlocked:
		return "unlocked"
	case StateSaving:
		return "saving"
	default:
		return "unknown"
	}
}
