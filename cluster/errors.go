package cluster

import "fmt"

// Kind enumerates the controller's named failure modes (spec §7).
type Kind int

const (
	KindUnknown Kind = iota
	KindNoLocation
	KindAmbiguousLocation
	KindNoMemberSpec
	KindNoSuchMember
	KindQuorumNotReached
	KindGrowFailed
	KindStopFailed
	KindZoneCapacityExhausted
	KindPlacementInvariant
	KindNotSupported
)

func (k Kind) String() string {
	switch k {
	case KindNoLocation:
		return "NoLocation"
	case KindAmbiguousLocation:
		return "AmbiguousLocation"
	case KindNoMemberSpec:
		return "NoMemberSpec"
	case KindNoSuchMember:
		return "NoSuchMember"
	case KindQuorumNotReached:
		return "QuorumNotReached"
	case KindGrowFailed:
		return "GrowFailed"
	case KindStopFailed:
		return "StopFailed"
	case KindZoneCapacityExhausted:
		return "ZoneCapacityExhausted"
	case KindPlacementInvariant:
		return "PlacementInvariant"
	case KindNotSupported:
		return "NotSupported"
	default:
		return "Unknown"
	}
}

// Error is the single typed error the controller raises, carrying a Kind
// and an optional wrapped cause.
type Error struct {
	Kind  Kind
	Cause error
}

// NewError builds an *Error of the given kind wrapping cause.
func NewError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, NewError(KindNoSuchMember, nil)) match any error
// of the same kind regardless of cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
