package engine

// Kind enumerates the error taxonomy of spec §7. Only the fatal kinds
// (InvalidSettings, InvalidGrade, InternalInvariantError) ever escape
// Solve as an error;
// the rest are recorded as Diagnostics or reflected in Output.Status.
type Kind string

const (
	KindInvalidSettings        Kind = "INVALID_SETTINGS"
	KindInvalidGrade           Kind = "INVALID_GRADE"
	KindUnknownReference       Kind = "UNKNOWN_REFERENCE"
	KindNoSuitableClassroom    Kind = "NO_SUITABLE_CLASSROOM"
	KindConstraintRejection    Kind = "CONSTRAINT_REJECTION"
	KindCancelled              Kind = "CANCELLED"
	KindDeadlineExceeded       Kind = "DEADLINE_EXCEEDED"
	KindInternalInvariantError Kind = "INTERNAL_INVARIANT_ERROR"
)

// Error is the engine's boundary error type. It carries no HTTP awareness
// (that mapping is the driver's job, see pkg/errors) and no wrapped cause
// beyond Message since the engine never wraps third-party errors.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return string(e.Kind) + ": " + e.Message
}

// IsFatal reports whether this Kind aborts the run with an error rather
// than being absorbed into Diagnostics/Status.
func (k Kind) IsFatal() bool {
	return k == KindInvalidSettings || k == KindInvalidGrade || k == KindInternalInvariantError
}
