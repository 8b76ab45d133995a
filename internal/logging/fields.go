package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. renderer_launch_failed).
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for an operator.
	FieldErrorHint = "error_hint"
	// FieldImpact states what the operator loses when a warning fires.
	FieldImpact = "impact"
	// FieldSessionID tags every line of a diagnostic daemon session.
	FieldSessionID = "session_id"
	// FieldOwner is the caller identity an overlay client was created for.
	FieldOwner = "owner"
	// FieldToken is the per-client id prefix.
	FieldToken = "token"
	// FieldAddress is a host:port pair.
	FieldAddress = "address"
	// FieldAttempt is the 1-based attempt number inside a retry budget.
	FieldAttempt = "attempt"
	// FieldPID is an operating system process id.
	FieldPID = "pid"
)
