package engine

// ValidationError reports a missing required intent field. No state is
// changed when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
