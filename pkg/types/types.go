package types

// ExitError is an error that carries the process exit status to use.
type ExitError interface {
	Error() string
	ExitStatus() int
}

const (
	// EXIT_CODE_FAILURE is returned when a run could not complete.
	EXIT_CODE_FAILURE = 1
	// EXIT_CODE_USAGE is returned for invalid flags, rule files or source specs.
	EXIT_CODE_USAGE = 2
)

type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

func (e *UsageError) ExitStatus() int {
	return EXIT_CODE_USAGE
}

func NewUsageError(msg string) *UsageError {
	return &UsageError{Msg: msg}
}

// RunError wraps a failure that stopped a run from producing its output.
type RunError struct {
	Err error
}

func (e *RunError) Error() string {
	return e.Err.Error()
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func (e *RunError) ExitStatus() int {
	return EXIT_CODE_FAILURE
}

func NewRunError(err error) *RunError {
	return &RunError{Err: err}
}
