package rerrors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	// ErrCodeReproducibility indicates uncommitted tracked changes without an
	// accepted override. Always fatal before any collaborator is built.
	ErrCodeReproducibility ErrorCode = "REPRODUCIBILITY_ERROR"
	// ErrCodeConfiguration indicates an unparsable config file, a missing
	// required key, or an invalid device specification.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeRunFailure indicates a failure raised by the fit loop or one of
	// its collaborators. Never retried.
	ErrCodeRunFailure ErrorCode = "RUN_FAILURE"
	// ErrCodeInternal indicates an unexpected orchestration failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var preRunCodes = map[ErrorCode]bool{
	ErrCodeReproducibility: true,
	ErrCodeConfiguration:   true,
}

// IsPreRunCode reports whether the code describes a failure that must occur
// before any collaborator is constructed.
func IsPreRunCode(code ErrorCode) bool {
	return preRunCodes[code]
}

// ExitCode maps an error code to the process exit code.
func ExitCode(code ErrorCode) int {
	switch code {
	case ErrCodeConfiguration:
		return 2
	case ErrCodeReproducibility:
		return 3
	default:
		return 1
	}
}
