package errors

// ErrorCode represents a specific error condition.
// Codes are strings so they read well in logs and serialize naturally.
type ErrorCode string

const (
	// Resource errors.

	// CodeNotFound indicates a requested resource does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a resource already exists and cannot be created again.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeConflict indicates a resource state conflict that prevents the operation.
	CodeConflict ErrorCode = "CONFLICT"

	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// Execution errors.

	// CodeExecutionFailed indicates an external command failed.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// Cache errors.

	// CodeToolingUnavailable indicates a required capability (hashing, the
	// document editor) is missing from the environment.
	CodeToolingUnavailable ErrorCode = "TOOLING_UNAVAILABLE"

	// CodeCanonicalMissing indicates the canonical cache entry does not exist.
	CodeCanonicalMissing ErrorCode = "CANONICAL_MISSING"

	// CodeAliasConflict indicates an alias key is already a symlink to a
	// different repository.
	CodeAliasConflict ErrorCode = "ALIAS_CONFLICT"

	// CodeAliasOccupied indicates an alias key path exists and is not a symlink.
	CodeAliasOccupied ErrorCode = "ALIAS_OCCUPIED"

	// CodeLinkVerificationFailed indicates a freshly created alias does not
	// resolve to the canonical entry.
	CodeLinkVerificationFailed ErrorCode = "LINK_VERIFICATION_FAILED"

	// CodeResolutionCycle indicates a symlink chain does not terminate.
	CodeResolutionCycle ErrorCode = "RESOLUTION_CYCLE"

	// CodeRemoteRegistrationFailed indicates an alias could not be added as a
	// remote of the canonical repository.
	CodeRemoteRegistrationFailed ErrorCode = "REMOTE_REGISTRATION_FAILED"

	// CodeIndexUpdateFailed indicates the directory document could not be
	// read or written.
	CodeIndexUpdateFailed ErrorCode = "INDEX_UPDATE_FAILED"

	// System errors.

	// CodeInternal indicates an internal error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnavailable indicates a dependency is temporarily unavailable.
	CodeUnavailable ErrorCode = "SERVICE_UNAVAILABLE"

	// CodeUnknown indicates an unclassified error.
	CodeUnknown ErrorCode = "UNKNOWN"
)
