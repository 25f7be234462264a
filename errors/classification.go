package errors

// ErrorClassification indicates whether an error may succeed on retry.
type ErrorClassification string

const (
	// ClassificationRetryable marks temporary failures.
	ClassificationRetryable ErrorClassification = "RETRYABLE"

	// ClassificationPermanent marks failures that will not go away on retry.
	ClassificationPermanent ErrorClassification = "PERMANENT"
)

// IsRetryable returns true if the classification indicates retry should be attempted.
func (c ErrorClassification) IsRetryable() bool {
	return c == ClassificationRetryable
}

// Cache state errors are permanent: rerunning without changing the
// filesystem or the flags yields the same decision.
var defaultClassifications = map[ErrorCode]ErrorClassification{
	CodeTimeout:     ClassificationRetryable,
	CodeUnavailable: ClassificationRetryable,

	CodeNotFound:      ClassificationPermanent,
	CodeAlreadyExists: ClassificationPermanent,
	CodeConflict:      ClassificationPermanent,
	CodeInvalidInput:  ClassificationPermanent,
	CodeInvalidConfig: ClassificationPermanent,

	CodeExecutionFailed: ClassificationPermanent,

	CodeToolingUnavailable:       ClassificationPermanent,
	CodeCanonicalMissing:         ClassificationPermanent,
	CodeAliasConflict:            ClassificationPermanent,
	CodeAliasOccupied:            ClassificationPermanent,
	CodeLinkVerificationFailed:   ClassificationPermanent,
	CodeResolutionCycle:          ClassificationPermanent,
	CodeRemoteRegistrationFailed: ClassificationPermanent,
	CodeIndexUpdateFailed:        ClassificationPermanent,

	CodeInternal: ClassificationPermanent,
	CodeUnknown:  ClassificationPermanent,
}

func getDefaultClassification(code ErrorCode) ErrorClassification {
	if class, ok := defaultClassifications[code]; ok {
		return class
	}
	return ClassificationPermanent
}
