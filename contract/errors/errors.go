package errors

// Error codes for the bus contracts and the domain. Keep stable; used across adapters, bus and services.
const (
	ErrCodeHandlerExists       = "servicebus.handler_exists"
	ErrCodeHandlerTypeMismatch = "servicebus.handler_type_mismatch"
	ErrCodeHandlerFailed       = "servicebus.handler_failed"
	ErrCodeInvalidHandler      = "servicebus.invalid_handler"
	ErrCodeInvalidEvent        = "servicebus.invalid_event"
	ErrCodeRecursionLimit      = "servicebus.recursion_limit"
	ErrCodeCascadePartial      = "servicebus.cascade_partial"
	ErrCodePublishFailed       = "servicebus.publish_failed"
	ErrCodeSerializationFailed = "servicebus.serialization_failed"

	ErrCodeEntityNotFound      = "domain.entity_not_found"
	ErrCodeEntityAlreadyExists = "domain.entity_already_exists"
	ErrCodeEntityInvalid       = "domain.entity_invalid"
	ErrCodeAssertionFailed     = "domain.assertion_failed"
	ErrCodeInvalidValue        = "domain.invalid_value"
	ErrCodeInsufficientFunds   = "domain.insufficient_funds"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }

var (
	ErrHandlerExists       = Code(ErrCodeHandlerExists)
	ErrHandlerTypeMismatch = Code(ErrCodeHandlerTypeMismatch)
	ErrHandlerFailed       = Code(ErrCodeHandlerFailed)
	ErrInvalidHandler      = Code(ErrCodeInvalidHandler)
	ErrInvalidEvent        = Code(ErrCodeInvalidEvent)
	ErrRecursionLimit      = Code(ErrCodeRecursionLimit)
	ErrCascadePartial      = Code(ErrCodeCascadePartial)
	ErrPublishFailed       = Code(ErrCodePublishFailed)
	ErrSerializationFailed = Code(ErrCodeSerializationFailed)

	ErrEntityNotFound      = Code(ErrCodeEntityNotFound)
	ErrEntityAlreadyExists = Code(ErrCodeEntityAlreadyExists)
	ErrEntityInvalid       = Code(ErrCodeEntityInvalid)
	ErrAssertionFailed     = Code(ErrCodeAssertionFailed)
	ErrInvalidValue        = Code(ErrCodeInvalidValue)
	ErrInsufficientFunds   = Code(ErrCodeInsufficientFunds)
)
