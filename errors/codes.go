package errors

// Category classifies errors by their retry semantics.
type Category string

const (
	// CategoryTransient indicates failures where a later attempt may succeed.
	// Examples: gateway timeouts, rate limits, temporary unavailability.
	CategoryTransient Category = "transient"

	// CategoryPermanent indicates failures where retrying will not help.
	// Examples: unknown persona name, invalid input.
	CategoryPermanent Category = "permanent"

	// CategoryInternal indicates unexpected errors or corrupted state.
	CategoryInternal Category = "internal"
)

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c Category) IsRetryable() bool {
	return c == CategoryTransient
}

// Code identifies a specific failure type.
type Code string

// Error codes for the failure scenarios this engine distinguishes.
const (
	// Gateway failures (transient)
	CodeGateway     Code = "GATEWAY_FAILURE" // Generation gateway call failed
	CodeRateLimited Code = "RATE_LIMITED"    // Gateway rejected the call for rate/capacity reasons
	CodeTimeout     Code = "TIMEOUT"         // Gateway call timed out

	// Caller mistakes (permanent)
	CodeUnknownPersona Code = "UNKNOWN_PERSONA" // Persona name is not in the catalog
	CodeInvalidInput   Code = "INVALID_INPUT"   // Malformed or empty input
	CodeNotFound       Code = "NOT_FOUND"       // Requested entity does not exist

	// State failures (internal)
	CodeStorage      Code = "STORAGE_FAILURE" // Persisted document unreadable or unwritable
	CodeCorruptState Code = "CORRUPT_STATE"   // Persisted document parsed but made no sense
	CodeInternal     Code = "INTERNAL"        // Unexpected internal error
)

// String returns the string representation of the code.
func (c Code) String() string {
	return string(c)
}

// DefaultCategory returns the category a code belongs to.
func (c Code) DefaultCategory() Category {
	switch c {
	case CodeGateway, CodeRateLimited, CodeTimeout:
		return CategoryTransient
	case CodeUnknownPersona, CodeInvalidInput, CodeNotFound:
		return CategoryPermanent
	default:
		return CategoryInternal
	}
}

// codeDescriptions provides human-readable descriptions for error codes.
var codeDescriptions = map[Code]string{
	CodeGateway:        "generation gateway call failed",
	CodeRateLimited:    "generation gateway rate limited",
	CodeTimeout:        "generation gateway timed out",
	CodeUnknownPersona: "persona not in catalog",
	CodeInvalidInput:   "invalid input provided",
	CodeNotFound:       "not found",
	CodeStorage:        "storage failure",
	CodeCorruptState:   "persisted state is corrupt",
	CodeInternal:       "internal error",
}

// Description returns a human-readable description for the error code.
func (c Code) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
