// Package errors provides the structured error taxonomy shared by the
// memory, persona, extraction, and gateway layers.
//
// # Error Categories
//
// Errors fall into three categories:
//
//   - Transient: the operation may succeed if repeated (gateway hiccups,
//     rate limits, timeouts)
//   - Permanent: repeating will not help (unknown persona, invalid input)
//   - Internal: unexpected failures and corrupted state
//
// # Usage
//
// Create an error for a known failure:
//
//	err := errors.UnknownPersona("grump", []string{"cheerful", "gremlin"})
//
// Wrap a lower-level error with context:
//
//	err := errors.Wrap(ioErr, errors.CodeStorage, "saving memory file")
//
// Inspect an error at a handling boundary:
//
//	if errors.CodeOf(err) == errors.CodeGateway {
//	    // treat as "nothing to remember"
//	}
package errors
