package identity

import "fmt"

// Kind is the normalized error vocabulary exposed to callers. The raw
// provider message stays inside ProviderError for logging only.
type Kind string

const (
	KindDuplicate    Kind = "duplicate"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindValidation   Kind = "validation"
	KindUnknown      Kind = "unknown"
)

// ProviderError wraps a provider failure with its normalized kind.
type ProviderError struct {
	Kind    Kind
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider: %s: %s", e.Kind, e.Message)
}

// KindOf extracts the normalized kind from an error, defaulting to unknown.
func KindOf(err error) Kind {
	if pe, ok := err.(*ProviderError); ok {
		return pe.Kind
	}
	return KindUnknown
}

// classify maps a provider HTTP status and optional error code to a Kind.
func classify(status int, code string) Kind {
	switch code {
	case "user_already_exists", "email_exists":
		return KindDuplicate
	case "user_not_found":
		return KindNotFound
	case "invalid_credentials", "session_expired", "refresh_token_not_found":
		return KindUnauthorized
	case "validation_failed", "weak_password":
		return KindValidation
	}

	switch status {
	case 400, 422:
		return KindValidation
	case 401, 403:
		return KindUnauthorized
	case 404:
		return KindNotFound
	case 409:
		return KindDuplicate
	}
	return KindUnknown
}
