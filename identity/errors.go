package identity

import (
	"errors"
	"net/http"
	"strconv"
)

var (
	// ErrIdentityFetch matches every [*FetchError] under errors.Is.
	ErrIdentityFetch = errors.New("identity fetch failed")
	// ErrUnauthenticated matches a fetch rejected with 401 Unauthorized.
	ErrUnauthenticated = errors.New("identity unauthenticated")
	// ErrSessionExpired matches a fetch rejected with 419 (expired session / CSRF token).
	ErrSessionExpired = errors.New("identity session expired")
	// ErrCredentialsExpired is the cause attached when a bearer token is rejected locally.
	ErrCredentialsExpired = errors.New("bearer token expired")
	// ErrResponseTooLarge is the cause attached when the user payload exceeds MaxResponseBytes.
	ErrResponseTooLarge = errors.New("identity response too large")
)

// StatusSessionExpired is the non-standard status the identity service uses for
// an expired session or CSRF token.
const StatusSessionExpired = 419

// FetchErrorKind classifies why a current-user fetch failed.
type FetchErrorKind uint8

const (
	// KindNetwork covers transport failures, including context cancellation.
	KindNetwork FetchErrorKind = iota + 1
	// KindStatus covers non-2xx responses.
	KindStatus
	// KindDecode covers 2xx responses whose body is not a JSON object.
	KindDecode
	// KindCredentials covers credentials rejected before any network call.
	KindCredentials
)

func (k FetchErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	case KindCredentials:
		return "credentials"
	default:
		return "unknown"
	}
}

// FetchError is the IdentityFetchError: the single error type returned by a
// failed current-user fetch.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	msg := ErrIdentityFetch.Error() + ": " + e.Kind.String()
	if e.Kind == KindStatus && e.StatusCode != 0 {
		msg += " " + strconv.Itoa(e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrIdentityFetch or the status sentinel that
// corresponds to e.StatusCode.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrIdentityFetch:
		return true
	case ErrUnauthenticated:
		return e.Kind == KindStatus && e.StatusCode == http.StatusUnauthorized
	case ErrSessionExpired:
		return e.Kind == KindStatus && e.StatusCode == StatusSessionExpired
	}
	return false
}

// AsFetchError extracts the [*FetchError] from err's chain.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

func statusError(code int) *FetchError {
	return &FetchError{
		Kind:       KindStatus,
		StatusCode: code,
		Err:        errors.New(http.StatusText(code)),
	}
}
