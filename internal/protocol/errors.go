package protocol

const (
	// Request/validation layer.
	ErrBadRequest   = "E_BAD_REQUEST"
	ErrUnauthorized = "E_UNAUTHORIZED"
	ErrForbidden    = "E_FORBIDDEN"
	ErrNotFound     = "E_NOT_FOUND"

	// Transport and server.
	ErrNetwork  = "E_NETWORK"
	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest:   {},
	ErrUnauthorized: {},
	ErrForbidden:    {},
	ErrNotFound:     {},
	ErrNetwork:      {},
	ErrInternal:     {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// CodeForStatus maps an HTTP status to an error code. 2xx maps to "".
func CodeForStatus(status int) string {
	switch {
	case status >= 200 && status < 300:
		return ""
	case status == 401:
		return ErrUnauthorized
	case status == 403:
		return ErrForbidden
	case status == 404:
		return ErrNotFound
	case status >= 400 && status < 500:
		return ErrBadRequest
	default:
		return ErrInternal
	}
}
