package retrieval

import "errors"

var (
	ErrMalformedIdentifier = errors.New("malformed identifier")
	ErrRetryExhausted      = errors.New("captcha retry budget exhausted")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUnexpectedResponse  = errors.New("unexpected response shape")
	ErrUnknownSite         = errors.New("unknown site")
)
