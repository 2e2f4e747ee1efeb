package sources

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// Errors returned by sources. Callers match them with errors.Is.
var (
	ErrDisabled          = errors.New("source disabled: missing credentials")
	ErrAuthentication    = errors.New("authentication failed")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrNetwork           = errors.New("network failure")
	ErrMalformedResponse = errors.New("malformed response")
	ErrUnexpectedStatus  = errors.New("unexpected response status")
)

// checkResponse maps a transport error or a non-2xx response to one of the
// source errors.
func checkResponse(name string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s request failed: %w: %w", name, ErrNetwork, err)
	}

	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%s API returned status %d: %w", name, code, ErrRateLimited)
	case code == http.StatusForbidden && resp.Header().Get("X-RateLimit-Remaining") == "0":
		// GitHub reports primary rate limits as 403
		return fmt.Errorf("%s API returned status %d: %w", name, code, ErrRateLimited)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%s API returned status %d: %w", name, code, ErrAuthentication)
	case code >= 500:
		return fmt.Errorf("%s API returned status %d: %w", name, code, ErrNetwork)
	default:
		return fmt.Errorf("%s API returned status %d: %s: %w", name, code, truncateBody(resp.Body()), ErrUnexpectedStatus)
	}
}

func truncateBody(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
