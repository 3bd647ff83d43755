package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFatalAPI marks API errors that no retry will fix, such as exhausted
// quota or a bad key. Batch runs abort on it instead of burning through the
// remaining campuses.
var ErrFatalAPI = errors.New("fatal API error")

// fatalPatterns are matched case-insensitively against the error text.
// Provider SDKs do not expose typed quota errors, so string matching it is.
var fatalPatterns = []string{
	"credit balance",
	"insufficient credit",
	"rate limit",
	"quota",
	"billing",
	"invalid api key",
	"api key not valid",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

// isFatalAPIError reports whether err indicates a quota, billing, or
// authentication failure.
func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range fatalPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// wrapFatalError tags fatal API errors with ErrFatalAPI; everything else
// passes through unchanged.
func wrapFatalError(err error) error {
	if err == nil {
		return nil
	}
	if isFatalAPIError(err) {
		return fmt.Errorf("%w: %w", ErrFatalAPI, err)
	}
	return err
}

// IsFatal reports whether err carries the ErrFatalAPI tag.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatalAPI)
}
