package slack

import (
	"errors"
	"net"
	"time"

	"github.com/slack-go/slack"
)

// Slack API error codes handled by the connector.
const (
	codeNotInChannel = "not_in_channel"
	codeRateLimited  = "ratelimited"
)

// apiErrorCode returns the Slack "error" field, or "" for non-API errors.
func apiErrorCode(err error) string {
	var resp slack.SlackErrorResponse
	if errors.As(err, &resp) {
		return resp.Err
	}
	return ""
}

// IsNotInChannel reports whether the bot must join the channel first.
func IsNotInChannel(err error) bool {
	return apiErrorCode(err) == codeNotInChannel
}

// rateLimited returns the Retry-After carried by a rate-limit error.
func rateLimited(err error) (retryAfter time.Duration, ok bool) {
	var rl *slack.RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, apiErrorCode(err) == codeRateLimited
}

// isTransient reports whether a failed call may succeed when retried.
// Slack API errors are permanent; HTTP 5xx and network failures are not.
func isTransient(err error) bool {
	if _, ok := rateLimited(err); ok {
		return true
	}
	if apiErrorCode(err) != "" {
		return false
	}
	var status slack.StatusCodeError
	if errors.As(err, &status) {
		return status.Retryable()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
