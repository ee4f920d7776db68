package httpclient

import "errors"

// Classifier decides whether a failed attempt may be retried.
type Classifier func(err error) bool

// Classify is the default classifier. HTTP errors are retryable for 5xx
// statuses only, network errors always, and timeouts never. Anything that is
// not a ClientError is terminal.
func Classify(err error) bool {
	return classify(err, false)
}

// RetryTimeouts behaves like Classify but also retries timed-out attempts.
func RetryTimeouts(err error) bool {
	return classify(err, true)
}

func classify(err error, retryTimeouts bool) bool {
	var clientErr ClientError
	if !errors.As(err, &clientErr) {
		return false
	}

	switch clientErr.Type() {
	case HTTPError:
		status, _ := HTTPStatus(err)
		return status >= 500 && status < 600
	case NetworkError:
		return true
	case TimeoutError:
		return retryTimeouts
	case ValidationError, InterceptorError, DecodeError:
		return false
	default:
		return false
	}
}
