// Package httpclient is a resilient REST client for talking to the scaffold
// generation backend.
//
// Every logical call runs through an Executor:
//   - Each attempt runs under WithTimeout, which races the transport call
//     against a timer and reports a TimeoutError when the timer wins.
//   - A failed attempt is classified. HTTP 5xx and network errors are
//     retried; 4xx, timeouts, validation, interceptor and decode errors are
//     not. Builder.WithRetryOnTimeout opts timeouts into retries.
//   - Retries wait Schedule.Delay(attempt). The default schedule is 1s, 2s,
//     4s and the last delay is reused past its end. The default budget is 3
//     retries (4 attempts).
//   - The last failure is returned as-is once the budget is spent.
//
// Decoding
//   - Client.JSON decodes successful bodies into a value. Failed responses
//     become HTTP errors whose message is taken from the "detail" field of
//     the body (see NormalizeMessage).
//   - Client.Blob returns successful bodies unmodified and falls back to the
//     body text when an error body is not JSON.
//
// Notes
//   - Request bodies are re-sent by rebuilding the http.Request on each attempt.
//   - All attempts of a call share one X-Request-ID and carry W3C trace context.
//   - Interceptor errors are not retried and are surfaced immediately.
package httpclient
