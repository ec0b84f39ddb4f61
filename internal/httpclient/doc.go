// Package httpclient implements the http_request command: the frontend hands over a request description,
// the host sends it and returns status, headers and body as plain strings.
//
// Requests go through go-retryablehttp so transient failures can be retried; retries are off by default.
package httpclient
