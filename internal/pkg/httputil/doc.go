// Package httputil holds the JSON response envelope shared by the API
// handlers and the mapping of optimizer and service errors to HTTP statuses.
package httputil
