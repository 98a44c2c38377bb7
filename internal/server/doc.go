// Package server exposes the HTTP API: analysis, history, analytics and
// observability endpoints on an echo router.
package server
