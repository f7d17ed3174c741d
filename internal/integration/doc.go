// Package integration drives the client packages against the real backend
// handlers over HTTP. It holds tests only.
package integration
