// Package httpserver runs an http.Handler until the context is cancelled or
// the process receives SIGINT/SIGTERM, then drains in-flight requests and
// runs the registered shutdown hooks.
package httpserver
