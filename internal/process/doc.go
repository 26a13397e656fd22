// Package process reaps the Chrome process tree when the capture engine
// shuts down, so renderer and GPU helpers do not outlive the pool.
package process
