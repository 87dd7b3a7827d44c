// Package watch reloads the route when its file changes on disk.
//
// The watcher observes the directory holding the route file, so editors
// that save by writing a temporary file and renaming it over the original
// are seen as well. Bursts of events are debounced into one reload. A
// document that fails to compile is logged and the running route is kept.
package watch
