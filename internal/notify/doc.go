// Package notify reports split events outside the display: a one-line
// summary per split logged through slog and, when configured, published
// to NATS.
package notify
