package ir

// Version constants for persisted documents and the engine.
const (
	// RouteVersion is the route document schema version.
	RouteVersion = 2

	// RecordVersion is the personal best / golds document schema version.
	RecordVersion = 1

	// EngineVersion is the splitkeeper engine version.
	EngineVersion = "0.3.0"
)
