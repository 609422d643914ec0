package application

// TrafficRecorder is the hot-path counter contract a tunnel's relay
// fibers use to report bytes moved in each direction (spec.md §4.6).
// infrastructure/telemetry provides the concrete atomic-counter backed
// implementation and the periodic statistics loop that reads it.
type TrafficRecorder interface {
	AddUp(bytes int)
	AddDown(bytes int)
}
