package log

// Logger is the sink for catalog, index, lookup and error events. The
// resolver calls Log on the lookup path, so implementations must be safe for
// concurrent use and return quickly.
type Logger interface {
	Log(event Event)
}

// NoopLogger drops every event. Its zero value is ready to use.
type NoopLogger struct{}

// Log does nothing.
func (NoopLogger) Log(Event) {}

// LoggerFunc adapts a function to the Logger interface.
type LoggerFunc func(Event)

// Log calls f(event).
func (f LoggerFunc) Log(event Event) {
	f(event)
}

var (
	_ Logger = NoopLogger{}
	_ Logger = LoggerFunc(nil)
)
