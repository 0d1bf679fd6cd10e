package progress

import "go.uber.org/zap"

// Emitter publishes individual events; the engine stays agnostic about where
// they go.
type Emitter interface {
	Emit(evt Event)
}

// Sink consumes single events. A streamed response must see every event
// immediately and in emission order, so sinks are invoked synchronously, one
// event at a time, with no batching or drop-on-backpressure.
type Sink interface {
	Consume(evt Event) error
}

// Fanout delivers each event to every sink in registration order. Invalid
// events are discarded; sink failures are logged and do not stop delivery to
// the remaining sinks.
type Fanout struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewFanout builds an Emitter over the given sinks.
func NewFanout(logger *zap.Logger, sinks ...Sink) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{sinks: sinks, logger: logger}
}

// Emit implements Emitter.
func (f *Fanout) Emit(evt Event) {
	if err := evt.Validate(); err != nil {
		f.logger.Debug("discarding invalid progress event", zap.Error(err))
		return
	}
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Consume(evt); err != nil {
			f.logger.Warn("progress sink consume failed", zap.Error(err))
		}
	}
}

// LogSink mirrors the event stream into the structured log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wraps a zap logger as a Sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume implements Sink.
func (s *LogSink) Consume(evt Event) error {
	s.logger.Debug("progress",
		zap.String("type", string(evt.Type)),
		zap.String("phase", string(evt.Phase)),
		zap.Int("discovered", evt.Discovered),
		zap.Int("processed", evt.Processed),
		zap.Int("total", evt.Total),
		zap.String("url", evt.URL),
	)
	return nil
}
