package metrics

import coremetrics "github.com/tpgship/tpgsim/core/metrics"

// MultiSink fans simulation events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordShipState forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordShipState(ev coremetrics.ShipStateEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordShipState(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordBaseState forwards the event to all sinks.
func (m *MultiSink) RecordBaseState(ev coremetrics.BaseStateEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordBaseState(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordSupportState forwards the event to all sinks.
func (m *MultiSink) RecordSupportState(ev coremetrics.SupportStateEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSupportState(ev); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink, returning the first error.
func (m *MultiSink) Close() error {
	var first error
	for _, s := range m.Sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
