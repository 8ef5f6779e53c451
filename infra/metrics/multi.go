package metrics

// MultiSink fanouts stage results to multiple sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordStageResult forwards the record to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordStageResult(res []StageResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordStageResult(res); err != nil {
			return err
		}
	}
	return nil
}
