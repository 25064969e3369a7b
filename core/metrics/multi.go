package metrics

import "errors"

// MultiSink fans records out to several sinks. A failing sink does not stop
// the others; errors are joined.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines the given sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordRun(rec RunRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordRun(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordGroupScores(eventID, algorithm string, scores []float64) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordGroupScores(eventID, algorithm, scores); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
