package recording

import "errors"

// A Recorder stores summary rows.
type Recorder interface {
	// Record stores one row. Rows may be buffered until Flush.
	Record(row Row) error

	// Flush writes buffered rows out.
	Flush() error

	// Close flushes and releases the underlying resources.
	Close() error
}

// MultiRecorder forwards every row to several recorders.
type MultiRecorder struct {
	recorders []Recorder
}

// NewMultiRecorder creates a recorder that fans out to rs.
func NewMultiRecorder(rs ...Recorder) *MultiRecorder {
	return &MultiRecorder{recorders: rs}
}

// Record forwards the row to every recorder and stops at the first error.
func (m *MultiRecorder) Record(row Row) error {
	for _, r := range m.recorders {
		if err := r.Record(row); err != nil {
			return err
		}
	}

	return nil
}

// Flush flushes every recorder.
func (m *MultiRecorder) Flush() error {
	var errs []error
	for _, r := range m.recorders {
		errs = append(errs, r.Flush())
	}

	return errors.Join(errs...)
}

// Close closes every recorder.
func (m *MultiRecorder) Close() error {
	var errs []error
	for _, r := range m.recorders {
		errs = append(errs, r.Close())
	}

	return errors.Join(errs...)
}
