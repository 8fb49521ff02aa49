package recording

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sarchlab/metapop/config"
	"github.com/tebeka/atexit"
)

// Layout decides the columns of the output table.
type Layout struct {
	Model    config.Model
	Timestep bool
	Hosts    int
}

// LayoutOf returns the table layout for a configuration.
func LayoutOf(cfg *config.Config) Layout {
	return Layout{
		Model:    cfg.Model,
		Timestep: cfg.Timestep,
		Hosts:    cfg.Hosts,
	}
}

// Header returns the column names.
func (l Layout) Header() []string {
	h := []string{"rep"}
	if l.Timestep {
		h = append(h, "gen")
	}

	if l.Model == config.ModelSingle {
		return append(h, "pop2", "k2")
	}

	for i := 0; i <= l.Hosts; i++ {
		n := strconv.Itoa(i)
		h = append(h, "pop1."+n, "pop2."+n, "k1."+n, "k2."+n)
	}

	return h
}

// Fields renders a row in the column order of Header.
func (l Layout) Fields(row Row) []string {
	f := []string{strconv.Itoa(row.Replicate)}
	if l.Timestep {
		f = append(f, strconv.Itoa(row.Generation))
	}

	if l.Model == config.ModelSingle {
		t := row.Total()
		return append(f, format(t.Pop2), format(t.K2))
	}

	for _, s := range row.Hosts {
		f = append(f, format(s.Pop1), format(s.Pop2), format(s.K1), format(s.K2))
	}

	return f
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// BaseName returns the parameter-tuple file name stem of a run.
func BaseName(cfg *config.Config) string {
	name := fmt.Sprintf("%s_%d,%d,%d,%.3f,%d,%d,%.5f,%d,%.2f,%.2f,%d,%d",
		cfg.Model, boolDigit(cfg.Timestep), krecordDigit(cfg.KRecord),
		cfg.Replicates, cfg.S, cfg.N0, cfg.K, cfg.U, cfg.Generations,
		cfg.C, cfg.R, cfg.KMax, cfg.Hosts)

	if cfg.Model == config.ModelMeta {
		name += fmt.Sprintf(",%.5f,%.5f", cfg.Mig, cfg.Tr)
	}

	return name
}

func boolDigit(b bool) int {
	if b {
		return 1
	}

	return 0
}

func krecordDigit(s config.LoadStat) int {
	if s == config.LoadMin {
		return 1
	}

	return 0
}

// NextFreePath creates dir if needed and returns the first path
// dir/base(n)ext, n = 0, 1, ..., that does not exist yet.
func NextFreePath(dir, base, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output folder: %w", err)
	}

	for n := 0; ; n++ {
		p := filepath.Join(dir, fmt.Sprintf("%s(%d)%s", base, n, ext))

		_, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			return p, nil
		}

		if err != nil {
			return "", err
		}
	}
}

// CSVWriter writes rows to a CSV file.
type CSVWriter struct {
	path   string
	layout Layout
	file   *os.File
	w      *csv.Writer
	closed bool
}

// NewCSVWriter creates the file at path, which must not exist, and writes
// the header. Buffered rows are flushed when the program exits through
// atexit.
func NewCSVWriter(path string, layout Layout) (*CSVWriter, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}

	w := &CSVWriter{
		path:   path,
		layout: layout,
		file:   f,
		w:      csv.NewWriter(f),
	}

	if err := w.w.Write(layout.Header()); err != nil {
		f.Close()
		return nil, err
	}

	atexit.Register(func() { _ = w.Close() })

	return w, nil
}

// Path returns the file being written.
func (w *CSVWriter) Path() string {
	return w.path
}

// Record buffers a row.
func (w *CSVWriter) Record(row Row) error {
	return w.w.Write(w.layout.Fields(row))
}

// Flush writes buffered rows to the file.
func (w *CSVWriter) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

// Close flushes and closes the file. Closing twice is a no-op.
func (w *CSVWriter) Close() error {
	if w.closed {
		return nil
	}

	w.closed = true

	if err := w.Flush(); err != nil {
		w.file.Close()
		return err
	}

	return w.file.Close()
}
