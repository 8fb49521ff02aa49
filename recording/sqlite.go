package recording

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// SummaryEntry is one row of the summary table: one host at one point.
// Host 0 holds the totals.
type SummaryEntry struct {
	Run        string
	Replicate  int
	Generation int
	Host       int
	Pop1       float64
	Pop2       float64
	K1         float64
	K2         float64
}

const summaryTable = "summary"

type table struct {
	structType reflect.Type
	entries    []any
}

// SQLiteRecorder writes rows into a SQLite database, one table entry per
// host per recorded point.
type SQLiteRecorder struct {
	*sql.DB

	run       string
	path      string
	tables    map[string]*table
	batchSize int
	pending   int
	closed    bool
}

// NewSQLiteRecorder creates the database at path+".sqlite3". An empty path
// picks a unique name. The file must not exist yet.
func NewSQLiteRecorder(path, run string) (*SQLiteRecorder, error) {
	if path == "" {
		path = "metapop_" + xid.New().String()
	}

	filename := path + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, err
	}

	r := &SQLiteRecorder{
		DB:        db,
		run:       run,
		path:      filename,
		tables:    make(map[string]*table),
		batchSize: 100000,
	}

	if err := r.createTable(summaryTable, SummaryEntry{}); err != nil {
		db.Close()
		return nil, err
	}

	atexit.Register(func() { _ = r.Close() })

	return r, nil
}

// Path returns the database file.
func (r *SQLiteRecorder) Path() string {
	return r.path
}

func (r *SQLiteRecorder) createTable(name string, sample any) error {
	fields := strings.Join(structs.Names(sample), ", \n\t")

	_, err := r.Exec(`CREATE TABLE ` + name + ` (` + "\n\t" + fields + "\n" + `);`)
	if err != nil {
		return fmt.Errorf("creating table %s: %w", name, err)
	}

	r.tables[name] = &table{structType: reflect.TypeOf(sample)}

	return nil
}

func (r *SQLiteRecorder) insert(name string, entry any) error {
	t, ok := r.tables[name]
	if !ok {
		return fmt.Errorf("table %s does not exist", name)
	}

	if reflect.TypeOf(entry) != t.structType {
		return fmt.Errorf("table %s does not accept %T", name, entry)
	}

	t.entries = append(t.entries, entry)
	r.pending++

	if r.pending >= r.batchSize {
		return r.Flush()
	}

	return nil
}

// Record stores the row.
func (r *SQLiteRecorder) Record(row Row) error {
	for h, s := range row.Hosts {
		err := r.insert(summaryTable, SummaryEntry{
			Run:        r.run,
			Replicate:  row.Replicate,
			Generation: row.Generation,
			Host:       h,
			Pop1:       s.Pop1,
			Pop2:       s.Pop2,
			K1:         s.K1,
			K2:         s.K2,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Flush writes every pending entry in a single transaction.
func (r *SQLiteRecorder) Flush() error {
	if r.pending == 0 {
		return nil
	}

	tx, err := r.Begin()
	if err != nil {
		return err
	}

	for name, t := range r.tables {
		if err := flushTable(tx, name, t); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	r.pending = 0

	return tx.Commit()
}

func flushTable(tx *sql.Tx, name string, t *table) error {
	if len(t.entries) == 0 {
		return nil
	}

	marks := structs.Names(t.entries[0])
	for i := range marks {
		marks[i] = "?"
	}

	stmt, err := tx.Prepare(
		"INSERT INTO " + name + " VALUES (" + strings.Join(marks, ", ") + ")")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, entry := range t.entries {
		if _, err := stmt.Exec(structs.Values(entry)...); err != nil {
			return err
		}
	}

	t.entries = nil

	return nil
}

// Close flushes and closes the database. Closing twice is a no-op.
func (r *SQLiteRecorder) Close() error {
	if r.closed {
		return nil
	}

	r.closed = true

	if err := r.Flush(); err != nil {
		r.DB.Close()
		return err
	}

	return r.DB.Close()
}
