package tracing

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/structs"
	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
	"k8s.io/klog/v2"
)

const (
	taskTable = "psm_transitions"
	stepTable = "psm_steps"
)

// ErrDatabaseExists is returned when the trace file is already present.
var ErrDatabaseExists = errors.New("tracing: database already exists")

// SQLiteBackend writes tasks into a SQLite database in batches.
type SQLiteBackend struct {
	db        *sql.DB
	path      string
	batchSize int

	tasks []Task
	steps []Step
}

// NewSQLiteBackend creates the database name.sqlite3. An empty name picks
// a unique one. Buffered tasks are flushed at exit.
func NewSQLiteBackend(name string) (*SQLiteBackend, error) {
	if name == "" {
		name = "psm_trace_" + xid.New().String()
	}

	path := name + ".sqlite3"
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDatabaseExists, path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	b := &SQLiteBackend{db: db, path: path, batchSize: 10000}

	if err := b.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	klog.V(2).InfoS("trace database created", "path", path)
	atexit.Register(func() {
		if err := b.Flush(); err != nil {
			klog.ErrorS(err, "trace flush failed", "path", path)
		}
	})

	return b, nil
}

// Path returns the database file.
func (b *SQLiteBackend) Path() string {
	return b.path
}

func (b *SQLiteBackend) createTables() error {
	for _, t := range []struct {
		name   string
		sample any
	}{
		{taskTable, taskRow{}},
		{stepTable, Step{}},
	} {
		columns := strings.Join(structs.Names(t.sample), ",\n\t")
		stmt := "CREATE TABLE " + t.name + " (\n\t" + columns + "\n);"

		if _, err := b.db.Exec(stmt); err != nil {
			return fmt.Errorf("create %s: %w", t.name, err)
		}
	}

	return nil
}

// WriteTask implements Backend.
func (b *SQLiteBackend) WriteTask(task Task) {
	b.tasks = append(b.tasks, task)
	b.flushIfFull()
}

// WriteStep implements Backend.
func (b *SQLiteBackend) WriteStep(step Step) {
	b.steps = append(b.steps, step)
	b.flushIfFull()
}

func (b *SQLiteBackend) flushIfFull() {
	if len(b.tasks)+len(b.steps) < b.batchSize {
		return
	}

	if err := b.Flush(); err != nil {
		klog.ErrorS(err, "trace flush failed", "path", b.path)
	}
}

// Flush writes the buffered tasks and steps in one transaction.
func (b *SQLiteBackend) Flush() error {
	if len(b.tasks) == 0 && len(b.steps) == 0 {
		return nil
	}

	tx, err := b.db.Begin()
	if err != nil {
		return err
	}

	for _, task := range b.tasks {
		if err := insert(tx, taskTable, rowOf(task)); err != nil {
			return errors.Join(err, tx.Rollback())
		}
	}

	for _, step := range b.steps {
		if err := insert(tx, stepTable, step); err != nil {
			return errors.Join(err, tx.Rollback())
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	b.tasks, b.steps = nil, nil

	return nil
}

// Close flushes and closes the database.
func (b *SQLiteBackend) Close() error {
	return errors.Join(b.Flush(), b.db.Close())
}

func insert(tx *sql.Tx, table string, row any) error {
	names := structs.Names(row)

	marks := make([]string, len(names))
	for i := range marks {
		marks[i] = "?"
	}

	stmt := "INSERT INTO " + table +
		" (" + strings.Join(names, ", ") + ")" +
		" VALUES (" + strings.Join(marks, ", ") + ")"

	_, err := tx.Exec(stmt, structs.Values(row)...)

	return err
}

// taskRow is the flat column layout of a Task.
type taskRow struct {
	ID        string
	Session   string
	Island    string
	Op        string
	FromPhase string
	ToPhase   string
	StartTick int64
	EndTick   int64
	Steps     int
	Err       string
}

func rowOf(t Task) taskRow {
	return taskRow{
		ID:        t.ID,
		Session:   t.Session,
		Island:    t.Island,
		Op:        t.Op,
		FromPhase: t.From,
		ToPhase:   t.To,
		StartTick: int64(t.StartTick),
		EndTick:   int64(t.EndTick),
		Steps:     t.Steps,
		Err:       t.Err,
	}
}

// ReadTasks loads the tasks of a trace database, in start order, that pass
// every filter.
func ReadTasks(path string, filters ...TaskFilter) ([]Task, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query("SELECT " +
		strings.Join(structs.Names(taskRow{}), ", ") +
		" FROM " + taskTable + " ORDER BY StartTick, rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task

	for rows.Next() {
		var r taskRow
		if err := rows.Scan(&r.ID, &r.Session, &r.Island, &r.Op,
			&r.FromPhase, &r.ToPhase, &r.StartTick, &r.EndTick,
			&r.Steps, &r.Err); err != nil {
			return nil, err
		}

		t := Task{
			ID: r.ID, Session: r.Session, Island: r.Island, Op: r.Op,
			From: r.FromPhase, To: r.ToPhase,
			StartTick: uint64(r.StartTick), EndTick: uint64(r.EndTick),
			Steps: r.Steps, Err: r.Err,
		}

		if keep(t, filters) {
			tasks = append(tasks, t)
		}
	}

	return tasks, rows.Err()
}

func keep(t Task, filters []TaskFilter) bool {
	for _, f := range filters {
		if !f(t) {
			return false
		}
	}

	return true
}
