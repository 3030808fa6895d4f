package notestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"example.com/friendship-notes/internal/db"
)

const createTable = `
	CREATE TABLE IF NOT EXISTS shared_notes (
		id         TEXT PRIMARY KEY,
		note       TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)
`

// SQL stores notes in the shared_notes table of a postgres or sqlite database.
type SQL struct {
	db *db.DB

	stmtInsert *sql.Stmt
	stmtGet    *sql.Stmt

	newID func() (string, error)
	now   func() time.Time
}

// NewSQL creates the table when missing and prepares the statements.
func NewSQL(ctx context.Context, conn *db.DB) (*SQL, error) {
	if _, err := conn.SQL.ExecContext(ctx, createTable); err != nil {
		return nil, fmt.Errorf("create shared_notes: %w", err)
	}

	ins, err := conn.SQL.PrepareContext(ctx, rebind(conn.Driver, `
		INSERT INTO shared_notes (id, note, created_at) VALUES (?, ?, ?)
	`))
	if err != nil {
		return nil, err
	}

	get, err := conn.SQL.PrepareContext(ctx, rebind(conn.Driver, `
		SELECT note FROM shared_notes WHERE id = ?
	`))
	if err != nil {
		_ = ins.Close()
		return nil, err
	}

	return &SQL{
		db:         conn,
		stmtInsert: ins,
		stmtGet:    get,
		newID:      NewID,
		now:        time.Now,
	}, nil
}

func (s *SQL) Save(ctx context.Context, note string) (string, error) {
	id, err := s.newID()
	if err != nil {
		return "", err
	}
	if _, err := s.stmtInsert.ExecContext(ctx, id, note, s.now().UTC()); err != nil {
		return "", fmt.Errorf("insert note: %w", err)
	}
	return id, nil
}

func (s *SQL) Get(ctx context.Context, id string) (string, bool, error) {
	var note string
	err := s.stmtGet.QueryRowContext(ctx, id).Scan(&note)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select note: %w", err)
	}
	return note, true, nil
}

func (s *SQL) Close() error {
	for _, st := range []*sql.Stmt{s.stmtInsert, s.stmtGet} {
		if st != nil {
			_ = st.Close()
		}
	}
	return s.db.Close()
}

// rebind turns ? placeholders into $n for postgres.
func rebind(driver, query string) string {
	if driver != db.DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
