// Package store reads presence feeds from the VRCX SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/vrcxinsight/internal/model"
	"github.com/verte-zerg/vrcxinsight/internal/timeconv"

	_ "modernc.org/sqlite" // SQLite driver.
)

// FeedTablePattern matches the per-user online/offline feed tables.
const FeedTablePattern = "usr%_feed_online_offline"

// busyTimeoutMs lets reads wait out a VRCX write in progress.
const busyTimeoutMs = 3000

// ErrUnknownTable is returned for table names that are not feed tables.
var ErrUnknownTable = errors.New("unknown feed table")

// Store wraps read-only access to a VRCX database.
type Store struct {
	db  *sql.DB
	loc *time.Location
}

// Open opens the database at path read-only. Timestamps are converted to
// naive wall time in loc.
func Open(path string, loc *time.Location) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %w", err)
	}
	dsn, err := makeDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on ping failure.
			_ = cerr
		}
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}
	return &Store{db: db, loc: loc}, nil
}

// makeDSN builds a read-only SQLite URI. The path is made absolute and
// percent-escaped so '?', '#' and '%' in directory names survive.
func makeDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}
	slashed := filepath.ToSlash(abs)
	if !strings.HasPrefix(slashed, "/") {
		// Windows drive paths become /C:/...
		slashed = "/" + slashed
	}
	u := url.URL{Path: slashed}
	return fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(%d)", u.EscapedPath(), busyTimeoutMs), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Location returns the zone timestamps are converted to.
func (s *Store) Location() *time.Location {
	return s.loc
}

// ListFeedTables returns the names of all online/offline feed tables, sorted.
func (s *Store) ListFeedTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE ?`, FeedTablePattern)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(tables)
	return tables, nil
}

// ListEvents returns every presence event for contact in stored order.
func (s *Store) ListEvents(ctx context.Context, table, contact string) ([]model.Event, error) {
	ident, err := s.feedTable(ctx, table)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT type, created_at FROM %s WHERE display_name = ? ORDER BY rowid ASC`, ident)
	rows, err := s.db.QueryContext(ctx, query, contact)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var events []model.Event
	for rows.Next() {
		var kind, createdAt sql.NullString
		if err := rows.Scan(&kind, &createdAt); err != nil {
			return nil, err
		}
		at, err := timeconv.ParseLocal(createdAt.String, s.loc)
		if err != nil {
			return nil, err
		}
		events = append(events, model.Event{
			Type: model.ParseEventType(kind.String),
			At:   at,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// ListOnlineTimes returns the timestamps of Online events. An empty contact
// selects every contact in the table.
func (s *Store) ListOnlineTimes(ctx context.Context, table, contact string) ([]time.Time, error) {
	ident, err := s.feedTable(ctx, table)
	if err != nil {
		return nil, err
	}
	clauses := []string{"type = ?"}
	args := []any{string(model.EventOnline)}
	if contact != "" {
		clauses = append(clauses, "display_name = ?")
		args = append(args, contact)
	}
	query := fmt.Sprintf(`SELECT created_at FROM %s WHERE %s ORDER BY rowid ASC`,
		ident, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var times []time.Time
	for rows.Next() {
		var createdAt sql.NullString
		if err := rows.Scan(&createdAt); err != nil {
			return nil, err
		}
		at, err := timeconv.ParseLocal(createdAt.String, s.loc)
		if err != nil {
			return nil, err
		}
		times = append(times, at)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return times, nil
}

// ListContacts returns the contacts of a table with their Online event
// counts, busiest first.
func (s *Store) ListContacts(ctx context.Context, table string) ([]model.ContactCount, error) {
	ident, err := s.feedTable(ctx, table)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT display_name, SUM(CASE WHEN type = ? THEN 1 ELSE 0 END) AS online
		FROM %s
		WHERE display_name IS NOT NULL AND display_name != ''
		GROUP BY display_name
		ORDER BY online DESC, display_name ASC`, ident)
	rows, err := s.db.QueryContext(ctx, query, string(model.EventOnline))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ContactCount
	for rows.Next() {
		var c model.ContactCount
		if err := rows.Scan(&c.Name, &c.Online); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// feedTable checks table against the discovered feed tables and returns it
// quoted for use as an identifier.
func (s *Store) feedTable(ctx context.Context, table string) (string, error) {
	if table == "" {
		return "", fmt.Errorf("%w: no table selected", ErrUnknownTable)
	}
	tables, err := s.ListFeedTables(ctx)
	if err != nil {
		return "", err
	}
	idx := sort.SearchStrings(tables, table)
	if idx >= len(tables) || tables[idx] != table {
		return "", fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return quoteIdent(table), nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
