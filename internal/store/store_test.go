package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/vrcxinsight/internal/model"
	"github.com/verte-zerg/vrcxinsight/internal/timeconv"
)

const testTable = "usrabc_feed_online_offline"

type feedRow struct {
	kind      string
	createdAt string
	name      string
}

func writeFixture(t *testing.T, rows []feedRow) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "VRCX.sqlite3")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()
	stmts := []string{
		`CREATE TABLE usrabc_feed_online_offline (id INTEGER PRIMARY KEY, created_at TEXT, user_id TEXT, display_name TEXT, type TEXT)`,
		`CREATE TABLE usrabc_feed_gps (id INTEGER PRIMARY KEY, created_at TEXT, display_name TEXT)`,
		`CREATE TABLE usrzzz_feed_online_offline (id INTEGER PRIMARY KEY, created_at TEXT, user_id TEXT, display_name TEXT, type TEXT)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("create fixture: %v", err)
		}
	}
	for _, r := range rows {
		if _, err := db.Exec(`INSERT INTO usrabc_feed_online_offline (created_at, user_id, display_name, type) VALUES (?, 'usr_x', ?, ?)`,
			r.createdAt, r.name, r.kind); err != nil {
			t.Fatalf("insert fixture: %v", err)
		}
	}
	return path
}

func openFixture(t *testing.T, rows []feedRow) *Store {
	t.Helper()
	loc, err := timeconv.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	st, err := Open(writeFixture(t, rows), loc)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestListFeedTables(t *testing.T) {
	st := openFixture(t, nil)
	tables, err := st.ListFeedTables(context.Background())
	if err != nil {
		t.Fatalf("list tables: %v", err)
	}
	if len(tables) != 2 || tables[0] != testTable || tables[1] != "usrzzz_feed_online_offline" {
		t.Fatalf("unexpected tables: %v", tables)
	}
}

func TestListEventsConvertsAndKeepsOrder(t *testing.T) {
	st := openFixture(t, []feedRow{
		{kind: "Online", createdAt: "2024-01-01T12:00:00.000Z", name: "Alice"},
		{kind: "Online", createdAt: "2024-01-01T13:00:00.000Z", name: "Bob"},
		{kind: "Offline", createdAt: "2024-01-01T14:30:00.000Z", name: "Alice"},
		{kind: "Online", createdAt: "2024-01-01T10:00:00.000Z", name: "Alice"},
		{kind: "Online", createdAt: "2024-01-01T10:00:00.000Z", name: "alice"},
	})
	events, err := st.ListEvents(context.Background(), testTable, "Alice")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	want := []model.Event{
		{Type: model.EventOnline, At: time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)},
		{Type: model.EventOffline, At: time.Date(2024, 1, 1, 22, 30, 0, 0, time.UTC)},
		{Type: model.EventOnline, At: time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)},
	}
	for i := range want {
		if events[i].Type != want[i].Type || !events[i].At.Equal(want[i].At) {
			t.Fatalf("event %d: expected %+v, got %+v", i, want[i], events[i])
		}
	}
}

func TestListEventsMalformedTimestamp(t *testing.T) {
	st := openFixture(t, []feedRow{
		{kind: "Online", createdAt: "not a date", name: "Alice"},
	})
	_, err := st.ListEvents(context.Background(), testTable, "Alice")
	if !errors.Is(err, timeconv.ErrBadTimestamp) {
		t.Fatalf("expected ErrBadTimestamp, got %v", err)
	}
}

func TestListOnlineTimesContactFilter(t *testing.T) {
	st := openFixture(t, []feedRow{
		{kind: "Online", createdAt: "2024-01-01T12:00:00Z", name: "Alice"},
		{kind: "Offline", createdAt: "2024-01-01T13:00:00Z", name: "Alice"},
		{kind: "Online", createdAt: "2024-01-02T12:00:00Z", name: "Bob"},
	})
	ctx := context.Background()
	all, err := st.ListOnlineTimes(ctx, testTable, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 online times, got %d", len(all))
	}
	alice, err := st.ListOnlineTimes(ctx, testTable, "Alice")
	if err != nil {
		t.Fatalf("list alice: %v", err)
	}
	if len(alice) != 1 || alice[0].Hour() != 20 {
		t.Fatalf("unexpected alice times: %v", alice)
	}
}

func TestListContacts(t *testing.T) {
	st := openFixture(t, []feedRow{
		{kind: "Online", createdAt: "2024-01-01T12:00:00Z", name: "Alice"},
		{kind: "Offline", createdAt: "2024-01-01T13:00:00Z", name: "Alice"},
		{kind: "Online", createdAt: "2024-01-02T12:00:00Z", name: "Bob"},
		{kind: "Online", createdAt: "2024-01-03T12:00:00Z", name: "Bob"},
		{kind: "Offline", createdAt: "2024-01-03T12:00:00Z", name: "Carol"},
	})
	contacts, err := st.ListContacts(context.Background(), testTable)
	if err != nil {
		t.Fatalf("list contacts: %v", err)
	}
	want := []model.ContactCount{{Name: "Bob", Online: 2}, {Name: "Alice", Online: 1}, {Name: "Carol", Online: 0}}
	if len(contacts) != len(want) {
		t.Fatalf("expected %d contacts, got %v", len(want), contacts)
	}
	for i := range want {
		if contacts[i] != want[i] {
			t.Fatalf("contact %d: expected %+v, got %+v", i, want[i], contacts[i])
		}
	}
}

func TestUnknownTableRejected(t *testing.T) {
	st := openFixture(t, nil)
	ctx := context.Background()
	for _, table := range []string{"", "usrabc_feed_gps", `x"; DROP TABLE usrabc_feed_online_offline; --`} {
		if _, err := st.ListEvents(ctx, table, "Alice"); !errors.Is(err, ErrUnknownTable) {
			t.Fatalf("expected ErrUnknownTable for %q, got %v", table, err)
		}
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.sqlite3"), time.UTC); err == nil {
		t.Fatalf("expected error for missing database")
	}
}

func TestOpenIsReadOnly(t *testing.T) {
	st := openFixture(t, nil)
	if _, err := st.db.Exec(`DELETE FROM usrabc_feed_online_offline`); err == nil {
		t.Fatalf("expected write to fail on read-only store")
	}
}

func TestMakeDSNEscapesPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "odd?#%dir")
	dsn, err := makeDSN(filepath.Join(dir, "VRCX.sqlite3"))
	if err != nil {
		t.Fatalf("make dsn: %v", err)
	}
	if !strings.HasPrefix(dsn, "file:/") {
		t.Fatalf("expected absolute file URI, got %q", dsn)
	}
	if !strings.HasSuffix(dsn, "/odd%3F%23%25dir/VRCX.sqlite3?mode=ro&_pragma=busy_timeout(3000)") {
		t.Fatalf("expected escaped path and read-only query, got %q", dsn)
	}
	if strings.Count(dsn, "?") != 1 {
		t.Fatalf("expected a single query separator, got %q", dsn)
	}
}

func TestOpenPathWithURICharacters(t *testing.T) {
	src := writeFixture(t, []feedRow{
		{kind: "Online", createdAt: "2024-01-01T12:00:00.000Z", name: "Alice"},
	})
	dir := filepath.Join(t.TempDir(), "VRCX #1 100%")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "VRCX.sqlite3")
	if err := os.Rename(src, path); err != nil {
		t.Fatalf("move fixture: %v", err)
	}

	st, err := Open(path, time.UTC)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		_ = st.Close()
	}()
	events, err := st.ListEvents(context.Background(), testTable, "Alice")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
}

func TestReadsToleratePendingWrite(t *testing.T) {
	path := writeFixture(t, []feedRow{
		{kind: "Online", createdAt: "2024-01-01T12:00:00.000Z", name: "Alice"},
	})
	st, err := Open(path, time.UTC)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		_ = st.Close()
	}()

	writer, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	defer func() {
		_ = writer.Close()
	}()
	ctx := context.Background()
	conn, err := writer.Conn(ctx)
	if err != nil {
		t.Fatalf("writer conn: %v", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	// An uncommitted write is invisible and does not block the reader.
	if _, err := conn.ExecContext(ctx, `BEGIN IMMEDIATE`); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `INSERT INTO usrabc_feed_online_offline (created_at, user_id, display_name, type) VALUES ('2024-01-01T15:00:00.000Z', 'usr_x', 'Alice', 'Offline')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	events, err := st.ListEvents(ctx, testTable, "Alice")
	if err != nil {
		t.Fatalf("list events during write: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected only committed events, got %d", len(events))
	}
	if _, err := conn.ExecContext(ctx, `ROLLBACK`); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	// An exclusive lock makes the reader wait for the commit instead of failing.
	if _, err := conn.ExecContext(ctx, `BEGIN EXCLUSIVE`); err != nil {
		t.Fatalf("begin exclusive: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `INSERT INTO usrabc_feed_online_offline (created_at, user_id, display_name, type) VALUES ('2024-01-01T15:00:00.000Z', 'usr_x', 'Alice', 'Offline')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	committed := make(chan error, 1)
	go func() {
		time.Sleep(300 * time.Millisecond)
		_, err := conn.ExecContext(ctx, `COMMIT`)
		committed <- err
	}()
	events, err = st.ListEvents(ctx, testTable, "Alice")
	if err != nil {
		t.Fatalf("list events while locked: %v", err)
	}
	if err := <-committed; err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected the committed write to be visible, got %d events", len(events))
	}
}
