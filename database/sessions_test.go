package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egor/deskchatserver/models"
)

// Записывающий database/sql-драйвер: фиксирует последовательность
// SQL-операций, чтобы проверять состав и порядок транзакций без
// живого PostgreSQL.

type sqlRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *sqlRecorder) add(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *sqlRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *sqlRecorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

var markReadRecorder = &sqlRecorder{}

type recordingDriver struct{ rec *sqlRecorder }

func (d recordingDriver) Open(string) (driver.Conn, error) {
	return &recordingConn{rec: d.rec}, nil
}

type recordingConn struct{ rec *sqlRecorder }

func (c *recordingConn) Prepare(query string) (driver.Stmt, error) {
	return &recordingStmt{rec: c.rec, query: query}, nil
}
func (c *recordingConn) Close() error { return nil }
func (c *recordingConn) Begin() (driver.Tx, error) {
	c.rec.add("BEGIN")
	return &recordingTx{rec: c.rec}, nil
}

type recordingTx struct{ rec *sqlRecorder }

func (t *recordingTx) Commit() error   { t.rec.add("COMMIT"); return nil }
func (t *recordingTx) Rollback() error { t.rec.add("ROLLBACK"); return nil }

type recordingStmt struct {
	rec   *sqlRecorder
	query string
}

func (s *recordingStmt) Close() error  { return nil }
func (s *recordingStmt) NumInput() int { return -1 }

func (s *recordingStmt) Exec(args []driver.Value) (driver.Result, error) {
	q := strings.Join(strings.Fields(s.query), " ")
	s.rec.add(fmt.Sprintf("%s | args=%v", q, args))
	return driver.RowsAffected(1), nil
}

func (s *recordingStmt) Query([]driver.Value) (driver.Rows, error) {
	if strings.Contains(s.query, "SELECT EXISTS") {
		s.rec.add("EXISTS")
		return &recordingRows{cols: []string{"exists"}, vals: [][]driver.Value{{true}}}, nil
	}
	return nil, errors.New("неожиданный запрос: " + s.query)
}

type recordingRows struct {
	cols []string
	vals [][]driver.Value
	i    int
}

func (r *recordingRows) Columns() []string { return r.cols }
func (r *recordingRows) Close() error      { return nil }
func (r *recordingRows) Next(dest []driver.Value) error {
	if r.i >= len(r.vals) {
		return io.EOF
	}
	copy(dest, r.vals[r.i])
	r.i++
	return nil
}

func init() {
	sql.Register("deskchat-recording", recordingDriver{markReadRecorder})
}

func useRecordingDB(t *testing.T) {
	t.Helper()
	db, err := sql.Open("deskchat-recording", "")
	require.NoError(t, err)
	old := DB
	DB = db
	markReadRecorder.reset()
	t.Cleanup(func() {
		DB = old
		db.Close()
	})
}

// Сотрудник читает сессию: в одной транзакции снимается флаг read
// с сообщений посетителя и обнуляется unread_by_staff.
func TestMarkSessionReadByStaff(t *testing.T) {
	useRecordingDB(t)

	require.NoError(t, MarkSessionRead(uuid.New(), models.SenderStaff))

	events := markReadRecorder.list()
	require.Len(t, events, 5)
	assert.Equal(t, "BEGIN", events[0])
	assert.Equal(t, "EXISTS", events[1])
	assert.Contains(t, events[2], "UPDATE messages SET read=true")
	assert.Contains(t, events[2], models.SenderVisitor)
	assert.Contains(t, events[3], "UPDATE sessions SET unread_by_staff=0")
	assert.Equal(t, "COMMIT", events[4])
}

// Зеркальный случай: посетитель читает ответы сотрудника.
func TestMarkSessionReadByVisitor(t *testing.T) {
	useRecordingDB(t)

	require.NoError(t, MarkSessionRead(uuid.New(), models.SenderVisitor))

	events := markReadRecorder.list()
	require.Len(t, events, 5)
	assert.Contains(t, events[2], models.SenderStaff)
	assert.Contains(t, events[3], "UPDATE sessions SET unread_by_visitor=0")
	assert.Equal(t, "COMMIT", events[4])
}

// Неизвестный читатель отклоняется до каких-либо запросов.
func TestMarkSessionReadUnknownReader(t *testing.T) {
	useRecordingDB(t)

	err := MarkSessionRead(uuid.New(), "bot")
	require.Error(t, err)
	assert.Empty(t, markReadRecorder.list())
}
