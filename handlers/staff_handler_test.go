package handlers

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egor/deskchatserver/database"
)

// Заглушка database/sql-драйвера: COUNT(*) отвечает пятью сессиями,
// остальные запросы — пустой выборкой. Живой PostgreSQL не нужен.

type stubSessionsDriver struct{}

func (stubSessionsDriver) Open(string) (driver.Conn, error) { return &stubSessionsConn{}, nil }

type stubSessionsConn struct{}

func (*stubSessionsConn) Prepare(query string) (driver.Stmt, error) {
	return &stubSessionsStmt{query: query}, nil
}
func (*stubSessionsConn) Close() error { return nil }
func (*stubSessionsConn) Begin() (driver.Tx, error) {
	return nil, errors.New("транзакции не поддерживаются")
}

type stubSessionsStmt struct{ query string }

func (*stubSessionsStmt) Close() error  { return nil }
func (*stubSessionsStmt) NumInput() int { return -1 }

func (*stubSessionsStmt) Exec([]driver.Value) (driver.Result, error) {
	return driver.RowsAffected(1), nil
}

func (s *stubSessionsStmt) Query([]driver.Value) (driver.Rows, error) {
	if strings.Contains(s.query, "COUNT(*)") {
		return &stubRows{cols: []string{"count"}, vals: [][]driver.Value{{int64(5)}}}, nil
	}
	return &stubRows{cols: []string{"id"}}, nil
}

type stubRows struct {
	cols []string
	vals [][]driver.Value
	i    int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }
func (r *stubRows) Next(dest []driver.Value) error {
	if r.i >= len(r.vals) {
		return io.EOF
	}
	copy(dest, r.vals[r.i])
	r.i++
	return nil
}

func init() {
	sql.Register("deskchat-stub-sessions", stubSessionsDriver{})
}

func useStubSessionsDB(t *testing.T) {
	t.Helper()
	db, err := sql.Open("deskchat-stub-sessions", "")
	require.NoError(t, err)
	old := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = old
		db.Close()
	})
}

// Нулевой или мусорный pageSize приводится к значению по умолчанию,
// а не доходит до деления при подсчете totalPages.
func TestGetSessionsZeroPageSize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	useStubSessionsDB(t)

	// роутер без Recovery: паника уронит тест, а не превратится в 500
	r := gin.New()
	r.GET("/sessions", GetSessions)

	for _, raw := range []string{"0", "-3", "мусор"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/sessions?pageSize="+raw, nil)
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, "pageSize=%s", raw)
		assert.Contains(t, w.Body.String(), `"pageSize":20`, "pageSize=%s", raw)
		assert.Contains(t, w.Body.String(), `"totalItems":5`, "pageSize=%s", raw)
		assert.Contains(t, w.Body.String(), `"totalPages":1`, "pageSize=%s", raw)
	}
}

// Завышенный pageSize ограничивается верхней границей слоя БД.
func TestGetSessionsOversizedPageSize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	useStubSessionsDB(t)

	r := gin.New()
	r.GET("/sessions", GetSessions)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sessions?pageSize=10000&page=-1", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pageSize":20`)
	assert.Contains(t, w.Body.String(), `"page":1`)
}
