package database

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/lane-ops/internal/config"
)

func TestSplitStatements(t *testing.T) {
	content := `-- header
CREATE TABLE a (
  id INT
);

-- second
CREATE TABLE b (id INT);
INSERT INTO b VALUES (1)`
	got := SplitStatements(content)
	require.Len(t, got, 3)
	assert.True(t, strings.HasPrefix(got[0], "CREATE TABLE a ("))
	assert.Equal(t, "CREATE TABLE b (id INT)", got[1])
	assert.Equal(t, "INSERT INTO b VALUES (1)", got[2])
}

func TestEmbeddedSchemaCoversTables(t *testing.T) {
	content, err := migrationFS.ReadFile("migrations/001_init.sql")
	require.NoError(t, err)
	stmts := SplitStatements(string(content))
	for _, table := range []string{"reservation_types", "session_templates", "waiver_docs", "users", "user_waivers", "reservations", "reservation_players", "runs"} {
		found := false
		for _, s := range stmts {
			if strings.Contains(s, "CREATE TABLE IF NOT EXISTS "+table+" (") {
				found = true
			}
		}
		assert.True(t, found, "table %s", table)
	}
}

func TestApplyMigrationsSkipsApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"m/001_a.sql": {Data: []byte("CREATE TABLE a (id INT);")},
		"m/002_b.sql": {Data: []byte("CREATE TABLE b (id INT);\nCREATE TABLE c (id INT);")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM schema_migrations WHERE name = ?")).
		WithArgs("001_a.sql").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM schema_migrations WHERE name = ?")).
		WithArgs("002_b.sql").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE b (id INT)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE c (id INT)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO schema_migrations")).
		WithArgs("002_b.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, applyMigrations(context.Background(), db, fsys, "m"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMigrationsNilDB(t *testing.T) {
	assert.Error(t, applyMigrations(context.Background(), nil, fstest.MapFS{}, "."))
}

func TestDSN(t *testing.T) {
	cfg := config.DBConfig{User: "ops", Host: "db", Port: "3306", Name: "lanes"}
	assert.Equal(t, "ops@tcp(db:3306)/lanes?charset=utf8mb4&parseTime=true&loc=UTC", DSN(cfg))
	cfg.Pass = "pw"
	assert.Equal(t, "ops:pw@tcp(db:3306)/lanes?charset=utf8mb4&parseTime=true&loc=UTC", DSN(cfg))
}
