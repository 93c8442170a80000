package db

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestBuildDSN は設定からDSN文字列が正しく決定されることを検証します。
func TestBuildDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit dsn wins", Config{Driver: DriverPostgres, DSN: "postgres://u:p@h/db"}, "postgres://u:p@h/db"},
		{"sqlite default", Config{Driver: DriverSQLite}, DefaultSQLiteDSN},
		{"empty driver means sqlite", Config{}, DefaultSQLiteDSN},
		{"mysql without dsn", Config{Driver: DriverMySQL}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BuildDSN(tt.cfg))
		})
	}
}

func TestDialector(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{"", DriverSQLite, DriverPostgres, DriverMySQL, "MySQL"} {
		d, err := Dialector(driver, "dsn")
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}

	_, err := Dialector("oracle", "dsn")
	assert.Error(t, err)
}

// TestConnectWithRetry_SuccessOnFirstTry は初回接続成功時にリトライせずDBを返すことを検証します。
func TestConnectWithRetry_SuccessOnFirstTry(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	attempts := 0
	opener := func(dsn string) (*gorm.DB, error) {
		attempts++
		assert.Equal(t, "test-dsn", dsn)
		return mockDB, nil
	}

	db, err := ConnectWithRetry("test-dsn", 5*time.Second, opener)

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
	assert.Equal(t, 1, attempts)
}

// TestConnectWithRetry_RetriesOnFailure は接続失敗時にリトライして最終的に成功することを検証します。
func TestConnectWithRetry_RetriesOnFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the retry interval")
	}

	mockDB := &gorm.DB{}
	attempts := 0
	opener := func(dsn string) (*gorm.DB, error) {
		attempts++
		if attempts < 2 {
			return nil, errors.New("connection refused")
		}
		return mockDB, nil
	}

	db, err := ConnectWithRetry("test-dsn", 10*time.Second, opener)

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
	assert.Equal(t, 2, attempts)
}

// TestConnectWithRetry_TimeoutAfterRetries はタイムアウト後にエラーが返されることを検証します。
func TestConnectWithRetry_TimeoutAfterRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	opener := func(dsn string) (*gorm.DB, error) {
		attempts++
		return nil, errors.New("connection refused")
	}

	// zero timeout: first failure is final
	_, err := ConnectWithRetry("test-dsn", 0, opener)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 1, attempts)
}

type widget struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex"`
}

// TestOpenDB_SQLite はSQLiteでの接続・マイグレーション・重複キー変換を検証します。
func TestOpenDB_SQLite(t *testing.T) {
	t.Parallel()

	db, err := OpenDB(Config{
		Driver:         DriverSQLite,
		DSN:            fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		ConnectTimeout: time.Second,
	}, &widget{})
	require.NoError(t, err)

	require.NoError(t, db.Create(&widget{Name: "a"}).Error)
	err = db.Create(&widget{Name: "a"}).Error
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err))
}

func TestOpenDB_MissingDSN(t *testing.T) {
	t.Parallel()

	_, err := OpenDB(Config{Driver: DriverPostgres})
	assert.Error(t, err)
}

func TestIsDuplicateKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"wrapped gorm translated", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"mysql 1062", &mysql.MySQLError{Number: 1062}, true},
		{"mysql other", &mysql.MySQLError{Number: 1045}, false},
		{"postgres unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"postgres fk violation", &pgconn.PgError{Code: "23503"}, false},
		{"record not found", gorm.ErrRecordNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDuplicateKey(tt.err))
		})
	}
}
