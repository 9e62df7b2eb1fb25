// file: internal/service/main_test.go
package service

import (
	"ProfileRelay/internal/core/port"
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// ============================================================================
//  共享测试辅助工具 (Shared Test Helpers & Mocks)
// ============================================================================

// createTestDB 创建一个带有指定 schema 的临时数据库文件。
// 这个定义将在这个包的所有测试文件中共享。
func createTestDB(t *testing.T, filename string, createStmts ...string) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), filename)

	dsn := "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)

	for _, stmt := range createStmts {
		_, err = db.Exec(stmt)
		require.NoError(t, err, "Failed to execute statement: %s", stmt)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// mockDataSource 是 port.DataSource 接口的一个测试替身。
type mockDataSource struct {
	QueryFunc       func(ctx context.Context, req port.QueryRequest) (*port.QueryResult, error)
	SearchFunc      func(ctx context.Context, req port.SearchRequest) ([]port.SearchResult, error)
	GetSchemaFunc   func(ctx context.Context, req port.SchemaRequest) (*port.SchemaResult, error)
	HealthCheckFunc func(ctx context.Context) error
}

func (m *mockDataSource) Query(ctx context.Context, req port.QueryRequest) (*port.QueryResult, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, req)
	}
	return &port.QueryResult{}, nil
}
func (m *mockDataSource) Search(ctx context.Context, req port.SearchRequest) ([]port.SearchResult, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, req)
	}
	return nil, nil
}
func (m *mockDataSource) GetSchema(ctx context.Context, req port.SchemaRequest) (*port.SchemaResult, error) {
	if m.GetSchemaFunc != nil {
		return m.GetSchemaFunc(ctx, req)
	}
	return &port.SchemaResult{}, nil
}
func (m *mockDataSource) HealthCheck(ctx context.Context) error {
	if m.HealthCheckFunc != nil {
		return m.HealthCheckFunc(ctx)
	}
	return nil
}
func (m *mockDataSource) Type() string { return "mock" }
