// file: internal/service/schema_sync_test.go
package service

import (
	"ProfileRelay/internal/core/port"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotSchema = `
CREATE TABLE schema_snapshots(
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

func profileSchema() *port.SchemaResult {
	return &port.SchemaResult{
		Tables: map[string][]port.FieldDescription{
			"profiles": {
				{Name: "login", DataType: "text", IsPrimary: true},
				{Name: "ExternalId", DataType: "text", Lookup: &port.LookupBinding{
					Entity:    "local_accounts",
					JoinField: "external_login",
				}},
			},
		},
	}
}

func TestSchemaSync_PersistsSnapshotAndInvalidatesCache(t *testing.T) {
	db := createTestDB(t, "sync.db", localAccountSchema, snapshotSchema)

	lookup, err := NewLookupService(db, 10, time.Minute)
	require.NoError(t, err)

	ds := &mockDataSource{
		GetSchemaFunc: func(_ context.Context, _ port.SchemaRequest) (*port.SchemaResult, error) {
			return profileSchema(), nil
		},
	}
	svc, err := NewSchemaSyncService(db, map[string]port.DataSource{"profiles": ds}, lookup)
	require.NoError(t, err)

	results, err := svc.Sync(context.Background())
	require.NoError(t, err)
	require.Contains(t, results, "profiles")

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_snapshots WHERE source = 'profiles'`).Scan(&count))
	assert.Equal(t, 1, count, "同步应写入一条快照")
}

func TestSchemaSync_RejectsBrokenLookupBinding(t *testing.T) {
	db := createTestDB(t, "sync_broken.db", localAccountSchema, snapshotSchema)

	broken := profileSchema()
	broken.Tables["profiles"][1].Lookup.JoinField = "no_such_column"

	ds := &mockDataSource{
		GetSchemaFunc: func(_ context.Context, _ port.SchemaRequest) (*port.SchemaResult, error) {
			return broken, nil
		},
	}
	svc, err := NewSchemaSyncService(db, map[string]port.DataSource{"profiles": ds}, nil)
	require.NoError(t, err)

	_, err = svc.Sync(context.Background())
	require.Error(t, err, "指向不存在连接字段的绑定应被拒绝")

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_snapshots`).Scan(&count))
	assert.Zero(t, count, "校验失败时不应落任何快照")
}

func TestSchemaSync_SourceFailureAbortsRound(t *testing.T) {
	db := createTestDB(t, "sync_fail.db", localAccountSchema, snapshotSchema)

	good := &mockDataSource{
		GetSchemaFunc: func(_ context.Context, _ port.SchemaRequest) (*port.SchemaResult, error) {
			return profileSchema(), nil
		},
	}
	bad := &mockDataSource{
		GetSchemaFunc: func(_ context.Context, _ port.SchemaRequest) (*port.SchemaResult, error) {
			return nil, errors.New("unreachable")
		},
	}
	svc, err := NewSchemaSyncService(db, map[string]port.DataSource{"good": good, "bad": bad}, nil)
	require.NoError(t, err)

	_, err = svc.Sync(context.Background())
	require.Error(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_snapshots`).Scan(&count))
	assert.Zero(t, count)
}

func TestSchemaSync_HealthCheck(t *testing.T) {
	db := createTestDB(t, "health.db", snapshotSchema)

	healthy := &mockDataSource{}
	sick := &mockDataSource{HealthCheckFunc: func(_ context.Context) error {
		return errors.New("remote down")
	}}

	svc, err := NewSchemaSyncService(db, map[string]port.DataSource{"a": healthy}, nil)
	require.NoError(t, err)
	assert.NoError(t, svc.HealthCheck(context.Background()))

	svc2, err := NewSchemaSyncService(db, map[string]port.DataSource{"a": healthy, "b": sick}, nil)
	require.NoError(t, err)
	assert.Error(t, svc2.HealthCheck(context.Background()))
}
