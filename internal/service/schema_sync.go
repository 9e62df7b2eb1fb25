// file: internal/service/schema_sync.go
package service

import (
	"ProfileRelay/internal/core/port"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// SchemaSyncService 承载管理面的 "校验并同步" 动作：
// 并发拉取每个已注册数据源的静态结构，校验其中声明的间接查找绑定
// 在本地确实可连接，把快照落库，最后使查找缓存失效。
// 该动作按管理操作触发，不在查询路径上。
type SchemaSyncService struct {
	db       *sql.DB
	registry map[string]port.DataSource
	lookup   *LookupService
}

// NewSchemaSyncService 创建一个新的 SchemaSyncService 实例。
func NewSchemaSyncService(db *sql.DB, registry map[string]port.DataSource, lookup *LookupService) (*SchemaSyncService, error) {
	if db == nil {
		return nil, fmt.Errorf("SchemaSyncService 初始化失败: db 实例不能为 nil")
	}
	return &SchemaSyncService{
		db:       db,
		registry: registry,
		lookup:   lookup,
	}, nil
}

// Sync 执行一轮完整的校验与同步，返回每个数据源的结构。
// 任一数据源失败则整轮失败，不落半成品快照。
func (s *SchemaSyncService) Sync(ctx context.Context) (map[string]*port.SchemaResult, error) {
	results := make(map[string]*port.SchemaResult, len(s.registry))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for name, ds := range s.registry {
		name, ds := name, ds
		g.Go(func() error {
			schema, err := ds.GetSchema(gctx, port.SchemaRequest{})
			if err != nil {
				return fmt.Errorf("拉取数据源 '%s' 结构失败: %w", name, err)
			}
			if err := s.validateLookupBindings(gctx, schema); err != nil {
				return fmt.Errorf("数据源 '%s' 结构校验失败: %w", name, err)
			}
			mu.Lock()
			results[name] = schema
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for name, schema := range results {
		if err := s.persistSnapshot(ctx, name, schema); err != nil {
			return nil, err
		}
	}

	if s.lookup != nil {
		s.lookup.InvalidateAll()
	}
	slog.Info("结构同步完成", "sources", len(results))
	return results, nil
}

// HealthCheck 并发探测所有已注册数据源，任一不健康即返回错误。
func (s *SchemaSyncService) HealthCheck(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for name, ds := range s.registry {
		name, ds := name, ds
		g.Go(func() error {
			if err := ds.HealthCheck(gctx); err != nil {
				return fmt.Errorf("数据源 '%s' 不健康: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// validateLookupBindings 确认结构中每个间接查找绑定指向的本地实体表
// 和连接字段真实存在。
func (s *SchemaSyncService) validateLookupBindings(ctx context.Context, schema *port.SchemaResult) error {
	for tableName, fields := range schema.Tables {
		for _, field := range fields {
			if field.Lookup == nil {
				continue
			}
			ok, err := s.columnExists(ctx, field.Lookup.Entity, field.Lookup.JoinField)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("表 '%s' 列 '%s' 的查找绑定无效: 本地实体 '%s' 缺少字段 '%s'",
					tableName, field.Name, field.Lookup.Entity, field.Lookup.JoinField)
			}
		}
	}
	return nil
}

// columnExists 通过 PRAGMA table_info 探测本地表是否含有指定列。
func (s *SchemaSyncService) columnExists(ctx context.Context, table, column string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, table))
	if err != nil {
		return false, fmt.Errorf("探测本地表 '%s' 失败: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// persistSnapshot 把单个数据源的结构序列化后写入快照表。
func (s *SchemaSyncService) persistSnapshot(ctx context.Context, source string, schema *port.SchemaResult) error {
	payload, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("序列化数据源 '%s' 结构失败: %w", source, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO schema_snapshots(source, payload) VALUES (?, ?)`,
		source, string(payload))
	if err != nil {
		return fmt.Errorf("写入数据源 '%s' 结构快照失败: %w", source, err)
	}
	return nil
}
