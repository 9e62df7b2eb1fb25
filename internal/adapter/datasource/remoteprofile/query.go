// file: internal/adapter/datasource/remoteprofile/query.go
package remoteprofile

import (
	"ProfileRelay/internal/core/domain"
	"ProfileRelay/internal/core/port"
	"context"
	"fmt"
)

// Query 是实现 port.DataSource 接口的公开方法。
// 它把结构化的过滤描述翻译为一次远端抓取，并将响应归一化为行序列。
// 行级的二次过滤、排序与分页属于宿主服务层，这里不做。
func (m *Manager) Query(ctx context.Context, req port.QueryRequest) (*port.QueryResult, error) {
	table := req.TableName
	if table == "" {
		table = profileTableName
	}
	if table != profileTableName {
		return nil, fmt.Errorf("表 '%s': %w", req.TableName, port.ErrTableNotFound)
	}

	rows, err := m.fetchRows(ctx, m.resolveQueryURL(req.Filter))
	if err != nil {
		return nil, err
	}

	return &port.QueryResult{
		Table:  table,
		Rows:   rows,
		Source: m.Type(),
	}, nil
}

// Search 对每个目标表顺序执行一次抓取，每表产出一个结果包。
// 对本数据源而言所有表都解析到同一查找端点，但按约定仍逐表抓取。
// 任一抓取失败即中止整个检索，不返回部分结果。
func (m *Manager) Search(ctx context.Context, req port.SearchRequest) ([]port.SearchResult, error) {
	tables := req.Tables
	if len(tables) == 0 {
		tables = []string{profileTableName}
	}

	results := make([]port.SearchResult, 0, len(tables))
	for _, table := range tables {
		if table != profileTableName {
			return nil, fmt.Errorf("表 '%s': %w", table, port.ErrTableNotFound)
		}

		rows, err := m.fetchRows(ctx, m.resolveSearchURL(req.Phrase))
		if err != nil {
			return nil, fmt.Errorf("检索表 '%s' 失败: %w", table, err)
		}
		results = append(results, port.SearchResult{Table: table, Rows: rows})
	}
	return results, nil
}

// fetchRows 执行一次完整的 抓取 → 归一化 → 充实 流水线。
func (m *Manager) fetchRows(ctx context.Context, url string) ([]domain.Row, error) {
	body, err := m.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("获取远端资源 '%s' 失败: %w", url, err)
	}

	items, err := normalize(body)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, enrichRow(item))
	}
	return rows, nil
}
