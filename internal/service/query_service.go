// file: internal/service/query_service.go
package service

import (
	"ProfileRelay/internal/core/domain"
	"fmt"
	"sort"
)

// 本文件实现宿主侧的行整形：适配器只负责拉取与归一化，
// 二次过滤、排序与分页在已拉回的行集上由这里完成。

const (
	defaultPageSize = 50
	maxPageSize     = 2000
)

// EvalFilter 在单行上求值整棵过滤树。
// 叶子谓词是字符串化后的精确匹配；分支节点按 Op 组合，"or" 为任一命中，
// 其余 (含 "and" 与未知操作符) 为全部命中。nil 过滤器恒为真。
func EvalFilter(n *domain.FilterNode, row domain.Row) bool {
	if n == nil {
		return true
	}
	if n.IsLeaf() {
		val, exists := row[n.Field]
		if !exists {
			return false
		}
		return fmt.Sprint(val) == n.Value
	}

	if n.Op == "or" {
		for _, child := range n.Children {
			if EvalFilter(child, row) {
				return true
			}
		}
		return false
	}
	for _, child := range n.Children {
		if !EvalFilter(child, row) {
			return false
		}
	}
	return true
}

// FilterRows 返回过滤树命中的行子集，原顺序保持。
func FilterRows(rows []domain.Row, filter *domain.FilterNode) []domain.Row {
	if filter == nil {
		return rows
	}
	out := make([]domain.Row, 0, len(rows))
	for _, row := range rows {
		if EvalFilter(filter, row) {
			out = append(out, row)
		}
	}
	return out
}

// SortRows 按指定列对行做稳定排序，列缺失的行排在末尾。
// field 为空时不排序。
func SortRows(rows []domain.Row, field string, desc bool) {
	if field == "" {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		vi, oki := rows[i][field]
		vj, okj := rows[j][field]
		if !oki || !okj {
			return oki && !okj
		}
		si, sj := fmt.Sprint(vi), fmt.Sprint(vj)
		if desc {
			return si > sj
		}
		return si < sj
	})
}

// Paginate 对行集应用 page/size 分页，带网关统一的默认值与上限钳制。
func Paginate(rows []domain.Row, page, size int) []domain.Row {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	offset := (page - 1) * size
	if offset >= len(rows) {
		return []domain.Row{}
	}
	end := offset + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}
