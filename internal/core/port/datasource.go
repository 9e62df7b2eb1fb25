// Package port file: internal/core/port/datasource.go
package port

import (
	"ProfileRelay/internal/core/domain"
	"context"
	"errors"
	"fmt"
)

// Standard errors
var (
	ErrTableNotFound     = errors.New("指定的表未在数据源中声明")
	ErrSourceNotFound    = errors.New("指定的数据源未找到或未注册")
	ErrMalformedResponse = errors.New("远端响应格式无效")
)

// RemoteServiceError 表示远端服务在响应体中返回了可识别的错误信封。
// Message 取信封中第一条错误的 message 字段。
type RemoteServiceError struct {
	Message string
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("远端服务返回错误: %s", e.Message)
}

// QueryRequest 定义一次过滤查询所需要的所有参数。
type QueryRequest struct {
	TableName string
	Filter    *domain.FilterNode
}

// QueryResult 定义查询返回的数据，Table 回显目标表名。
type QueryResult struct {
	Table  string
	Rows   []domain.Row
	Source string
}

// SearchRequest 定义一次全文检索请求：一个短语加若干目标表。
type SearchRequest struct {
	Phrase string
	Tables []string
}

// SearchResult 是单个目标表的检索结果包。
type SearchResult struct {
	Table string       `json:"table"`
	Rows  []domain.Row `json:"rows"`
}

// SchemaRequest 定义获取数据源结构信息的请求。
type SchemaRequest struct {
	TableName string
}

// LookupBinding 描述一个间接查找列：其值通过 JoinField 关联到本地实体 Entity，
// 而不是存储直接外键。
type LookupBinding struct {
	Entity    string `json:"entity"`
	JoinField string `json:"join_field"`
}

// FieldDescription 描述了一个字段的元数据。
type FieldDescription struct {
	Name         string         `json:"name"`
	DataType     string         `json:"data_type"`
	IsSearchable bool           `json:"is_searchable"`
	IsReturnable bool           `json:"is_returnable"`
	IsPrimary    bool           `json:"is_primary"`
	Description  string         `json:"description"`
	Lookup       *LookupBinding `json:"lookup,omitempty"`
}

// SchemaResult 定义了数据源结构信息的返回。
type SchemaResult struct {
	Tables map[string][]FieldDescription `json:"tables"`
}

// DataSource 接口定义。三个能力方法 (Query / Search / GetSchema) 构成
// 数据源对外的全部公开边界，由网关编排层调用，数据源自身从不主动触发。
type DataSource interface {
	// Query 执行一次过滤查询
	Query(ctx context.Context, req QueryRequest) (*QueryResult, error)

	// Search 对每个目标表顺序执行一次检索，返回每表一个结果包
	Search(ctx context.Context, req SearchRequest) ([]SearchResult, error)

	// GetSchema 获取数据源的静态结构信息
	GetSchema(ctx context.Context, req SchemaRequest) (*SchemaResult, error)

	// HealthCheck 检查数据源的健康状况
	HealthCheck(ctx context.Context) error

	// Type 返回适配器的类型标识符
	Type() string
}
