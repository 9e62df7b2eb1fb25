// file: internal/adapter/datasource/remoteprofile/schema.go
package remoteprofile

import (
	"ProfileRelay/internal/core/port"
	"context"
	"fmt"
)

const profileTableName = "profiles"

// 间接查找列绑定的本地实体与连接字段
const (
	lookupEntity    = "local_accounts"
	lookupJoinField = "external_login"
)

// GetSchema 实现 port.DataSource 接口，返回静态声明的表结构。
// 结构在运行期从不变化：一张 profiles 表，主标识列为远端登录字段，
// ExternalId 作为间接查找列关联本地账户实体，其余列镜像远端 API 的已知字段。
func (m *Manager) GetSchema(_ context.Context, req port.SchemaRequest) (*port.SchemaResult, error) {
	if req.TableName != "" && req.TableName != profileTableName {
		return nil, fmt.Errorf("表 '%s': %w", req.TableName, port.ErrTableNotFound)
	}

	fields := []port.FieldDescription{
		{Name: "login", DataType: "text", IsSearchable: true, IsReturnable: true, IsPrimary: true, Description: "远端登录标识"},
		{Name: "id", DataType: "integer", IsReturnable: true, Description: "远端数字标识"},
		{Name: "name", DataType: "text", IsReturnable: true, Description: "显示名称"},
		{Name: "company", DataType: "text", IsReturnable: true, Description: "所属组织"},
		{Name: "bio", DataType: "text", IsReturnable: true, Description: "个人简介"},
		{Name: "followers", DataType: "integer", IsReturnable: true, Description: "粉丝数"},
		{Name: "following", DataType: "integer", IsReturnable: true, Description: "关注数"},
		{Name: "html_url", DataType: "url", IsReturnable: true, Description: "远端个人主页"},
		{Name: displayURLKey, DataType: "url", IsReturnable: true, Description: "合成的展示链接，取自 html_url"},
		{
			Name:         externalIDKey,
			DataType:     "text",
			IsSearchable: true,
			IsReturnable: true,
			Description:  "合成的外部标识，取自 login",
			Lookup: &port.LookupBinding{
				Entity:    lookupEntity,
				JoinField: lookupJoinField,
			},
		},
	}

	return &port.SchemaResult{
		Tables: map[string][]port.FieldDescription{
			profileTableName: fields,
		},
	}, nil
}
