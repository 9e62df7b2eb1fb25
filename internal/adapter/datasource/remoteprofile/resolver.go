// file: internal/adapter/datasource/remoteprofile/resolver.go
package remoteprofile

import "ProfileRelay/internal/core/domain"

const collectionPath = "/users"

// 远端登录标识在过滤器中被承认的两个列名别名
const (
	remoteLoginField = "login"
	externalIDColumn = "ExternalId"
)

// resolveQueryURL 把过滤树翻译为一个具体的资源 URL。
//
// 叶子谓词按文档顺序依次检查，列名命中任一登录别名时记下其值；
// 后出现的命中覆盖先出现的 (last match wins)。无命中或过滤器缺失时
// 回退到集合列表端点。
func (m *Manager) resolveQueryURL(filter *domain.FilterNode) string {
	base := m.endpoint()

	matched := false
	var target string
	for _, leaf := range filter.Leaves() {
		if leaf.Field == remoteLoginField || leaf.Field == externalIDColumn {
			matched = true
			target = leaf.Value
		}
	}

	if !matched {
		return base + collectionPath
	}
	return base + collectionPath + "/" + target
}

// resolveSearchURL 把检索短语翻译为单资源端点 URL。
// 短语原样拼入路径，不做转义或校验，调用方给什么传什么。
func (m *Manager) resolveSearchURL(phrase string) string {
	return m.endpoint() + collectionPath + "/" + phrase
}
