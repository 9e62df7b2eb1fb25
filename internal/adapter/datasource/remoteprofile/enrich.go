// file: internal/adapter/datasource/remoteprofile/enrich.go
package remoteprofile

import "ProfileRelay/internal/core/domain"

// 合成字段的键名与其在远端条目中的来源键
const (
	externalIDKey = "ExternalId"
	displayURLKey = "DisplayUrl"

	remoteProfileLinkField = "html_url"
)

// enrichRow 把一个远端原始条目构建为最终返回的行。
//
// 条目中的每个键原样拷贝；当键为远端登录标识 (login) 时额外写入
// ExternalId，当键为个人主页链接 (html_url) 时额外写入 DisplayUrl。
// 原始键保留不删。来源键缺失时对应的合成键也不出现，不做空值填充。
func enrichRow(item Value) domain.Row {
	row := make(domain.Row, len(item.Keys)+2)

	for _, key := range item.Keys {
		val := item.Obj[key].Interface()
		row[key] = val

		switch key {
		case remoteLoginField:
			row[externalIDKey] = val
		case remoteProfileLinkField:
			row[displayURLKey] = val
		}
	}

	return row
}
