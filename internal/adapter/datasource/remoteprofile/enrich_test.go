// file: internal/adapter/datasource/remoteprofile/enrich_test.go
package remoteprofile

import (
	"testing"
)

func TestEnrichRow_SynthesizesBothAliases(t *testing.T) {
	items, err := normalize(`{"login":"octocat","html_url":"https://x/octocat"}`)
	if err != nil {
		t.Fatalf("normalize 返回错误: %v", err)
	}
	row := enrichRow(items[0])

	// 原始键保留
	if row["login"] != "octocat" {
		t.Errorf("原始 login 键应保留, got=%v", row["login"])
	}
	if row["html_url"] != "https://x/octocat" {
		t.Errorf("原始 html_url 键应保留, got=%v", row["html_url"])
	}

	// 合成键与来源键同值
	if row["ExternalId"] != "octocat" {
		t.Errorf("ExternalId 应取自 login, got=%v", row["ExternalId"])
	}
	if row["DisplayUrl"] != "https://x/octocat" {
		t.Errorf("DisplayUrl 应取自 html_url, got=%v", row["DisplayUrl"])
	}
}

func TestEnrichRow_MissingLoginMeansNoExternalId(t *testing.T) {
	items, err := normalize(`{"name":"Anonymous","bio":"n/a"}`)
	if err != nil {
		t.Fatalf("normalize 返回错误: %v", err)
	}
	row := enrichRow(items[0])

	if _, exists := row["ExternalId"]; exists {
		t.Error("条目缺少 login 时不应出现 ExternalId 键")
	}
	if _, exists := row["DisplayUrl"]; exists {
		t.Error("条目缺少 html_url 时不应出现 DisplayUrl 键")
	}
	if len(row) != 2 {
		t.Errorf("行应只包含原始的两个键, got=%d", len(row))
	}
}

func TestEnrichRow_CopiesEveryKey(t *testing.T) {
	items, err := normalize(`{"login":"a","id":7,"followers":42,"company":null}`)
	if err != nil {
		t.Fatalf("normalize 返回错误: %v", err)
	}
	row := enrichRow(items[0])

	for _, key := range []string{"login", "id", "followers", "company", "ExternalId"} {
		if _, exists := row[key]; !exists {
			t.Errorf("行中缺少键 '%s'", key)
		}
	}
	if row["company"] != nil {
		t.Errorf("null 值应原样拷贝为 nil, got=%v", row["company"])
	}
}
