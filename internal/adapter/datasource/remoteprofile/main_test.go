// file: internal/adapter/datasource/remoteprofile/main_test.go
package remoteprofile

import "context"

// ============================================================================
//  共享测试辅助工具 (Shared Test Helpers & Mocks)
// ============================================================================

// fetcherFunc 是 Fetcher 接口的函数式测试替身。
type fetcherFunc func(url string) (string, error)

func (f fetcherFunc) Fetch(_ context.Context, url string) (string, error) {
	return f(url)
}

// recordingFetcher 记录所有被请求过的 URL，并按固定响应体应答。
type recordingFetcher struct {
	urls []string
	body string
	err  error
}

func (r *recordingFetcher) Fetch(_ context.Context, url string) (string, error) {
	r.urls = append(r.urls, url)
	if r.err != nil {
		return "", r.err
	}
	return r.body, nil
}
