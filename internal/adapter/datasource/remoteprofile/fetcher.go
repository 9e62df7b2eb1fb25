// file: internal/adapter/datasource/remoteprofile/fetcher.go
package remoteprofile

import (
	"ProfileRelay/internal/relobserve"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher 是注入到适配器中的抓取能力：对给定 URL 发起一次 GET，
// 返回原始响应体文本。单次尝试，不重试。
// 实现不解读 HTTP 状态码——错误检测完全基于响应体形态，由归一化层完成。
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// HTTPFetcher 是 Fetcher 的默认实现。认证头由底层 transport 注入，
// 抓取逻辑自身不感知凭据。
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher 创建一个带令牌注入 transport 的抓取器。
// token 为空时不附加认证头。
func NewHTTPFetcher(token string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &tokenTransport{
				token: token,
				base:  http.DefaultTransport,
			},
		},
	}
}

// Fetch 执行一次 GET 并返回完整响应体。
// 传输层失败 (超时 / DNS / 连接中断) 原样向上传播；非 2xx 状态不在
// 此处判定，响应体照常返回交由归一化层识别错误信封。
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("构建请求 '%s' 失败: %w", rawURL, err)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	relobserve.RemoteFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("请求远端资源 '%s' 失败: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取远端响应体失败: %w", err)
	}
	return string(body), nil
}

// tokenTransport 在每个请求上注入认证与版本协商头。
type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Accept", "application/vnd.github+json")
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	return t.base.RoundTrip(clone)
}
