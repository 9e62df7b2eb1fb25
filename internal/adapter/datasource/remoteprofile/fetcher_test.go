// file: internal/adapter/datasource/remoteprofile/fetcher_test.go
package remoteprofile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_InjectsAuthHeader(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`{"login":"octocat"}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher("secret-token", 5*time.Second)
	body, err := f.Fetch(context.Background(), srv.URL+"/users/octocat")
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "application/vnd.github+json", gotAccept)
	assert.Equal(t, `{"login":"octocat"}`, body)
}

func TestHTTPFetcher_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher("", 5*time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "无令牌时不应附加认证头")
}

func TestHTTPFetcher_NonOKBodyStillReturned(t *testing.T) {
	// 状态码不在此层判定：错误信封交由归一化层识别
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"errors":[{"message":"rate limited"}]}}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher("", 5*time.Second)
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err, "非 2xx 响应体应照常返回")
	assert.Contains(t, body, "rate limited")
}

func TestHTTPFetcher_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // 立刻关闭，制造连接失败

	f := NewHTTPFetcher("", 2*time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
}
