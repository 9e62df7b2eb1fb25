// Package remoteprofile — 远端用户档案 REST API 的查询翻译适配器
// internal/adapter/datasource/remoteprofile/manager.go
package remoteprofile

import (
	"ProfileRelay/internal/core/port"
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
)

// 断言 *Manager 实现 port.DataSource 接口，编译期校验
var _ port.DataSource = (*Manager)(nil)

const defaultBaseURL = "https://api.github.com"

// Manager 是远端档案数据源适配器的核心结构体。
// 每次请求的 解析URL → 抓取 → 归一化 → 充实行 流水线自包含且无跨请求
// 共享状态；唯一的可变量是可热更新的远端基址。
type Manager struct {
	mu      sync.RWMutex
	baseURL string

	fetcher Fetcher
}

// NewManager 创建一个新的 Manager 实例。
func NewManager(baseURL string, fetcher Fetcher) *Manager {
	if fetcher == nil {
		log.Fatal("[RemoteProfile] 致命错误: Fetcher 实例不能为 nil。")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Manager{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
	}
}

// Type 实现 port.DataSource.Type 接口，返回适配器类型。
func (m *Manager) Type() string {
	return "remote_profile"
}

// endpoint 返回当前生效的远端基址。
func (m *Manager) endpoint() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.baseURL
}

// UpdateEndpoint 热更新远端基址，由配置热加载回调触发。
func (m *Manager) UpdateEndpoint(baseURL string) {
	if baseURL == "" {
		return
	}
	m.mu.Lock()
	m.baseURL = strings.TrimRight(baseURL, "/")
	m.mu.Unlock()
}

// HealthCheck 对集合端点发起一次探测抓取并尝试归一化。
func (m *Manager) HealthCheck(ctx context.Context) error {
	body, err := m.fetcher.Fetch(ctx, m.endpoint()+collectionPath)
	if err != nil {
		return fmt.Errorf("远端档案服务探测失败: %w", err)
	}
	if _, err := normalize(body); err != nil {
		return fmt.Errorf("远端档案服务响应异常: %w", err)
	}
	return nil
}
