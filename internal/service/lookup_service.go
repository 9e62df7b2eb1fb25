// file: internal/service/lookup_service.go
package service

import (
	"ProfileRelay/internal/core/domain"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// 间接查找注入到行中的键名
const localAccountKey = "LocalAccountId"

// LookupService 负责解算间接查找列：把行中的 ExternalId 值经
// local_accounts.external_login 关联到本地账户。查询前置一层带过期
// 时间的 LRU 缓存以降低每行一次的数据库往返。
type LookupService struct {
	db    *sql.DB
	cache *lru.LRU[string, *domain.LocalAccount]
}

// NewLookupService 创建一个新的 LookupService 实例。
func NewLookupService(db *sql.DB, maxCacheEntries int, defaultCacheTTL time.Duration) (*LookupService, error) {
	if db == nil {
		return nil, fmt.Errorf("LookupService 初始化失败: db 实例不能为 nil")
	}
	if maxCacheEntries <= 0 {
		maxCacheEntries = 1000 // 默认值
	}
	if defaultCacheTTL <= 0 {
		defaultCacheTTL = 5 * time.Minute // 默认值
	}

	cache := lru.NewLRU[string, *domain.LocalAccount](maxCacheEntries, nil, defaultCacheTTL)

	return &LookupService{
		db:    db,
		cache: cache,
	}, nil
}

// Resolve 按外部登录标识查找本地账户。未命中本地记录时返回 (nil, nil)。
func (s *LookupService) Resolve(ctx context.Context, externalLogin string) (*domain.LocalAccount, error) {
	if externalLogin == "" {
		return nil, nil
	}
	if acct, ok := s.cache.Get(externalLogin); ok {
		return acct, nil
	}

	var acct domain.LocalAccount
	err := s.db.QueryRowContext(ctx,
		`SELECT id, external_login, display_name FROM local_accounts WHERE external_login = ?`,
		externalLogin).Scan(&acct.ID, &acct.ExternalLogin, &acct.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查找本地账户 '%s' 失败: %w", externalLogin, err)
	}

	s.cache.Add(externalLogin, &acct)
	return &acct, nil
}

// Annotate 为每个携带 ExternalId 的行注入命中的本地账户主键。
// 无对应本地记录的行保持原样。单行查找失败中止整批注入。
func (s *LookupService) Annotate(ctx context.Context, rows []domain.Row) error {
	for _, row := range rows {
		extID, ok := row["ExternalId"].(string)
		if !ok || extID == "" {
			continue
		}
		acct, err := s.Resolve(ctx, extID)
		if err != nil {
			return err
		}
		if acct != nil {
			row[localAccountKey] = acct.ID
		}
	}
	return nil
}

// InvalidateAll 清除所有查找缓存，结构同步后调用。
func (s *LookupService) InvalidateAll() {
	s.cache.Purge()
	slog.Info("LookupService: 本地账户查找缓存已全部清除")
}
