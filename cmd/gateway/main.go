// file: cmd/gateway/main.go

package main

import (
	"ProfileRelay/internal/adapter/datasource/remoteprofile"
	"ProfileRelay/internal/core/port"
	"ProfileRelay/internal/relmiddleware"
	"ProfileRelay/internal/relobserve"
	"ProfileRelay/internal/service"
	"ProfileRelay/internal/transport/http/router"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	_ "modernc.org/sqlite"
)

const version = "v0.3.0"

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
	Pprof    bool   `mapstructure:"pprof"`
}

type RemoteConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Token          string `mapstructure:"token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type RateLimitConfig struct {
	GlobalRate  float64 `mapstructure:"global_rate"`
	GlobalBurst int     `mapstructure:"global_burst"`
	IPRate      float64 `mapstructure:"ip_rate"`
	IPBurst     int     `mapstructure:"ip_burst"`
}

type CacheConfig struct {
	LookupEntries    int `mapstructure:"lookup_entries"`
	LookupTTLMinutes int `mapstructure:"lookup_ttl_minutes"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

func main() {
	// 在日志系统完全初始化前，使用标准 log
	log.Printf("ProfileRelay Gateway %s 正在启动...", version)

	exePath, err := os.Executable()
	if err != nil {
		log.Fatalf("CRITICAL: 无法获取可执行文件路径: %v", err)
	}
	rootDir := filepath.Dir(filepath.Dir(exePath))

	configFilePath := filepath.Join(rootDir, "configs", "config.yaml")
	viper.SetConfigFile(configFilePath)

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("CRITICAL: 读取配置文件 '%s' 失败: %v", configFilePath, err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("CRITICAL: 解析配置到结构体失败: %v", err)
	}

	relobserve.InitLogger(config.Server.LogLevel)
	slog.Info("ProfileRelay Gateway starting up", "version", version)
	slog.Info("检测到项目根目录", "path", rootDir)
	slog.Info("配置加载并解析成功", "path", configFilePath)

	instanceDir := filepath.Join(rootDir, "instance")
	if _, err := os.Stat(instanceDir); os.IsNotExist(err) {
		_ = os.MkdirAll(instanceDir, 0755)
	}
	authDbPath := filepath.Join(instanceDir, "auth.db")
	sysDB, err := initAuthDB(authDbPath)
	if err != nil {
		log.Fatalf("CRITICAL: 初始化认证数据库失败: %v", err)
	}
	defer func() {
		slog.Info("正在关闭系统数据库连接...")
		if err := sysDB.Close(); err != nil {
			slog.Error("关闭系统数据库时发生错误", "error", err)
		}
	}()

	// 确保表结构存在
	if err := service.InitPlatformTables(sysDB); err != nil {
		log.Fatalf("CRITICAL: 初始化平台系统表失败: %v", err)
	}

	timeout := time.Duration(config.Remote.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	fetcher := remoteprofile.NewHTTPFetcher(config.Remote.Token, timeout)
	profileManager := remoteprofile.NewManager(config.Remote.BaseURL, fetcher)
	slog.Info("适配层: 远端档案数据源初始化完成", "type", profileManager.Type())

	dataSourceRegistry := map[string]port.DataSource{
		"profiles_remote": profileManager,
	}

	lookupTTL := time.Duration(config.Cache.LookupTTLMinutes) * time.Minute
	lookupService, err := service.NewLookupService(sysDB, config.Cache.LookupEntries, lookupTTL)
	if err != nil {
		slog.Error("初始化 LookupService 失败", "error", err)
		os.Exit(1)
	}
	slog.Info("服务层: LookupService 初始化完成")

	schemaSyncService, err := service.NewSchemaSyncService(sysDB, dataSourceRegistry, lookupService)
	if err != nil {
		slog.Error("初始化 SchemaSyncService 失败", "error", err)
		os.Exit(1)
	}
	slog.Info("服务层: SchemaSyncService 初始化完成")

	rateLimiter := relmiddleware.NewGatewayRateLimiter(
		config.RateLimit.GlobalRate, config.RateLimit.GlobalBurst,
		config.RateLimit.IPRate, config.RateLimit.IPBurst,
	)
	slog.Info("服务层: GatewayRateLimiter 初始化完成")

	// 配置热重载：远端端点变化时无需重启网关
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("配置文件发生变化，重新加载", "file", e.Name, "op", e.Op.String())
		var reloaded Config
		if err := viper.Unmarshal(&reloaded); err != nil {
			slog.Error("热重载: 解析配置失败，保留旧配置", "error", err)
			return
		}
		if reloaded.Remote.BaseURL != "" && reloaded.Remote.BaseURL != config.Remote.BaseURL {
			profileManager.UpdateEndpoint(reloaded.Remote.BaseURL)
			config.Remote.BaseURL = reloaded.Remote.BaseURL
			slog.Info("热重载: 远端端点已更新", "base_url", reloaded.Remote.BaseURL)
		}
	})

	var setupToken string
	var setupTokenDeadline time.Time
	if service.UserCount(sysDB) == 0 {
		setupToken = genToken()
		setupTokenDeadline = time.Now().Add(30 * time.Minute)
		slog.Warn("系统中无管理员，安装令牌已生成 (30分钟内有效)", "setup_token", setupToken)
	}

	httpRouter := router.New(
		router.Dependencies{
			Registry:           dataSourceRegistry,
			Lookup:             lookupService,
			SchemaSync:         schemaSyncService,
			RateLimiter:        rateLimiter,
			AuthDB:             sysDB,
			SetupToken:         setupToken,
			SetupTokenDeadline: setupTokenDeadline,
		},
	)
	slog.Info("传输层: HTTP 路由器创建完成。")

	addr := fmt.Sprintf(":%d", config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: httpRouter,
	}

	go func() {
		slog.Info("ProfileRelay 网关启动成功，开始监听HTTP请求...", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP服务启动失败", "error", err)
			os.Exit(1)
		}
	}()

	if config.Server.Pprof {
		relobserve.EnablePprof("0.0.0.0:6060")
	}
	relobserve.Register()
	slog.Info("监控: metrics 已注册。")

	// 启动时做一次远端探活，失败只告警不退出
	startupCtx, cancelProbe := context.WithTimeout(context.Background(), timeout)
	if err := schemaSyncService.HealthCheck(startupCtx); err != nil {
		slog.Warn("启动探活: 远端数据源暂不可用", "error", err)
	} else {
		slog.Info("启动探活: 所有数据源健康")
	}
	cancelProbe()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("收到停机信号，准备优雅关闭...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("HTTP服务优雅关闭失败", "error", err)
		os.Exit(1)
	}

	slog.Info("HTTP服务已成功关闭。")
	slog.Info("程序即将退出。")
}

// initAuthDB 封装了认证数据库的初始化逻辑
func initAuthDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_foreign_keys=ON&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开/创建认证数据库 '%s' 失败: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("连接认证数据库 '%s' (Ping) 失败: %w", path, err)
	}
	return db, nil
}

// genToken 生成一次性的安装令牌
func genToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "fallback_token_generation_failed"
	}
	return hex.EncodeToString(b)
}
