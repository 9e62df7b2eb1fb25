// Package relmiddleware file: internal/relmiddleware/limiter.go
package relmiddleware

import (
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// GatewayRateLimiter 管理网关的速率限制：一个全局令牌桶兜底整体吞吐，
// 每个来源 IP 另有独立令牌桶。IP 条目放在带过期时间的缓存里，
// 不活跃的来源自动被回收。
type GatewayRateLimiter struct {
	globalLimiter *rate.Limiter

	ipLimiters *cache.Cache
	ipRate     rate.Limit
	ipBurst    int
}

// NewGatewayRateLimiter 创建一个新的网关速率限制器。
func NewGatewayRateLimiter(globalRate float64, globalBurst int, ipRate float64, ipBurst int) *GatewayRateLimiter {
	if globalRate <= 0 {
		globalRate = 30
	}
	if globalBurst <= 0 {
		globalBurst = 60
	}
	if ipRate <= 0 {
		ipRate = 5
	}
	if ipBurst <= 0 {
		ipBurst = 15
	}

	grl := &GatewayRateLimiter{
		globalLimiter: rate.NewLimiter(rate.Limit(globalRate), globalBurst),
		ipLimiters:    cache.New(15*time.Minute, 10*time.Minute),
		ipRate:        rate.Limit(ipRate),
		ipBurst:       ipBurst,
	}

	log.Printf(
		"信息: [Gateway Limiter] 初始化完成。全局限制: %.2f req/s, 峰值: %d。IP限制: %.2f req/s, 峰值: %d",
		globalRate, globalBurst, ipRate, ipBurst,
	)
	return grl
}

// limiterFor 取出或创建指定 IP 的令牌桶，每次访问顺带续期。
func (grl *GatewayRateLimiter) limiterFor(ip string) *rate.Limiter {
	if entry, found := grl.ipLimiters.Get(ip); found {
		limiter := entry.(*rate.Limiter)
		grl.ipLimiters.SetDefault(ip, limiter)
		return limiter
	}
	limiter := rate.NewLimiter(grl.ipRate, grl.ipBurst)
	grl.ipLimiters.SetDefault(ip, limiter)
	return limiter
}

// Allow 判定来自指定 IP 的一次请求是否放行。
func (grl *GatewayRateLimiter) Allow(ip string) bool {
	if !grl.globalLimiter.Allow() {
		return false
	}
	return grl.limiterFor(ip).Allow()
}

// Middleware 返回执行速率限制的 gin 中间件。
func (grl *GatewayRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err != nil {
			ip = c.Request.RemoteAddr
		}
		if !grl.Allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "请求过于频繁，请稍后再试"})
			return
		}
		c.Next()
	}
}
