// file: internal/relmiddleware/limiter_test.go
package relmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestGatewayRateLimiter_IPBurstExhaustion(t *testing.T) {
	// 全局桶给足余量，只验证单 IP 桶耗尽
	grl := NewGatewayRateLimiter(1000, 1000, 1, 3)

	allowed := 0
	for i := 0; i < 10; i++ {
		if grl.Allow("192.0.2.1") {
			allowed++
		}
	}
	if allowed != 3 {
		t.Errorf("峰值为 3 的 IP 桶应恰好放行 3 次, got=%d", allowed)
	}

	// 另一个 IP 有独立的桶
	if !grl.Allow("192.0.2.2") {
		t.Error("不同 IP 不应共享令牌桶")
	}
}

func TestGatewayRateLimiter_GlobalCap(t *testing.T) {
	grl := NewGatewayRateLimiter(1, 2, 1000, 1000)

	allowed := 0
	for i := 0; i < 10; i++ {
		if grl.Allow("198.51.100.1") {
			allowed++
		}
	}
	if allowed != 2 {
		t.Errorf("全局峰值为 2 时应恰好放行 2 次, got=%d", allowed)
	}
}

func TestGatewayRateLimiter_Middleware429(t *testing.T) {
	gin.SetMode(gin.TestMode)

	grl := NewGatewayRateLimiter(1000, 1000, 1, 1)
	router := gin.New()
	router.Use(grl.Middleware())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	do := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "203.0.113.9:4321"
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := do(); code != http.StatusOK {
		t.Fatalf("首个请求应放行, got=%d", code)
	}
	if code := do(); code != http.StatusTooManyRequests {
		t.Errorf("桶耗尽后应返回 429, got=%d", code)
	}
}
