// file: internal/transport/http/router/router.go
package router

import (
	"ProfileRelay/internal/core/domain"
	"ProfileRelay/internal/core/port"
	"ProfileRelay/internal/relmiddleware"
	"ProfileRelay/internal/relobserve"
	"ProfileRelay/internal/service"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"regexp"
	"sort"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Dependencies 结构体用于将所有依赖项注入到路由器中
type Dependencies struct {
	Registry           map[string]port.DataSource
	Lookup             *service.LookupService
	SchemaSync         *service.SchemaSyncService
	RateLimiter        *relmiddleware.GatewayRateLimiter
	AuthDB             *sql.DB
	SetupToken         string
	SetupTokenDeadline time.Time
}

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// registerValidations 在 gin 的绑定校验引擎上注册自定义规则。
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("tablename", func(fl validator.FieldLevel) bool {
			return tableNameRe.MatchString(fl.Field().String())
		})
	}
}

// New 创建并配置一个全新的、基于 Gin 的 HTTP 路由器
func New(deps Dependencies) http.Handler {
	registerValidations()

	router := gin.Default()

	// --- 配置全局中间件 ---
	router.Use(relmiddleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(metricsMiddleware())
	if deps.RateLimiter != nil {
		router.Use(deps.RateLimiter.Middleware())
	}

	router.GET("/metrics", gin.WrapH(relobserve.Handler()))

	authService := service.NewAuthenticator(deps.AuthDB)
	v1 := router.Group("/api/v1")
	{
		// --- 系统/认证平面 (System/Auth Plane) ---
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", loginHandler(deps.AuthDB))
		}
		systemGroup := v1.Group("/system")
		{
			systemGroup.Any("/setup", setupHandler(deps.AuthDB, deps.SetupToken, deps.SetupTokenDeadline))
			systemGroup.GET("/status", statusHandler(deps.AuthDB))
		}

		// --- 元数据/发现平面 (Metadata/Discovery Plane) ---
		metaGroup := v1.Group("/meta")
		metaGroup.Use(authMiddleware(authService))
		{
			metaGroup.GET("/sources", sourcesHandler(deps.Registry))
			metaGroup.GET("/schema/:sourceName", schemaHandler(deps.Registry))
		}

		// --- 数据平面 (Data Plane) ---
		dataGroup := v1.Group("/data")
		dataGroup.Use(authMiddleware(authService))
		{
			dataGroup.POST("/query", queryHandler(deps.Registry, deps.Lookup))
			dataGroup.POST("/search", searchHandler(deps.Registry, deps.Lookup))
		}

		// --- 控制平面 (Control Plane) ---
		adminGroup := v1.Group("/admin")
		adminGroup.Use(authMiddleware(authService), requireAdmin())
		{
			adminGroup.POST("/schema/sync", schemaSyncHandler(deps.SchemaSync))
			adminGroup.GET("/health", healthHandler(deps.SchemaSync))
		}
	}

	return router
}

// =============================================================================
//  Gin 中间件 (Middleware)
// =============================================================================

// metricsMiddleware 统计请求总量与失败量。
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		relobserve.TotalReq.Inc()
		c.Next()
		if c.Writer.Status() >= http.StatusInternalServerError {
			relobserve.FailReq.Inc()
		}
	}
}

// authMiddleware 将 service.Authenticator 桥接到 gin 流程。
// Authenticator 本身只负责解析并附加载荷，拒绝未认证请求在这里完成。
func authMiddleware(auth *service.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		handler := auth.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			c.Request = r
		}))
		handler.ServeHTTP(c.Writer, c.Request)
		if service.ClaimFrom(c.Request) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "需要认证"})
			return
		}
		c.Next()
	}
}

// requireAdmin 是一个确保只有管理员角色才能访问的中间件
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := service.ClaimFrom(c.Request)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "需要认证"})
			return
		}
		if claims.Role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "需要管理员权限"})
			return
		}
		c.Next()
	}
}

// =============================================================================
//  数据平面处理器 (Data Plane Handlers)
// =============================================================================

// filterPayload 是过滤树的线上表示，与 domain.FilterNode 同构。
type filterPayload struct {
	Op       string          `json:"op"`
	Field    string          `json:"field"`
	Value    string          `json:"value"`
	Children []filterPayload `json:"children"`
}

func (p *filterPayload) toDomain() *domain.FilterNode {
	if p == nil {
		return nil
	}
	node := &domain.FilterNode{
		Op:    p.Op,
		Field: p.Field,
		Value: p.Value,
	}
	for i := range p.Children {
		node.Children = append(node.Children, p.Children[i].toDomain())
	}
	return node
}

// writeDataError 把数据平面的错误统一翻译为 HTTP 响应。
// 远端错误信封与畸形响应归为网关上游故障 (502)。
func writeDataError(c *gin.Context, table string, err error) {
	var remoteErr *port.RemoteServiceError
	switch {
	case errors.As(err, &remoteErr):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "table": table, "error": remoteErr.Message})
	case errors.Is(err, port.ErrMalformedResponse):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "table": table, "error": err.Error()})
	case errors.Is(err, port.ErrTableNotFound), errors.Is(err, port.ErrSourceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "table": table, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "table": table, "error": "查询失败: " + err.Error()})
	}
}

// queryHandler 处理统一的数据查询请求
func queryHandler(registry map[string]port.DataSource, lookup *service.LookupService) gin.HandlerFunc {
	type RequestBody struct {
		Source   string         `json:"source" binding:"required"`
		Table    string         `json:"table" binding:"required,tablename"`
		Filter   *filterPayload `json:"filter"`
		SortBy   string         `json:"sort_by"`
		SortDesc bool           `json:"sort_desc"`
		Page     int            `json:"page"`
		Size     int            `json:"size"`
	}

	return func(c *gin.Context) {
		var reqBody RequestBody
		if err := c.ShouldBindJSON(&reqBody); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "无效的请求体: " + err.Error()})
			return
		}

		dataSource, exists := registry[reqBody.Source]
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "数据源 '" + reqBody.Source + "' 未找到或未注册"})
			return
		}

		filter := reqBody.Filter.toDomain()
		result, err := dataSource.Query(c.Request.Context(), port.QueryRequest{
			TableName: reqBody.Table,
			Filter:    filter,
		})
		if err != nil {
			log.Printf("ERROR: queryHandler query failed for source '%s': %v", reqBody.Source, err)
			writeDataError(c, reqBody.Table, err)
			return
		}

		// 适配器只拉取与归一化；行级过滤、排序与分页在这里完成
		rows := service.FilterRows(result.Rows, filter)
		service.SortRows(rows, reqBody.SortBy, reqBody.SortDesc)
		total := len(rows)
		rows = service.Paginate(rows, reqBody.Page, reqBody.Size)

		if lookup != nil {
			if err := lookup.Annotate(c.Request.Context(), rows); err != nil {
				log.Printf("WARN: queryHandler 本地账户注入失败: %v", err)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"table":   result.Table,
			"rows":    rows,
			"total":   total,
			"source":  result.Source,
		})
	}
}

// searchHandler 处理全文检索请求，每个目标表返回一个结果包
func searchHandler(registry map[string]port.DataSource, lookup *service.LookupService) gin.HandlerFunc {
	type RequestBody struct {
		Source string   `json:"source" binding:"required"`
		Phrase string   `json:"phrase" binding:"required"`
		Tables []string `json:"tables" binding:"dive,tablename"`
	}

	return func(c *gin.Context) {
		var reqBody RequestBody
		if err := c.ShouldBindJSON(&reqBody); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "无效的请求体: " + err.Error()})
			return
		}

		dataSource, exists := registry[reqBody.Source]
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "数据源 '" + reqBody.Source + "' 未找到或未注册"})
			return
		}

		results, err := dataSource.Search(c.Request.Context(), port.SearchRequest{
			Phrase: reqBody.Phrase,
			Tables: reqBody.Tables,
		})
		if err != nil {
			log.Printf("ERROR: searchHandler search failed for source '%s': %v", reqBody.Source, err)
			writeDataError(c, "", err)
			return
		}

		bundles := make([]gin.H, 0, len(results))
		for _, res := range results {
			if lookup != nil {
				if err := lookup.Annotate(c.Request.Context(), res.Rows); err != nil {
					log.Printf("WARN: searchHandler 本地账户注入失败: %v", err)
				}
			}
			bundles = append(bundles, gin.H{
				"success": true,
				"table":   res.Table,
				"rows":    res.Rows,
			})
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "results": bundles})
	}
}

// =============================================================================
//  元数据平面处理器 (Metadata Plane Handlers)
// =============================================================================

// sourcesHandler 返回所有已注册的数据源名称
func sourcesHandler(registry map[string]port.DataSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		names := make([]string, 0, len(registry))
		for name := range registry {
			names = append(names, name)
		}
		sort.Strings(names)
		c.JSON(http.StatusOK, gin.H{"data": names})
	}
}

// schemaHandler 返回指定数据源的静态结构
func schemaHandler(registry map[string]port.DataSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		sourceName := c.Param("sourceName")
		dataSource, exists := registry[sourceName]
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "数据源 '" + sourceName + "' 未找到或未注册"})
			return
		}

		schema, err := dataSource.GetSchema(c.Request.Context(), port.SchemaRequest{
			TableName: c.Query("table"),
		})
		if err != nil {
			if errors.Is(err, port.ErrTableNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "获取Schema失败: " + err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": schema})
	}
}

// =============================================================================
//  控制平面处理器 (Control Plane Handlers)
// =============================================================================

// schemaSyncHandler 触发一轮 "校验并同步" 管理动作
func schemaSyncHandler(syncService *service.SchemaSyncService) gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := syncService.Sync(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "结构同步失败: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": results})
	}
}

// healthHandler 探测所有已注册数据源
func healthHandler(syncService *service.SchemaSyncService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := syncService.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}

// =============================================================================
//  系统与认证处理器
// =============================================================================

// statusHandler 返回系统状态，用于前端判断是否需要进入安装流程
func statusHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if service.UserCount(db) > 0 {
			c.JSON(http.StatusOK, gin.H{"status": "ready_for_login"})
		} else {
			c.JSON(http.StatusOK, gin.H{"status": "needs_setup"})
		}
	}
}

// loginHandler 处理用户登录请求
func loginHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			User string `form:"user" json:"user" binding:"required"`
			Pass string `form:"pass" json:"pass" binding:"required"`
		}
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "用户名或密码不能为空"})
			return
		}
		id, role, ok := service.CheckUser(db, req.User, req.Pass)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "用户名或密码无效"})
			return
		}
		token, err := service.GenToken(id, role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "生成令牌失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "user": gin.H{"id": id, "username": req.User, "role": role}})
	}
}

// setupHandler 处理首次安装时的管理员创建请求
func setupHandler(db *sql.DB, token string, deadline time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			if service.UserCount(db) > 0 {
				c.JSON(http.StatusForbidden, gin.H{"error": "系统已安装，无法获取安装令牌"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"token": token})
			return
		}

		if c.Request.Method == http.MethodPost {
			if service.UserCount(db) > 0 {
				c.JSON(http.StatusForbidden, gin.H{"error": "系统已存在管理员账户，无法重复设置"})
				return
			}
			var req struct {
				Token string `form:"token" json:"token" binding:"required"`
				User  string `form:"user" json:"user" binding:"required"`
				Pass  string `form:"pass" json:"pass" binding:"required"`
			}
			if err := c.ShouldBind(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "令牌、用户名或密码不能为空"})
				return
			}
			if req.Token != token || token == "" || time.Now().After(deadline) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "无效或过期的安装令牌"})
				return
			}
			if err := service.CreateAdmin(db, req.User, req.Pass); err != nil {
				log.Printf("ERROR: [API /setup] 创建管理员 '%s' 失败: %v", req.User, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "创建管理员失败: " + err.Error()})
				return
			}
			id, _, _ := service.CheckUser(db, req.User, req.Pass)
			jwtToken, err := service.GenToken(id, "admin")
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "为新管理员生成令牌失败"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"token": jwtToken, "user": gin.H{"id": id, "username": req.User, "role": "admin"}})
			return
		}
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "仅支持 GET 和 POST 方法"})
	}
}
