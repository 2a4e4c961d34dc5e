package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashburst/internal/authz"
	"github.com/hashburst/internal/cache"
	"github.com/hashburst/internal/config"
	adminhandlers "github.com/hashburst/internal/http/handlers/admin"
	publichandlers "github.com/hashburst/internal/http/handlers/public"
	"github.com/hashburst/internal/http/response"
	"github.com/hashburst/internal/logger"
	"github.com/hashburst/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "hb"
	}
	redisClient := cache.Client()
	loginLimiter := RateLimitMiddleware(redisClient,
		NewRateLimitRule(fmt.Sprintf("%s:rate:login", redisPrefix), cfg.Security.LoginRateLimit, "error.login_attempts_exceeded"),
		KeyByIPAndJSONField("email"))
	adminLoginLimiter := RateLimitMiddleware(redisClient,
		NewRateLimitRule(fmt.Sprintf("%s:rate:admin_login", redisPrefix), cfg.Security.LoginRateLimit, "error.login_attempts_exceeded"),
		KeyByIPAndJSONField("username"))
	registerLimiter := RateLimitMiddleware(redisClient,
		NewRateLimitRule(fmt.Sprintf("%s:rate:register", redisPrefix), cfg.Security.LoginRateLimit, ""),
		KeyByIP)
	referralCodeLimiter := RateLimitMiddleware(redisClient,
		NewRateLimitRule(fmt.Sprintf("%s:rate:referral_code", redisPrefix), cfg.Security.ReferralCodeRateLimit, "error.referral_code_rate_limited"),
		KeyByIP)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/captcha/config", publicHandler.GetCaptchaConfig)
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
		}

		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", registerLimiter, publicHandler.Register)
			auth.POST("/login", loginLimiter, publicHandler.Login)
		}

		apiV1.GET("/referral/validate-code", referralCodeLimiter, publicHandler.ValidateReferralCode)
		apiV1.GET("/referral/settings", publicHandler.GetReferralSettings)

		// 用户登录后接口
		userAuthorized := apiV1.Group("")
		userAuthorized.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			userAuthorized.GET("/me", publicHandler.GetMe)
			userAuthorized.PUT("/me/password", publicHandler.ChangePassword)
			userAuthorized.GET("/me/login-logs", publicHandler.ListMyLoginLogs)

			userAuthorized.GET("/referral/stats", publicHandler.GetReferralStats)
			userAuthorized.GET("/referral/link", publicHandler.GetReferralLink)
			userAuthorized.GET("/referral/tree", publicHandler.GetReferralTree)
			userAuthorized.GET("/referral/commissions", publicHandler.ListReferralCommissions)

			userAuthorized.POST("/purchases", publicHandler.CreatePurchase)
			userAuthorized.GET("/purchases", publicHandler.ListMyPurchases)
			userAuthorized.GET("/purchases/:id", publicHandler.GetMyPurchase)
		}

		// 后台接口
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", adminLoginLimiter, adminHandler.AdminLogin)

			// 仅需登录即可访问，不走 RBAC
			self := admin.Group("")
			self.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				self.GET("/me", adminHandler.GetAdminMe)
				self.PUT("/password", adminHandler.ChangePassword)
			}

			authorized := admin.Group("")
			authorized.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			authorized.Use(AdminRBACMiddleware(c.AuthzService))
			{
				// 推荐计划
				authorized.GET("/referral/settings", adminHandler.GetReferralSettings)
				authorized.PUT("/referral/settings", adminHandler.UpdateReferralSettings)
				authorized.GET("/referral/stats", adminHandler.GetReferralStats)
				authorized.GET("/referral/commissions", adminHandler.ListCommissions)
				authorized.POST("/referral/commissions/:id/pay", adminHandler.PayCommission)
				authorized.POST("/referral/bonuses/reconcile", adminHandler.ReconcileBonuses)

				// 用户管理
				authorized.GET("/users", adminHandler.ListUsers)
				authorized.PUT("/users/:id/status", adminHandler.UpdateUserStatus)
				authorized.GET("/users/:id/referral-stats", adminHandler.GetUserReferralStats)
				authorized.GET("/users/:id/referral-tree", adminHandler.GetUserReferralTree)

				// 购买处理
				authorized.GET("/purchases", adminHandler.ListPurchases)
				authorized.POST("/purchases/:id/complete", adminHandler.CompletePurchase)
				authorized.POST("/purchases/:id/fail", adminHandler.FailPurchase)

				// 日志
				authorized.GET("/login-logs", adminHandler.ListLoginLogs)
				authorized.GET("/audit-logs", adminHandler.ListAuditLogs)

				// 权限管理
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.POST("/authz/admins", adminHandler.CreateAuthzAdmin)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		redisStatus := "disabled"
		if cache.Enabled() {
			redisStatus = "ok"
			if err := cache.Ping(c.Request.Context()); err != nil {
				redisStatus = "unavailable"
			}
		}
		c.JSON(200, gin.H{"status": "ok", "redis": redisStatus})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildAdminPermissionCatalog 从已注册路由生成可授权的后台权限清单
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))
	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		switch item.Path {
		case "/api/v1/admin/login", "/api/v1/admin/me", "/api/v1/admin/password":
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})
	return items
}

func deriveAdminPermissionModule(object string) string {
	segments := strings.Split(strings.TrimPrefix(strings.TrimSpace(object), "/"), "/")
	if len(segments) < 2 || segments[0] != "admin" {
		return "system"
	}
	return segments[1]
}
