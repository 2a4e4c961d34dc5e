package provider

import (
	"time"

	"github.com/hashburst/internal/authz"
	"github.com/hashburst/internal/cache"
	"github.com/hashburst/internal/config"
	"github.com/hashburst/internal/logger"
	"github.com/hashburst/internal/models"
	"github.com/hashburst/internal/queue"
	"github.com/hashburst/internal/repository"
	"github.com/hashburst/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo           repository.AdminRepository
	UserRepo            repository.UserRepository
	PurchaseRepo        repository.PurchaseRepository
	ReferralRepo        repository.ReferralRepository
	ReferralSettingRepo repository.ReferralSettingRepository
	LoginLogRepo        repository.LoginLogRepository
	AdminAuditLogRepo   repository.AdminAuditLogRepository

	// Services
	AuthzService      *authz.Service
	AuthService       *service.AuthService
	UserAuthService   *service.UserAuthService
	CaptchaService    *service.CaptchaService
	SettingService    *service.SettingService
	ReferralService   *service.ReferralService
	PurchaseService   *service.PurchaseService
	LoginLogService   *service.LoginLogService
	AdminAuditService *service.AdminAuditService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// redis 不可用时缓存降级为直连数据库
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.PurchaseRepo = repository.NewPurchaseRepository(db)
	c.ReferralRepo = repository.NewReferralRepository(db)
	c.ReferralSettingRepo = repository.NewReferralSettingRepository(db)
	c.LoginLogRepo = repository.NewLoginLogRepository(db)
	c.AdminAuditLogRepo = repository.NewAdminAuditLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	cacheTTL := time.Duration(c.Config.Referral.SettingsCacheTTLSeconds) * time.Second
	c.SettingService = service.NewSettingService(c.ReferralSettingRepo, cacheTTL)
	if err := c.SettingService.EnsureReferralSettings(); err != nil {
		logger.Warnw("provider_ensure_referral_settings_failed", "error", err)
	}

	c.ReferralService = service.NewReferralService(
		c.UserRepo,
		c.PurchaseRepo,
		c.ReferralRepo,
		c.SettingService,
		c.QueueClient,
		c.Config.Referral.AppURL,
	)
	c.PurchaseService = service.NewPurchaseService(c.PurchaseRepo, c.UserRepo, c.ReferralService)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.ReferralService)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.LoginLogService = service.NewLoginLogService(c.LoginLogRepo)
	c.AdminAuditService = service.NewAdminAuditService(c.AdminAuditLogRepo)
}

// Close 释放队列客户端与 redis 连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
