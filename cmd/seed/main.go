package main

import (
	"flag"

	"github.com/hashburst/internal/authz"
	"github.com/hashburst/internal/config"
	"github.com/hashburst/internal/logger"
	"github.com/hashburst/internal/models"
	"github.com/hashburst/internal/provider"
	"github.com/hashburst/internal/service"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type seedAdmin struct {
	username string
	role     string
}

var seedAdmins = []seedAdmin{
	{username: "auditor", role: authz.RoleReadonlyAuditor},
	{username: "operator", role: authz.RoleReferralOperator},
	{username: "finance", role: authz.RoleFinance},
}

// 演示用推荐链：root <- level1 <- level2 <- level3 <- buyer
var seedChain = []string{
	"root@hashburst.local",
	"level1@hashburst.local",
	"level2@hashburst.local",
	"level3@hashburst.local",
	"buyer@hashburst.local",
}

func main() {
	var password string
	var withDemo bool
	flag.StringVar(&password, "password", "Hashburst2026", "种子账号统一密码")
	flag.BoolVar(&withDemo, "demo", true, "是否写入演示推荐链与购买记录")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	container := provider.NewContainer(cfg)

	for _, item := range seedAdmins {
		admin, err := container.AuthService.CreateAdmin(item.username, password, false)
		if err != nil {
			stdLog.Printf("Failed to create admin %s: %v", item.username, err)
			continue
		}
		if err := container.AuthzService.SetAdminRoles(admin.ID, []string{item.role}); err != nil {
			stdLog.Printf("Failed to assign role %s to %s: %v", item.role, item.username, err)
			continue
		}
		stdLog.Printf("Admin ready: %s (%s)", admin.Username, item.role)
	}

	if !withDemo {
		return
	}

	code := ""
	var buyer *models.User
	for _, email := range seedChain {
		result, err := container.UserAuthService.Register(service.RegisterInput{
			Email:        email,
			Password:     password,
			ReferralCode: code,
		})
		if err != nil {
			stdLog.Printf("Skip user %s: %v", email, err)
			existing, getErr := container.UserRepo.GetByEmail(email)
			if getErr != nil || existing == nil {
				return
			}
			code = existing.ReferralCode
			buyer = existing
			continue
		}
		stdLog.Printf("Created user %s with code %s", email, result.User.ReferralCode)
		code = result.User.ReferralCode
		buyer = result.User
	}
	if buyer == nil {
		return
	}

	purchase, err := container.PurchaseService.Create(service.CreatePurchaseInput{
		UserID: buyer.ID,
		Amount: decimal.NewFromInt(1000),
		Remark: "seed purchase",
	})
	if err != nil {
		stdLog.Printf("Failed to create purchase: %v", err)
		return
	}
	completed, err := container.PurchaseService.Complete(purchase.ID)
	if err != nil {
		stdLog.Printf("Failed to complete purchase: %v", err)
		return
	}
	for _, commission := range completed.Commissions {
		stdLog.Printf("Commission level %d -> user %d: %s", commission.Level, commission.UserID, commission.CommissionAmount.String())
	}
}
