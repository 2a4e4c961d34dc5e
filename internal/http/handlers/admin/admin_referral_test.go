package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hashburst/internal/constants"
	"github.com/hashburst/internal/http/response"
	"github.com/hashburst/internal/models"
	"github.com/hashburst/internal/provider"
	"github.com/hashburst/internal/repository"
	"github.com/hashburst/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupAdminReferralHandlerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:admin_referral_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	settingService := service.NewSettingService(repository.NewReferralSettingRepository(db), time.Minute)
	if err := settingService.EnsureReferralSettings(); err != nil {
		t.Fatalf("ensure settings failed: %v", err)
	}
	referralService := service.NewReferralService(userRepo, purchaseRepo, repository.NewReferralRepository(db), settingService, nil, "https://hashburst.test")

	h := New(&provider.Container{
		SettingService:    settingService,
		ReferralService:   referralService,
		AdminAuditService: service.NewAdminAuditService(repository.NewAdminAuditLogRepository(db)),
	})

	engine := gin.New()
	group := engine.Group("/admin", func(c *gin.Context) {
		c.Set("admin_id", uint(9))
		c.Set("admin_username", "finance")
		c.Set("request_id", "req-test")
		c.Next()
	})
	group.PUT("/referral/settings", h.UpdateReferralSettings)
	group.POST("/referral/commissions/:id/pay", h.PayCommission)
	return engine, db
}

func doAdminRequest(t *testing.T, engine *gin.Engine, method, path, body string) response.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "en-US")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected http status: %d", w.Code)
	}
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v body=%s", err, w.Body.String())
	}
	return resp
}

func TestUpdateReferralSettingsRecordsAudit(t *testing.T) {
	engine, db := setupAdminReferralHandlerTest(t)

	resp := doAdminRequest(t, engine, http.MethodPut, "/admin/referral/settings", `{"level1_rate": 12.5}`)
	if resp.StatusCode != response.CodeOK {
		t.Fatalf("update should succeed, got %d %s", resp.StatusCode, resp.Msg)
	}
	data, ok := resp.Data.(map[string]interface{})
	if !ok || data["level1_rate"] != 12.5 || data["level2_rate"] != 5.0 {
		t.Fatalf("unexpected settings payload: %+v", resp.Data)
	}

	var logs []models.AdminAuditLog
	if err := db.Find(&logs).Error; err != nil {
		t.Fatalf("load audit logs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected one audit log, got %d", len(logs))
	}
	log := logs[0]
	if log.AdminID != 9 || log.AdminUsername != "finance" || log.Action != constants.AuditActionReferralSettingsUpdate {
		t.Fatalf("unexpected audit log: %+v", log)
	}
	if log.Path != "/admin/referral/settings" || log.Method != http.MethodPut || log.RequestID != "req-test" {
		t.Fatalf("unexpected audit request info: %+v", log)
	}
	if _, ok := log.Detail["before"]; !ok {
		t.Fatalf("audit detail should carry previous settings: %+v", log.Detail)
	}
}

func TestUpdateReferralSettingsRejectsInvalidPatch(t *testing.T) {
	engine, db := setupAdminReferralHandlerTest(t)

	empty := doAdminRequest(t, engine, http.MethodPut, "/admin/referral/settings", `{}`)
	if empty.StatusCode != response.CodeBadRequest || empty.Msg != "No settings were provided" {
		t.Fatalf("empty patch should be rejected, got %d %s", empty.StatusCode, empty.Msg)
	}
	invalid := doAdminRequest(t, engine, http.MethodPut, "/admin/referral/settings", `{"level3_rate": 120}`)
	if invalid.StatusCode != response.CodeBadRequest || invalid.Msg != "Invalid referral program settings" {
		t.Fatalf("out of range rate should be rejected, got %d %s", invalid.StatusCode, invalid.Msg)
	}

	var count int64
	if err := db.Model(&models.AdminAuditLog{}).Count(&count).Error; err != nil {
		t.Fatalf("count audit logs failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected updates must not be audited, got %d", count)
	}
}

func TestPayCommissionTransitionsOnce(t *testing.T) {
	engine, db := setupAdminReferralHandlerTest(t)

	commission := models.ReferralCommission{
		UserID:           1,
		FromUserID:       2,
		PurchaseID:       3,
		Level:            1,
		Rate:             decimal.NewFromInt(10),
		PurchaseAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(300)),
		CommissionAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(30)),
		Status:           constants.ReferralCommissionStatusPending,
	}
	if err := db.Create(&commission).Error; err != nil {
		t.Fatalf("create commission failed: %v", err)
	}
	path := fmt.Sprintf("/admin/referral/commissions/%d/pay", commission.ID)

	first := doAdminRequest(t, engine, http.MethodPost, path, "")
	if first.StatusCode != response.CodeOK {
		t.Fatalf("pay should succeed, got %d %s", first.StatusCode, first.Msg)
	}
	var reloaded models.ReferralCommission
	if err := db.First(&reloaded, commission.ID).Error; err != nil {
		t.Fatalf("reload commission failed: %v", err)
	}
	if reloaded.Status != constants.ReferralCommissionStatusPaid || reloaded.PaidAt == nil {
		t.Fatalf("commission should be paid: %+v", reloaded)
	}

	second := doAdminRequest(t, engine, http.MethodPost, path, "")
	if second.StatusCode != response.CodeBadRequest {
		t.Fatalf("paying twice should fail, got %d", second.StatusCode)
	}
	missing := doAdminRequest(t, engine, http.MethodPost, "/admin/referral/commissions/99999/pay", "")
	if missing.StatusCode != response.CodeNotFound {
		t.Fatalf("unknown commission should be not found, got %d", missing.StatusCode)
	}
	bad := doAdminRequest(t, engine, http.MethodPost, "/admin/referral/commissions/abc/pay", "")
	if bad.StatusCode != response.CodeBadRequest || bad.Msg != "Invalid commission id" {
		t.Fatalf("invalid id should be rejected, got %d %s", bad.StatusCode, bad.Msg)
	}

	var logs []models.AdminAuditLog
	if err := db.Where("action = ?", constants.AuditActionCommissionPay).Find(&logs).Error; err != nil {
		t.Fatalf("load audit logs failed: %v", err)
	}
	if len(logs) != 1 || logs[0].TargetID != commission.ID || logs[0].Detail["amount"] != "30.00" {
		t.Fatalf("unexpected pay audit: %+v", logs)
	}
}
