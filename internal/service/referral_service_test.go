package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/hashburst/internal/constants"
	"github.com/hashburst/internal/models"
	"github.com/hashburst/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type referralTestEnv struct {
	db       *gorm.DB
	referral *ReferralService
	purchase *PurchaseService
	setting  *SettingService
}

func setupReferralServiceTest(t *testing.T, settings ReferralSettings) *referralTestEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:referral_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	settingRepo := repository.NewReferralSettingRepository(db)
	if err := settingRepo.Save(referralSettingsToModel(settings)); err != nil {
		t.Fatalf("init referral settings failed: %v", err)
	}
	settingSvc := NewSettingService(settingRepo, time.Minute)
	userRepo := repository.NewUserRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	referralSvc := NewReferralService(
		userRepo,
		purchaseRepo,
		repository.NewReferralRepository(db),
		settingSvc,
		nil,
		"https://hashburst.test/",
	)
	return &referralTestEnv{
		db:       db,
		referral: referralSvc,
		purchase: NewPurchaseService(purchaseRepo, userRepo, referralSvc),
		setting:  settingSvc,
	}
}

func (env *referralTestEnv) saveSettings(t *testing.T, settings ReferralSettings) {
	t.Helper()
	if err := repository.NewReferralSettingRepository(env.db).Save(referralSettingsToModel(settings)); err != nil {
		t.Fatalf("save referral settings failed: %v", err)
	}
}

func createReferralTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	code := strings.ToUpper(strings.NewReplacer("@", "", ".", "", "-", "").Replace(email))
	if len(code) > 16 {
		code = code[:16]
	}
	user := &models.User{
		Email:        email,
		PasswordHash: "hash",
		ReferralCode: code,
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s failed: %v", email, err)
	}
	return user
}

// registerReferralTestUser 创建用户并通过推荐服务绑定上级
func registerReferralTestUser(t *testing.T, env *referralTestEnv, email string, referrer *models.User) *models.User {
	t.Helper()
	user := createReferralTestUser(t, env.db, email)
	if referrer == nil {
		return user
	}
	referrerID := referrer.ID
	result, err := env.referral.RegisterWithReferrer(user.ID, &referrerID)
	if err != nil {
		t.Fatalf("register %s under %d failed: %v", email, referrer.ID, err)
	}
	if !result.Linked {
		t.Fatalf("expected %s to be linked", email)
	}
	return reloadReferralTestUser(t, env.db, user.ID)
}

func reloadReferralTestUser(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		t.Fatalf("reload user %d failed: %v", id, err)
	}
	return &user
}

func countReferralRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&count).Error; err != nil {
		t.Fatalf("count rows failed: %v", err)
	}
	return count
}

// buildReferralTestChain A <- B <- C <- D
func buildReferralTestChain(t *testing.T, env *referralTestEnv) (a, b, c, d *models.User) {
	t.Helper()
	a = registerReferralTestUser(t, env, "a@example.com", nil)
	b = registerReferralTestUser(t, env, "b@example.com", a)
	c = registerReferralTestUser(t, env, "c@example.com", b)
	d = registerReferralTestUser(t, env, "d@example.com", c)
	return a, b, c, d
}

func TestOnPurchaseCompletedCreditsThreeLevels(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	a, b, c, d := buildReferralTestChain(t, env)

	result, err := env.referral.OnPurchaseCompleted(d.ID, decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("purchase completed failed: %v", err)
	}
	if len(result.Commissions) != 3 {
		t.Fatalf("expected 3 commissions, got %d", len(result.Commissions))
	}

	expected := map[int]struct {
		userID uint
		amount string
	}{
		1: {c.ID, "100.00"},
		2: {b.ID, "50.00"},
		3: {a.ID, "25.00"},
	}
	var rows []models.ReferralCommission
	if err := env.db.Where("purchase_id = ?", result.Purchase.ID).Order("level ASC").Find(&rows).Error; err != nil {
		t.Fatalf("load commissions failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 persisted commissions, got %d", len(rows))
	}
	for _, row := range rows {
		want := expected[row.Level]
		if row.UserID != want.userID {
			t.Fatalf("level %d should go to user %d, got %d", row.Level, want.userID, row.UserID)
		}
		if row.CommissionAmount.String() != want.amount {
			t.Fatalf("level %d amount want %s got %s", row.Level, want.amount, row.CommissionAmount.String())
		}
		if row.FromUserID != d.ID {
			t.Fatalf("unexpected from user: %d", row.FromUserID)
		}
		if row.Status != constants.ReferralCommissionStatusPending {
			t.Fatalf("unexpected status: %s", row.Status)
		}
	}

	earnings := map[uint][2]string{
		c.ID: {"100.00", "level1"},
		b.ID: {"50.00", "level2"},
		a.ID: {"25.00", "level3"},
	}
	for id, want := range earnings {
		user := reloadReferralTestUser(t, env.db, id)
		if user.ReferralEarnings.String() != want[0] {
			t.Fatalf("user %d earnings want %s got %s", id, want[0], user.ReferralEarnings.String())
		}
		var levelEarning string
		switch want[1] {
		case "level1":
			levelEarning = user.Level1Earnings.String()
		case "level2":
			levelEarning = user.Level2Earnings.String()
		case "level3":
			levelEarning = user.Level3Earnings.String()
		}
		if levelEarning != want[0] {
			t.Fatalf("user %d %s earnings want %s got %s", id, want[1], want[0], levelEarning)
		}
	}
	if got := reloadReferralTestUser(t, env.db, d.ID).ReferralEarnings.String(); got != "0.00" {
		t.Fatalf("purchaser should earn nothing, got %s", got)
	}
}

func TestOnPurchaseCompletedProgramInactive(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	a, b, c, d := buildReferralTestChain(t, env)

	inactive := DefaultReferralSettings()
	inactive.ProgramActive = false
	env.saveSettings(t, inactive)

	result, err := env.referral.OnPurchaseCompleted(d.ID, decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("purchase completed failed: %v", err)
	}
	if len(result.Commissions) != 0 {
		t.Fatalf("expected no commissions, got %d", len(result.Commissions))
	}
	if result.Purchase.ReferralEligible {
		t.Fatalf("purchase made while inactive should not be eligible")
	}
	if count := countReferralRows(t, env.db, &models.ReferralCommission{}, ""); count != 0 {
		t.Fatalf("expected 0 commission rows, got %d", count)
	}
	for _, user := range []*models.User{a, b, c} {
		if got := reloadReferralTestUser(t, env.db, user.ID).ReferralEarnings.String(); got != "0.00" {
			t.Fatalf("user %d earnings should stay zero, got %s", user.ID, got)
		}
	}
}

func TestOnPurchaseCompletedProgramExpired(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	_, _, _, d := buildReferralTestChain(t, env)

	expired := DefaultReferralSettings()
	end := time.Now().Add(-time.Hour)
	expired.ProgramEndDate = &end
	env.saveSettings(t, expired)

	result, err := env.referral.OnPurchaseCompleted(d.ID, decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("purchase completed failed: %v", err)
	}
	if len(result.Commissions) != 0 {
		t.Fatalf("expected no commissions after end date, got %d", len(result.Commissions))
	}
}

func TestOnPurchaseCompletedLevelOneOnly(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	parent := registerReferralTestUser(t, env, "parent@example.com", nil)
	child := registerReferralTestUser(t, env, "child@example.com", parent)

	result, err := env.referral.OnPurchaseCompleted(child.ID, decimal.RequireFromString("199.99"))
	if err != nil {
		t.Fatalf("purchase completed failed: %v", err)
	}
	if len(result.Commissions) != 1 {
		t.Fatalf("expected exactly 1 commission, got %d", len(result.Commissions))
	}
	commission := result.Commissions[0]
	if commission.Level != constants.ReferralLevel1 || commission.UserID != parent.ID {
		t.Fatalf("unexpected commission: %+v", commission)
	}
	// 199.99 * 10% = 19.999 -> 20.00
	if commission.CommissionAmount.String() != "20.00" {
		t.Fatalf("unexpected rounded amount: %s", commission.CommissionAmount.String())
	}
}

func TestOnPurchaseCompletedRejectsInvalidInput(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	user := registerReferralTestUser(t, env, "buyer@example.com", nil)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5), decimal.RequireFromString("0.004")} {
		if _, err := env.referral.OnPurchaseCompleted(user.ID, amount); !errors.Is(err, ErrPurchaseAmountInvalid) {
			t.Fatalf("amount %s should be rejected, got %v", amount, err)
		}
	}
	if _, err := env.referral.OnPurchaseCompleted(99999, decimal.NewFromInt(10)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown purchaser should be not found, got %v", err)
	}
	if count := countReferralRows(t, env.db, &models.Purchase{}, ""); count != 0 {
		t.Fatalf("rejected purchases must not be written, got %d", count)
	}
}

func TestOnPurchaseCompletedRollsBackOnCommissionFailure(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	a, b, c, d := buildReferralTestChain(t, env)

	// 占用下一笔购买的二级佣金唯一键，使第二条佣金写入失败
	blocker := models.ReferralCommission{
		UserID:           a.ID,
		FromUserID:       d.ID,
		PurchaseID:       1,
		Level:            2,
		Rate:             decimal.NewFromInt(5),
		PurchaseAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(1)),
		CommissionAmount: models.NewMoneyFromDecimal(decimal.RequireFromString("0.05")),
		Status:           constants.ReferralCommissionStatusPending,
	}
	if err := env.db.Create(&blocker).Error; err != nil {
		t.Fatalf("create blocking commission failed: %v", err)
	}

	if _, err := env.referral.OnPurchaseCompleted(d.ID, decimal.NewFromInt(1000)); err == nil {
		t.Fatalf("conflicting commission should fail the purchase")
	}
	if count := countReferralRows(t, env.db, &models.Purchase{}, ""); count != 0 {
		t.Fatalf("purchase must be rolled back, got %d", count)
	}
	if count := countReferralRows(t, env.db, &models.ReferralCommission{}, "id <> ?", blocker.ID); count != 0 {
		t.Fatalf("level 1 commission must be rolled back, got %d", count)
	}
	for _, user := range []*models.User{a, b, c} {
		reloaded := reloadReferralTestUser(t, env.db, user.ID)
		if !reloaded.ReferralEarnings.IsZero() || !reloaded.Level1Earnings.IsZero() || !reloaded.Level2Earnings.IsZero() {
			t.Fatalf("earnings of user %d must be unchanged, got %s", user.ID, reloaded.ReferralEarnings.String())
		}
	}
}

func TestCommissionRateChangeAppliesProspectively(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	parent := registerReferralTestUser(t, env, "rate-parent@example.com", nil)
	child := registerReferralTestUser(t, env, "rate-child@example.com", parent)

	first, err := env.referral.OnPurchaseCompleted(child.ID, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("first purchase failed: %v", err)
	}
	rate := 20.0
	if _, err := env.setting.UpdateReferralSettings(1, ReferralSettingsPatch{Level1Rate: &rate}); err != nil {
		t.Fatalf("update settings failed: %v", err)
	}
	second, err := env.referral.OnPurchaseCompleted(child.ID, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("second purchase failed: %v", err)
	}

	var old models.ReferralCommission
	if err := env.db.First(&old, first.Commissions[0].ID).Error; err != nil {
		t.Fatalf("reload first commission failed: %v", err)
	}
	if !old.Rate.Equal(decimal.NewFromInt(10)) || old.CommissionAmount.String() != "10.00" {
		t.Fatalf("existing commission must keep its snapshot, got rate=%s amount=%s", old.Rate, old.CommissionAmount.String())
	}
	if second.Commissions[0].CommissionAmount.String() != "20.00" {
		t.Fatalf("new commission should use the new rate, got %s", second.Commissions[0].CommissionAmount.String())
	}
	if got := reloadReferralTestUser(t, env.db, parent.ID).ReferralEarnings.String(); got != "30.00" {
		t.Fatalf("unexpected total earnings: %s", got)
	}
}

func TestStructureBonusAwardedAtThreshold(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	a := registerReferralTestUser(t, env, "bonus-a@example.com", nil)
	b := registerReferralTestUser(t, env, "bonus-b@example.com", a)
	if err := env.db.Model(&models.User{}).Where("id = ?", a.ID).Update("network_size", 49).Error; err != nil {
		t.Fatalf("prepare network size failed: %v", err)
	}

	newcomer := createReferralTestUser(t, env.db, "bonus-new@example.com")
	referrerID := b.ID
	result, err := env.referral.RegisterWithReferrer(newcomer.ID, &referrerID)
	if err != nil {
		t.Fatalf("register with referrer failed: %v", err)
	}
	if len(result.AwardedBonuses) != 1 || result.AwardedBonuses[0] != a.ID {
		t.Fatalf("expected bonus awarded to A, got %+v", result.AwardedBonuses)
	}

	reloadedA := reloadReferralTestUser(t, env.db, a.ID)
	if reloadedA.NetworkSize != 50 {
		t.Fatalf("expected A network size 50, got %d", reloadedA.NetworkSize)
	}
	if !reloadedA.StructureBonusEarned || reloadedA.StructureBonusAmount.String() != "500.00" {
		t.Fatalf("A should be flagged with 500.00 bonus, got earned=%v amount=%s", reloadedA.StructureBonusEarned, reloadedA.StructureBonusAmount.String())
	}
	var bonuses []models.StructureBonus
	if err := env.db.Where("user_id = ?", a.ID).Find(&bonuses).Error; err != nil {
		t.Fatalf("load bonuses failed: %v", err)
	}
	if len(bonuses) != 1 || bonuses[0].Amount.String() != "500.00" || bonuses[0].NetworkSize != 50 {
		t.Fatalf("unexpected bonus rows: %+v", bonuses)
	}
	if reloadReferralTestUser(t, env.db, b.ID).StructureBonusEarned {
		t.Fatalf("B is below threshold and must not be awarded")
	}

	// 同一注册事件重放
	retry, err := env.referral.RegisterWithReferrer(newcomer.ID, &referrerID)
	if err != nil {
		t.Fatalf("replayed registration should not fail: %v", err)
	}
	if !retry.AlreadyLinked || retry.Linked {
		t.Fatalf("replay should be detected as already linked: %+v", retry)
	}
	if len(retry.AwardedBonuses) != 0 {
		t.Fatalf("replay must not award again: %+v", retry.AwardedBonuses)
	}
	if count := countReferralRows(t, env.db, &models.StructureBonus{}, "user_id = ?", a.ID); count != 1 {
		t.Fatalf("expected exactly one bonus, got %d", count)
	}
	if got := reloadReferralTestUser(t, env.db, a.ID).NetworkSize; got != 50 {
		t.Fatalf("replay must not increment network size again, got %d", got)
	}
}

func TestStructureBonusNotAwardedBelowThreshold(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	a := registerReferralTestUser(t, env, "below-a@example.com", nil)
	if err := env.db.Model(&models.User{}).Where("id = ?", a.ID).Update("network_size", 48).Error; err != nil {
		t.Fatalf("prepare network size failed: %v", err)
	}
	registerReferralTestUser(t, env, "below-b@example.com", a)

	reloaded := reloadReferralTestUser(t, env.db, a.ID)
	if reloaded.NetworkSize != 49 {
		t.Fatalf("expected network size 49, got %d", reloaded.NetworkSize)
	}
	if reloaded.StructureBonusEarned {
		t.Fatalf("one below threshold must not qualify")
	}
	if count := countReferralRows(t, env.db, &models.StructureBonus{}, ""); count != 0 {
		t.Fatalf("expected no bonus rows, got %d", count)
	}
}

func TestStructureBonusNotAwardedWhileProgramInactive(t *testing.T) {
	settings := DefaultReferralSettings()
	settings.StructureBonusThreshold = 1
	settings.ProgramActive = false
	env := setupReferralServiceTest(t, settings)

	a := registerReferralTestUser(t, env, "closed-a@example.com", nil)
	registerReferralTestUser(t, env, "closed-b@example.com", a)
	if reloadReferralTestUser(t, env.db, a.ID).StructureBonusEarned {
		t.Fatalf("bonus must not be awarded while program is inactive")
	}

	settings.ProgramActive = true
	env.saveSettings(t, settings)
	result, err := env.referral.ReconcileStructureBonuses(10)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if len(result.Awarded) != 1 || result.Awarded[0] != a.ID {
		t.Fatalf("reconcile should award the missed bonus, got %+v", result)
	}
}

func TestEvaluateStructureBonusesIsIdempotent(t *testing.T) {
	settings := DefaultReferralSettings()
	settings.StructureBonusThreshold = 2
	env := setupReferralServiceTest(t, settings)

	root := registerReferralTestUser(t, env, "idem-root@example.com", nil)
	child := registerReferralTestUser(t, env, "idem-child@example.com", root)
	registerReferralTestUser(t, env, "idem-grand@example.com", child)
	registerReferralTestUser(t, env, "idem-sibling@example.com", root)

	for i := 0; i < 3; i++ {
		awarded, err := env.referral.EvaluateStructureBonuses([]uint{root.ID}, settings)
		if err != nil {
			t.Fatalf("evaluate #%d failed: %v", i, err)
		}
		if len(awarded) != 0 {
			t.Fatalf("evaluate #%d should not award again: %+v", i, awarded)
		}
	}
	if err := env.db.Model(&models.User{}).Where("id = ?", root.ID).Update("network_size", 500).Error; err != nil {
		t.Fatalf("grow network failed: %v", err)
	}
	if _, err := env.referral.EvaluateStructureBonuses([]uint{root.ID}, settings); err != nil {
		t.Fatalf("evaluate after growth failed: %v", err)
	}
	if count := countReferralRows(t, env.db, &models.StructureBonus{}, "user_id = ?", root.ID); count != 1 {
		t.Fatalf("expected exactly one bonus for root, got %d", count)
	}
}

func TestEvaluateStructureBonusRepairsMissingFlag(t *testing.T) {
	settings := DefaultReferralSettings()
	settings.StructureBonusThreshold = 1
	env := setupReferralServiceTest(t, settings)

	user := createReferralTestUser(t, env.db, "repair@example.com")
	if err := env.db.Model(&models.User{}).Where("id = ?", user.ID).Update("network_size", 3).Error; err != nil {
		t.Fatalf("prepare network size failed: %v", err)
	}
	existing := &models.StructureBonus{
		UserID:      user.ID,
		Amount:      models.NewMoneyFromDecimal(decimal.NewFromInt(300)),
		NetworkSize: 3,
		Threshold:   1,
		AwardedAt:   time.Now(),
	}
	if err := env.db.Create(existing).Error; err != nil {
		t.Fatalf("create existing bonus failed: %v", err)
	}

	awarded, err := env.referral.EvaluateStructureBonuses([]uint{user.ID}, settings)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(awarded) != 0 {
		t.Fatalf("conflict should be a no-op, got %+v", awarded)
	}
	reloaded := reloadReferralTestUser(t, env.db, user.ID)
	if !reloaded.StructureBonusEarned || reloaded.StructureBonusAmount.String() != "300.00" {
		t.Fatalf("flag should be repaired from the existing record, got %v %s", reloaded.StructureBonusEarned, reloaded.StructureBonusAmount.String())
	}
}

func TestNetworkSizeCountsFullUpline(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	users := make([]*models.User, 0, 6)
	var parent *models.User
	for i := 0; i < 6; i++ {
		user := registerReferralTestUser(t, env, fmt.Sprintf("deep-%d@example.com", i), parent)
		users = append(users, user)
		parent = user
	}

	for idx, user := range users {
		reloaded := reloadReferralTestUser(t, env.db, user.ID)
		want := int64(len(users) - idx - 1)
		if reloaded.NetworkSize != want || reloaded.TotalReferrals != want {
			t.Fatalf("user %d network size want %d got %d/%d", idx, want, reloaded.NetworkSize, reloaded.TotalReferrals)
		}
		wantDirect := int64(1)
		if idx == len(users)-1 {
			wantDirect = 0
		}
		if reloaded.DirectReferrals != wantDirect {
			t.Fatalf("user %d direct referrals want %d got %d", idx, wantDirect, reloaded.DirectReferrals)
		}
	}

	result, err := env.referral.OnPurchaseCompleted(users[5].ID, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	if len(result.Commissions) != 3 {
		t.Fatalf("commissions are capped at three levels, got %d", len(result.Commissions))
	}
	for _, commission := range result.Commissions {
		if commission.UserID == users[0].ID || commission.UserID == users[1].ID {
			t.Fatalf("ancestor beyond level 3 must not earn: %+v", commission)
		}
	}
}

func TestRegisterWithReferrerRejectsInvalidLinks(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	a := registerReferralTestUser(t, env, "link-a@example.com", nil)
	b := registerReferralTestUser(t, env, "link-b@example.com", a)
	other := registerReferralTestUser(t, env, "link-other@example.com", nil)

	selfID := a.ID
	if _, err := env.referral.RegisterWithReferrer(a.ID, &selfID); !errors.Is(err, ErrReferralSelf) {
		t.Fatalf("expected self referral error, got %v", err)
	}
	otherID := other.ID
	if _, err := env.referral.RegisterWithReferrer(b.ID, &otherID); !errors.Is(err, ErrReferralAlreadyLinked) {
		t.Fatalf("expected already linked error, got %v", err)
	}
	bID := b.ID
	if _, err := env.referral.RegisterWithReferrer(a.ID, &bID); !errors.Is(err, ErrReferralDownlineExists) {
		t.Fatalf("expected downline error, got %v", err)
	}
	missing := uint(99999)
	if _, err := env.referral.RegisterWithReferrer(other.ID, &missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for unknown referrer, got %v", err)
	}

	result, err := env.referral.RegisterWithReferrer(other.ID, nil)
	if err != nil || result.Linked {
		t.Fatalf("nil referrer should be a no-op, got %+v %v", result, err)
	}
}

func TestValidateReferralCode(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	referrer := createReferralTestUser(t, env.db, "code-owner@example.com")
	settings := DefaultReferralSettings()

	valid, err := env.referral.ValidateReferralCode("  "+strings.ToLower(referrer.ReferralCode)+" ", settings)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !valid.Valid || valid.ReferrerID == nil || *valid.ReferrerID != referrer.ID {
		t.Fatalf("expected valid code for referrer %d, got %+v", referrer.ID, valid)
	}

	missing, err := env.referral.ValidateReferralCode("DOESNOTEXIST", settings)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if missing.Valid || missing.Reason != constants.ReferralReasonCodeNotFound || missing.ReferrerID != nil {
		t.Fatalf("expected not found result, got %+v", missing)
	}

	empty, _ := env.referral.ValidateReferralCode("   ", settings)
	if empty.Valid || empty.Reason != constants.ReferralReasonCodeEmpty {
		t.Fatalf("expected empty code result, got %+v", empty)
	}

	inactive := settings
	inactive.ProgramActive = false
	closed, _ := env.referral.ValidateReferralCode(referrer.ReferralCode, inactive)
	if closed.Valid || closed.Reason != constants.ReferralReasonProgramInactive {
		t.Fatalf("inactive program should be checked first, got %+v", closed)
	}

	expired := settings
	end := time.Now().Add(-time.Minute)
	expired.ProgramEndDate = &end
	ended, _ := env.referral.ValidateReferralCode(referrer.ReferralCode, expired)
	if ended.Valid || ended.Reason != constants.ReferralReasonProgramExpired {
		t.Fatalf("expired program should be rejected, got %+v", ended)
	}
}

func TestGetReferralTreeMatchesAncestorChains(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	root := registerReferralTestUser(t, env, "tree-root@example.com", nil)
	l1a := registerReferralTestUser(t, env, "tree-l1a@example.com", root)
	l1b := registerReferralTestUser(t, env, "tree-l1b@example.com", root)
	l2a := registerReferralTestUser(t, env, "tree-l2a@example.com", l1a)
	registerReferralTestUser(t, env, "tree-l2b@example.com", l1b)
	l3 := registerReferralTestUser(t, env, "tree-l3@example.com", l2a)
	registerReferralTestUser(t, env, "tree-l4@example.com", l3)
	registerReferralTestUser(t, env, "tree-outsider@example.com", nil)

	tree, err := env.referral.GetReferralTree(root.ID, 3)
	if err != nil {
		t.Fatalf("get tree failed: %v", err)
	}
	if len(tree.Levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(tree.Levels))
	}

	var all []models.User
	if err := env.db.Find(&all).Error; err != nil {
		t.Fatalf("load users failed: %v", err)
	}
	expected := map[int][]uint{}
	for i := range all {
		for _, link := range BuildAncestorChain(&all[i]) {
			if link.UserID == root.ID {
				expected[link.Level] = append(expected[link.Level], all[i].ID)
			}
		}
	}
	for _, level := range tree.Levels {
		got := make([]uint, 0, len(level.Members))
		for _, member := range level.Members {
			if member.Level != level.Level {
				t.Fatalf("member %d tagged with level %d inside level %d", member.ID, member.Level, level.Level)
			}
			got = append(got, member.ID)
		}
		want := expected[level.Level]
		sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
		sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Fatalf("level %d mismatch: want %v got %v", level.Level, want, got)
		}
	}
	if tree.Levels[0].Count != 2 || tree.Levels[1].Count != 2 || tree.Levels[2].Count != 1 {
		t.Fatalf("unexpected level counts: %d/%d/%d", tree.Levels[0].Count, tree.Levels[1].Count, tree.Levels[2].Count)
	}
	if tree.Total != 5 {
		t.Fatalf("unexpected total: %d", tree.Total)
	}

	shallow, err := env.referral.GetReferralTree(root.ID, 1)
	if err != nil {
		t.Fatalf("get shallow tree failed: %v", err)
	}
	if shallow.MaxLevel != 1 || len(shallow.Levels) != 1 {
		t.Fatalf("expected a single level, got %+v", shallow)
	}
	for _, depth := range []int{0, -1, 9} {
		clamped, err := env.referral.GetReferralTree(root.ID, depth)
		if err != nil {
			t.Fatalf("get tree depth %d failed: %v", depth, err)
		}
		if clamped.MaxLevel != constants.ReferralMaxLevel {
			t.Fatalf("depth %d should clamp to 3, got %d", depth, clamped.MaxLevel)
		}
	}
	if _, err := env.referral.GetReferralTree(99999, 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResolveAncestors(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	a, b, c, d := buildReferralTestChain(t, env)

	chain, err := env.referral.ResolveAncestors(d.ID)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if fmt.Sprint(chain.UserIDs()) != fmt.Sprint([]uint{c.ID, b.ID, a.ID}) {
		t.Fatalf("unexpected chain: %+v", chain)
	}
	if id, ok := chain.At(constants.ReferralLevel2); !ok || id != b.ID {
		t.Fatalf("level 2 should be B, got %d %v", id, ok)
	}

	rootChain, err := env.referral.ResolveAncestors(a.ID)
	if err != nil || len(rootChain) != 0 {
		t.Fatalf("root should have an empty chain, got %+v %v", rootChain, err)
	}
	if _, err := env.referral.ResolveAncestors(99999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBuildAncestorChainStopsOnCycle(t *testing.T) {
	self := uint(7)
	other := uint(8)
	user := &models.User{ID: 7, ReferredByID: &self}
	if chain := BuildAncestorChain(user); len(chain) != 0 {
		t.Fatalf("self reference must be dropped, got %+v", chain)
	}

	repeated := &models.User{ID: 7, ReferredByID: &other, Level2AncestorID: &other}
	if chain := BuildAncestorChain(repeated); len(chain) != 1 || chain[0].UserID != other {
		t.Fatalf("repeated ancestor must truncate the chain, got %+v", chain)
	}

	gap := &models.User{ID: 7, Level2AncestorID: &other}
	if chain := BuildAncestorChain(gap); len(chain) != 0 {
		t.Fatalf("missing level 1 ends the chain, got %+v", chain)
	}
}

func TestWalkUplineTerminatesOnCorruptCycle(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	x := createReferralTestUser(t, env.db, "cycle-x@example.com")
	y := createReferralTestUser(t, env.db, "cycle-y@example.com")
	if err := env.db.Model(&models.User{}).Where("id = ?", x.ID).Updates(map[string]interface{}{
		"referred_by_id":     y.ID,
		"level2_ancestor_id": x.ID,
	}).Error; err != nil {
		t.Fatalf("corrupt x failed: %v", err)
	}
	if err := env.db.Model(&models.User{}).Where("id = ?", y.ID).Update("referred_by_id", x.ID).Error; err != nil {
		t.Fatalf("corrupt y failed: %v", err)
	}

	upline, hitSelf, err := walkUpline(repository.NewUserRepository(env.db), x.ID, 0)
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	if hitSelf {
		t.Fatalf("no self id was given")
	}
	if fmt.Sprint(upline) != fmt.Sprint([]uint{x.ID, y.ID}) {
		t.Fatalf("cycle should be cut after visiting each node once, got %v", upline)
	}

	_, hitSelf, err = walkUpline(repository.NewUserRepository(env.db), y.ID, x.ID)
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	if !hitSelf {
		t.Fatalf("walking from y should reach x")
	}
}

func TestGetUserReferralStats(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	a, b, c, d := buildReferralTestChain(t, env)
	registerReferralTestUser(t, env, "stats-sibling@example.com", c)

	if _, err := env.referral.OnPurchaseCompleted(d.ID, decimal.NewFromInt(1000)); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	var paidTarget models.ReferralCommission
	if err := env.db.Where("user_id = ?", c.ID).First(&paidTarget).Error; err != nil {
		t.Fatalf("load commission failed: %v", err)
	}
	if _, err := env.referral.PayCommission(paidTarget.ID); err != nil {
		t.Fatalf("pay commission failed: %v", err)
	}
	if _, err := env.referral.OnPurchaseCompleted(d.ID, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("second purchase failed: %v", err)
	}

	stats, err := env.referral.GetUserReferralStats(c.ID)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.DirectReferrals != 2 || stats.NetworkSize != 2 || stats.Level1Count != 2 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.ReferralEarnings.String() != "101.00" || stats.Level1Earnings.String() != "101.00" {
		t.Fatalf("unexpected earnings: %s / %s", stats.ReferralEarnings.String(), stats.Level1Earnings.String())
	}
	if stats.PaidCommission.String() != "100.00" || stats.PendingCommission.String() != "1.00" {
		t.Fatalf("unexpected paid/pending: %s / %s", stats.PaidCommission.String(), stats.PendingCommission.String())
	}
	if stats.ReferralLink != "https://hashburst.test/signup?ref="+c.ReferralCode {
		t.Fatalf("unexpected referral link: %s", stats.ReferralLink)
	}
	if stats.ReferredByID == nil || *stats.ReferredByID != b.ID {
		t.Fatalf("unexpected referred by: %+v", stats.ReferredByID)
	}

	rootStats, err := env.referral.GetUserReferralStats(a.ID)
	if err != nil {
		t.Fatalf("root stats failed: %v", err)
	}
	if rootStats.Level1Count != 1 || rootStats.Level2Count != 1 || rootStats.Level3Count != 2 || rootStats.NetworkSize != 4 {
		t.Fatalf("unexpected root stats: %+v", rootStats)
	}
}

func TestPayCommissionOnlyOnce(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	parent := registerReferralTestUser(t, env, "pay-parent@example.com", nil)
	child := registerReferralTestUser(t, env, "pay-child@example.com", parent)
	result, err := env.referral.OnPurchaseCompleted(child.ID, decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	id := result.Commissions[0].ID
	paid, err := env.referral.PayCommission(id)
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if paid.Status != constants.ReferralCommissionStatusPaid || paid.PaidAt == nil {
		t.Fatalf("unexpected paid commission: %+v", paid)
	}
	if paid.CommissionAmount.String() != "5.00" {
		t.Fatalf("settlement must not change the amount, got %s", paid.CommissionAmount.String())
	}
	if _, err := env.referral.PayCommission(id); !errors.Is(err, ErrReferralCommissionStatusInvalid) {
		t.Fatalf("second settlement should fail, got %v", err)
	}
	if _, err := env.referral.PayCommission(99999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListUserCommissions(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	_, b, c, d := buildReferralTestChain(t, env)
	if _, err := env.referral.OnPurchaseCompleted(d.ID, decimal.NewFromInt(200)); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	rows, total, err := env.referral.ListUserCommissions(b.ID, "", 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("expected one commission for B, got %d", total)
	}
	if rows[0].FromUserEmail != d.Email || rows[0].Level != constants.ReferralLevel2 {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
	if rows[0].CommissionAmount.String() != "10.00" {
		t.Fatalf("unexpected amount: %s", rows[0].CommissionAmount.String())
	}
	if _, _, err := env.referral.ListUserCommissions(c.ID, "bogus", 1, 20); !errors.Is(err, ErrReferralCommissionStatusInvalid) {
		t.Fatalf("expected invalid status error, got %v", err)
	}
}

func TestGetAdminReferralStats(t *testing.T) {
	settings := DefaultReferralSettings()
	settings.StructureBonusThreshold = 3
	env := setupReferralServiceTest(t, settings)
	a, _, _, d := buildReferralTestChain(t, env)
	registerReferralTestUser(t, env, "admin-loner@example.com", nil)

	result, err := env.referral.OnPurchaseCompleted(d.ID, decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	if _, err := env.referral.PayCommission(result.Commissions[0].ID); err != nil {
		t.Fatalf("pay failed: %v", err)
	}

	stats, err := env.referral.GetAdminReferralStats()
	if err != nil {
		t.Fatalf("admin stats failed: %v", err)
	}
	if stats.TotalUsers != 5 || stats.ReferredUsers != 3 {
		t.Fatalf("unexpected user counts: %d/%d", stats.TotalUsers, stats.ReferredUsers)
	}
	if stats.Level1Connections != 3 || stats.Level2Connections != 2 || stats.Level3Connections != 1 {
		t.Fatalf("unexpected connections: %d/%d/%d", stats.Level1Connections, stats.Level2Connections, stats.Level3Connections)
	}
	if stats.TotalCommissions.String() != "175.00" || stats.PaidCommissions.String() != "100.00" || stats.PendingCommissions.String() != "75.00" {
		t.Fatalf("unexpected commission totals: %s/%s/%s", stats.TotalCommissions.String(), stats.PaidCommissions.String(), stats.PendingCommissions.String())
	}
	if stats.StructureBonusCount != 1 || stats.StructureBonusTotal.String() != "500.00" {
		t.Fatalf("unexpected bonus summary: %d %s", stats.StructureBonusCount, stats.StructureBonusTotal.String())
	}
	if len(stats.TopReferrers) == 0 || stats.TopReferrers[0].UserID != a.ID {
		t.Fatalf("A should lead the network ranking: %+v", stats.TopReferrers)
	}
	if len(stats.RecentCommissions) != 3 || len(stats.RecentBonuses) != 1 {
		t.Fatalf("unexpected recent lists: %d/%d", len(stats.RecentCommissions), len(stats.RecentBonuses))
	}
}

func TestGenerateUniqueReferralCode(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		code, err := env.referral.GenerateUniqueReferralCode()
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if len(code) != constants.ReferralCodeLength {
			t.Fatalf("unexpected code length: %q", code)
		}
		for _, r := range code {
			if !strings.ContainsRune(constants.ReferralCodeAlphabet, r) {
				t.Fatalf("unexpected character %q in %s", r, code)
			}
		}
		seen[code] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("codes should be random, got %v", seen)
	}
}
