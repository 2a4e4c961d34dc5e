package cache

import (
	"context"
	"testing"
	"time"

	"github.com/hashburst/internal/config"
	"github.com/hashburst/internal/models"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	UseClient(nil, "")
	ctx := context.Background()

	if Enabled() {
		t.Fatalf("cache should be disabled")
	}
	if err := SetReferralSetting(ctx, &models.ReferralSetting{ID: 1}, 0); err != nil {
		t.Fatalf("set on disabled cache should be noop: %v", err)
	}
	setting, hit, err := GetReferralSetting(ctx)
	if err != nil || hit || setting != nil {
		t.Fatalf("expected miss on disabled cache, got hit=%v err=%v", hit, err)
	}
	if err := Ping(ctx); err != nil {
		t.Fatalf("ping disabled cache should be noop: %v", err)
	}
}

func TestBuildKeyUsesPrefix(t *testing.T) {
	UseClient(nil, " custom ")
	if got := buildKey("referral:settings"); got != "custom:referral:settings" {
		t.Fatalf("unexpected key: %s", got)
	}
	UseClient(nil, "")
	if got := buildKey(" "); got != defaultRedisPrefix {
		t.Fatalf("unexpected empty key: %s", got)
	}
}

func TestBuildAuthStates(t *testing.T) {
	invalidBefore := time.Unix(1_780_000_000, 0)
	user := BuildUserAuthState(&models.User{ID: 7, Status: "active", TokenVersion: 3, TokenInvalidBefore: &invalidBefore})
	if user.UserID != 7 || user.TokenVersion != 3 || user.TokenInvalidBefore != invalidBefore.Unix() {
		t.Fatalf("unexpected user state: %+v", user)
	}
	admin := BuildAdminAuthState(&models.Admin{ID: 2, Username: "finance", IsSuper: false})
	if admin.AdminID != 2 || admin.Username != "finance" || admin.TokenInvalidBefore != 0 {
		t.Fatalf("unexpected admin state: %+v", admin)
	}
	if BuildUserAuthState(nil) != nil || BuildAdminAuthState(nil) != nil {
		t.Fatalf("nil models should build nil states")
	}
	if got := authStateKey("user", 7); got != "auth:user:7" {
		t.Fatalf("unexpected key: %s", got)
	}

	UseClient(nil, "")
	state, hit, err := GetUserAuthState(context.Background(), 7)
	if state != nil || hit || err != nil {
		t.Fatalf("disabled cache should miss: %v %v %v", state, hit, err)
	}
}
