package service

import (
	"errors"
	"testing"

	"github.com/hashburst/internal/config"
	"github.com/hashburst/internal/constants"
	"github.com/hashburst/internal/models"
	"github.com/hashburst/internal/repository"

	"github.com/shopspring/decimal"
)

func newUserAuthServiceForTest(t *testing.T, env *referralTestEnv) *UserAuthService {
	t.Helper()
	cfg := &config.Config{
		UserJWT: config.JWTConfig{SecretKey: "user-secret-for-tests", ExpireHours: 2, RememberMeExpireHours: 48},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8, RequireNumber: true},
		},
	}
	return NewUserAuthService(cfg, repository.NewUserRepository(env.db), env.referral)
}

func TestRegisterWithUnknownReferralCodeProceeds(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	svc := newUserAuthServiceForTest(t, env)

	result, err := svc.Register(RegisterInput{
		Email:        "Newbie@Example.com",
		Password:     "miner2026",
		ReferralCode: "DOESNOTEXIST",
	})
	if err != nil {
		t.Fatalf("register should succeed without referral, got %v", err)
	}
	if result.Referral == nil || result.Referral.Valid || result.Referral.Reason != constants.ReferralReasonCodeNotFound {
		t.Fatalf("unexpected referral validation: %+v", result.Referral)
	}
	if result.Link != nil {
		t.Fatalf("no link should be created: %+v", result.Link)
	}
	user := result.User
	if user.Email != "newbie@example.com" || user.ReferredByID != nil {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.DisplayName != "newbie" || len(user.ReferralCode) != constants.ReferralCodeLength {
		t.Fatalf("unexpected defaults: %q %q", user.DisplayName, user.ReferralCode)
	}
	if result.Token == "" {
		t.Fatalf("token should be issued")
	}
	if count := countReferralRows(t, env.db, &models.User{}, "referred_by_id IS NOT NULL"); count != 0 {
		t.Fatalf("no referral relation expected, got %d", count)
	}
}

func TestRegisterWithReferralCodeLinksUpline(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	svc := newUserAuthServiceForTest(t, env)

	root, err := svc.Register(RegisterInput{Email: "root@example.com", Password: "rootpass1"})
	if err != nil {
		t.Fatalf("register root failed: %v", err)
	}
	child, err := svc.Register(RegisterInput{
		Email:        "child@example.com",
		Password:     "childpass1",
		ReferralCode: root.User.ReferralCode,
	})
	if err != nil {
		t.Fatalf("register child failed: %v", err)
	}
	if child.Link == nil || !child.Link.Linked {
		t.Fatalf("child should be linked: %+v", child.Link)
	}
	if child.User.ReferredByID == nil || *child.User.ReferredByID != root.User.ID {
		t.Fatalf("returned user should carry the new referrer: %+v", child.User.ReferredByID)
	}
	reloaded := reloadReferralTestUser(t, env.db, root.User.ID)
	if reloaded.DirectReferrals != 1 || reloaded.NetworkSize != 1 {
		t.Fatalf("unexpected root counters: %d/%d", reloaded.DirectReferrals, reloaded.NetworkSize)
	}
}

func TestRegisterIgnoresCodeWhileProgramClosed(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	svc := newUserAuthServiceForTest(t, env)
	root, err := svc.Register(RegisterInput{Email: "closed-root@example.com", Password: "rootpass1"})
	if err != nil {
		t.Fatalf("register root failed: %v", err)
	}

	closed := DefaultReferralSettings()
	closed.ProgramActive = false
	env.saveSettings(t, closed)

	child, err := svc.Register(RegisterInput{
		Email:        "closed-child@example.com",
		Password:     "childpass1",
		ReferralCode: root.User.ReferralCode,
	})
	if err != nil {
		t.Fatalf("register child failed: %v", err)
	}
	if child.Referral == nil || child.Referral.Reason != constants.ReferralReasonProgramInactive {
		t.Fatalf("unexpected validation: %+v", child.Referral)
	}
	if child.User.ReferredByID != nil {
		t.Fatalf("closed program must not link users")
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	svc := newUserAuthServiceForTest(t, env)

	if _, err := svc.Register(RegisterInput{Email: "not-an-email", Password: "goodpass1"}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected invalid email, got %v", err)
	}
	if _, err := svc.Register(RegisterInput{Email: "weak@example.com", Password: "short"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password, got %v", err)
	}
	if _, err := svc.Register(RegisterInput{Email: "dup@example.com", Password: "goodpass1"}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(RegisterInput{Email: "DUP@example.com", Password: "goodpass1"}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected email exists, got %v", err)
	}
}

func TestUserLoginAndStatus(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	svc := newUserAuthServiceForTest(t, env)
	registered, err := svc.Register(RegisterInput{Email: "login@example.com", Password: "loginpass1"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	user, token, _, err := svc.Login("login@example.com", "loginpass1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := svc.ParseUserJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != "login@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, _, _, err := svc.Login("login@example.com", "wrongpass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	if _, err := svc.UpdateUserStatus(registered.User.ID, "frozen"); !errors.Is(err, ErrUserStatusInvalid) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	if _, err := svc.UpdateUserStatus(registered.User.ID, constants.UserStatusDisabled); err != nil {
		t.Fatalf("disable failed: %v", err)
	}
	if _, _, _, err := svc.Login("login@example.com", "loginpass1"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("disabled user should not login, got %v", err)
	}
}

func TestUserChangePasswordBumpsTokenVersion(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	svc := newUserAuthServiceForTest(t, env)
	registered, err := svc.Register(RegisterInput{Email: "pwd@example.com", Password: "oldpass12"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.ChangePassword(registered.User.ID, "wrongpass1", "newpass12"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected invalid password, got %v", err)
	}
	if err := svc.ChangePassword(registered.User.ID, "oldpass12", "newpass12"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	reloaded := reloadReferralTestUser(t, env.db, registered.User.ID)
	if reloaded.TokenVersion != registered.User.TokenVersion+1 || reloaded.TokenInvalidBefore == nil {
		t.Fatalf("token version should be bumped: %d", reloaded.TokenVersion)
	}
	if _, _, _, err := svc.Login("pwd@example.com", "newpass12"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

// interleavingUserRepo 在读取用户之后、写回之前插入一次并发写
type interleavingUserRepo struct {
	repository.UserRepository
	afterRead func()
}

func (r *interleavingUserRepo) fire() {
	if r.afterRead != nil {
		fn := r.afterRead
		r.afterRead = nil
		fn()
	}
}

func (r *interleavingUserRepo) GetByEmail(email string) (*models.User, error) {
	user, err := r.UserRepository.GetByEmail(email)
	r.fire()
	return user, err
}

func (r *interleavingUserRepo) GetByID(id uint) (*models.User, error) {
	user, err := r.UserRepository.GetByID(id)
	r.fire()
	return user, err
}

func TestAccountWritesKeepConcurrentReferralEarnings(t *testing.T) {
	env := setupReferralServiceTest(t, DefaultReferralSettings())
	svc := newUserAuthServiceForTest(t, env)
	root, err := svc.Register(RegisterInput{Email: "race-root@example.com", Password: "rootpass1"})
	if err != nil {
		t.Fatalf("register root failed: %v", err)
	}
	child, err := svc.Register(RegisterInput{
		Email:        "race-child@example.com",
		Password:     "childpass1",
		ReferralCode: root.User.ReferralCode,
	})
	if err != nil || child.Link == nil || !child.Link.Linked {
		t.Fatalf("register child failed: %v", err)
	}

	repo := &interleavingUserRepo{UserRepository: repository.NewUserRepository(env.db)}
	racing := NewUserAuthService(svc.cfg, repo, env.referral)
	credit := func() {
		if _, err := env.referral.OnPurchaseCompleted(child.User.ID, decimal.NewFromInt(1000)); err != nil {
			t.Fatalf("concurrent purchase failed: %v", err)
		}
	}

	repo.afterRead = credit
	if _, _, _, err := racing.Login("race-root@example.com", "rootpass1"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	reloaded := reloadReferralTestUser(t, env.db, root.User.ID)
	if reloaded.ReferralEarnings.String() != "100.00" || reloaded.Level1Earnings.String() != "100.00" {
		t.Fatalf("login overwrote earnings: %s", reloaded.ReferralEarnings.String())
	}
	if reloaded.LastLoginAt == nil || reloaded.DirectReferrals != 1 || reloaded.NetworkSize != 1 {
		t.Fatalf("unexpected root after login: %+v", reloaded)
	}

	repo.afterRead = credit
	if err := racing.ChangePassword(root.User.ID, "rootpass1", "rootpass2"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	reloaded = reloadReferralTestUser(t, env.db, root.User.ID)
	if reloaded.ReferralEarnings.String() != "200.00" {
		t.Fatalf("password change overwrote earnings: %s", reloaded.ReferralEarnings.String())
	}
	if reloaded.TokenVersion != root.User.TokenVersion+1 || reloaded.TokenInvalidBefore == nil {
		t.Fatalf("token version should be bumped: %d", reloaded.TokenVersion)
	}

	repo.afterRead = credit
	if _, err := racing.UpdateUserStatus(root.User.ID, constants.UserStatusDisabled); err != nil {
		t.Fatalf("disable failed: %v", err)
	}
	reloaded = reloadReferralTestUser(t, env.db, root.User.ID)
	if reloaded.ReferralEarnings.String() != "300.00" || reloaded.Status != constants.UserStatusDisabled {
		t.Fatalf("status update overwrote earnings: %s %s", reloaded.ReferralEarnings.String(), reloaded.Status)
	}
}
