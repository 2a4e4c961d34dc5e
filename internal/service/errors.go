package service

import "errors"

// 通用错误
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrEmailExists        = errors.New("email already exists")
	ErrUserDisabled       = errors.New("user disabled")
	ErrUserStatusInvalid  = errors.New("user status invalid")
)

// 推荐计划相关错误
var (
	ErrReferralConfigInvalid           = errors.New("referral config invalid")
	ErrReferralSelf                    = errors.New("user cannot refer themselves")
	ErrReferralCycle                   = errors.New("referral would create a cycle")
	ErrReferralAlreadyLinked           = errors.New("user already linked to another referrer")
	ErrReferralDownlineExists          = errors.New("user with downline cannot be relinked")
	ErrReferralCodeGenerateFailed      = errors.New("referral code generation failed")
	ErrReferralCommissionStatusInvalid = errors.New("referral commission status invalid")
	ErrStructureBonusAwardFailed       = errors.New("structure bonus award failed")
)

// 购买相关错误
var (
	ErrPurchaseAmountInvalid = errors.New("purchase amount must be positive")
	ErrPurchaseStatusInvalid = errors.New("purchase status invalid")
)

// 验证码相关错误
var (
	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrCaptchaUnavailable   = errors.New("captcha unavailable")
	ErrCaptchaConfigInvalid = errors.New("captcha config invalid")
)

// 队列相关错误
var (
	ErrQueueUnavailable = errors.New("queue unavailable")
)
