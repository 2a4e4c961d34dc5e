package constants

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 购买（矿机份额申请）状态常量
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusFailed    = "failed"
)

// 推荐佣金状态常量
const (
	ReferralCommissionStatusPending = "pending"
	ReferralCommissionStatusPaid    = "paid"
)

// 推荐层级常量
const (
	ReferralLevel1   = 1
	ReferralLevel2   = 2
	ReferralLevel3   = 3
	ReferralMaxLevel = ReferralLevel3
)

// 推荐码校验失败原因
const (
	ReferralReasonProgramInactive = "program_inactive"
	ReferralReasonProgramExpired  = "program_expired"
	ReferralReasonCodeEmpty       = "code_empty"
	ReferralReasonCodeNotFound    = "code_not_found"
)

// 推荐码生成参数
const (
	ReferralCodeLength      = 8
	ReferralCodeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	ReferralCodeMaxAttempts = 8
)

// ReferralSettingsSingletonID 推荐设置单例行主键
const ReferralSettingsSingletonID = 1

// ReferralUplineMaxHops 全链路上溯的安全上限（防止脏数据导致无限遍历）
const ReferralUplineMaxHops = 100000

// 队列名称
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskStructureBonusEvaluate  = "referral:structure_bonus_evaluate"
	TaskStructureBonusReconcile = "referral:structure_bonus_reconcile"
)

// 验证码场景
const (
	CaptchaSceneLogin    = "login"
	CaptchaSceneRegister = "register"
)

// 验证码类型
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// 登录日志
const (
	LoginLogStatusSuccess = "success"
	LoginLogStatusFailed  = "failed"

	LoginSubjectUser  = "user"
	LoginSubjectAdmin = "admin"

	LoginFailReasonInvalidCredentials = "invalid_credentials"
	LoginFailReasonUserDisabled       = "user_disabled"
	LoginFailReasonCaptchaInvalid     = "captcha_invalid"
	LoginFailReasonInternalError      = "internal_error"
)

// 后台操作审计动作
const (
	AuditActionReferralSettingsUpdate = "referral_settings_update"
	AuditActionCommissionPay          = "referral_commission_pay"
	AuditActionBonusReconcile         = "structure_bonus_reconcile"
	AuditActionPurchaseComplete       = "purchase_complete"
	AuditActionPurchaseFail           = "purchase_fail"
	AuditActionUserStatusUpdate       = "user_status_update"
	AuditActionAdminRolesUpdate       = "admin_roles_update"
	AuditActionAdminCreate            = "admin_create"
	AuditActionRoleCreate             = "authz_role_create"
	AuditActionPolicyGrant            = "authz_policy_grant"
	AuditActionPolicyRevoke           = "authz_policy_revoke"

	AuditTargetReferralSetting    = "referral_setting"
	AuditTargetReferralCommission = "referral_commission"
	AuditTargetStructureBonus     = "structure_bonus"
	AuditTargetPurchase           = "purchase"
	AuditTargetUser               = "user"
	AuditTargetAdmin              = "admin"
	AuditTargetRole               = "role"
)
