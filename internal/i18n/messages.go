package i18n

var messages = map[string]map[string]string{
	LocaleZH: {
		"error.bad_request":                        "请求参数错误",
		"error.unauthorized":                       "未登录或登录已失效",
		"error.forbidden":                          "无权访问",
		"error.internal":                           "服务器内部错误",
		"error.too_many_requests":                  "请求过于频繁，请稍后再试",
		"error.login_attempts_exceeded":            "登录尝试次数过多，请稍后再试",
		"error.referral_code_rate_limited":         "推荐码校验过于频繁，请稍后再试",
		"error.jwt_secret_missing":                 "服务端未配置 JWT 密钥",
		"error.auth_header_missing":                "缺少 Authorization 请求头",
		"error.auth_header_invalid":                "Authorization 格式错误",
		"error.token_invalid":                      "登录凭证无效",
		"error.token_revoked":                      "登录状态已失效，请重新登录",
		"error.admin_login_invalid":                "用户名或密码错误",
		"error.admin_id_invalid":                   "管理员 ID 无效",
		"error.admin_id_type_invalid":              "管理员 ID 类型错误",
		"error.admin_not_found":                    "管理员不存在",
		"error.admin_fetch_failed":                 "获取管理员信息失败",
		"error.admin_create_failed":                "创建管理员失败",
		"error.admin_username_exists":              "管理员用户名已存在",
		"error.admin_username_invalid":             "管理员用户名无效",
		"error.authz_role_invalid":                 "角色名称无效",
		"error.authz_action_invalid":               "权限动作无效",
		"error.authz_fetch_failed":                 "获取权限信息失败",
		"error.authz_save_failed":                  "保存权限配置失败",
		"error.user_id_invalid":                    "用户 ID 无效",
		"error.user_id_type_invalid":               "用户 ID 类型错误",
		"error.user_not_found":                     "用户不存在",
		"error.user_disabled":                      "账号已被禁用",
		"error.user_status_invalid":                "用户状态无效",
		"error.user_fetch_failed":                  "获取用户信息失败",
		"error.user_update_failed":                 "更新用户失败",
		"error.email_invalid":                      "邮箱格式不正确",
		"error.email_exists":                       "邮箱已被注册",
		"error.login_invalid":                      "邮箱或密码错误",
		"error.login_failed":                       "登录失败",
		"error.register_failed":                    "注册失败",
		"error.login_log_fetch_failed":             "获取登录日志失败",
		"error.audit_log_fetch_failed":             "获取审计日志失败",
		"error.password_old_invalid":               "原密码错误",
		"error.password_update_failed":             "密码修改失败",
		"error.password_weak":                      "密码强度不足",
		"error.password_too_short":                 "密码长度至少 %d 位",
		"error.password_too_long":                  "密码长度不能超过 %d 字节",
		"error.password_require_upper":             "密码必须包含大写字母",
		"error.password_require_lower":             "密码必须包含小写字母",
		"error.password_require_number":            "密码必须包含数字",
		"error.password_require_special":           "密码必须包含特殊字符",
		"error.captcha_required":                   "请完成验证码",
		"error.captcha_invalid":                    "验证码错误",
		"error.captcha_generate_failed":            "验证码生成失败",
		"error.captcha_unavailable":                "验证码服务不可用",
		"error.captcha_config_invalid":             "验证码配置无效",
		"error.referral_config_invalid":            "推荐计划配置无效",
		"error.referral_config_empty":              "未提交任何配置项",
		"error.referral_settings_fetch_failed":     "获取推荐计划配置失败",
		"error.referral_settings_save_failed":      "保存推荐计划配置失败",
		"error.referral_stats_failed":              "获取推荐统计失败",
		"error.referral_tree_failed":               "获取推荐树失败",
		"error.referral_commission_fetch_failed":   "获取佣金记录失败",
		"error.referral_commission_not_found":      "佣金记录不存在",
		"error.referral_commission_status_invalid": "佣金状态不允许该操作",
		"error.referral_commission_pay_failed":     "佣金结算失败",
		"error.referral_bonus_reconcile_failed":    "结构奖励补发失败",
		"error.commission_id_invalid":              "佣金记录 ID 无效",
		"error.purchase_amount_invalid":            "购买金额无效",
		"error.purchase_not_found":                 "购买记录不存在",
		"error.purchase_status_invalid":            "购买状态不允许该操作",
		"error.purchase_create_failed":             "创建购买记录失败",
		"error.purchase_fetch_failed":              "获取购买记录失败",
		"error.purchase_update_failed":             "更新购买记录失败",
		"error.purchase_id_invalid":                "购买记录 ID 无效",
	},
	LocaleTW: {
		"error.bad_request":                        "請求參數錯誤",
		"error.unauthorized":                       "未登入或登入已失效",
		"error.forbidden":                          "無權存取",
		"error.internal":                           "伺服器內部錯誤",
		"error.too_many_requests":                  "請求過於頻繁，請稍後再試",
		"error.login_attempts_exceeded":            "登入嘗試次數過多，請稍後再試",
		"error.referral_code_rate_limited":         "推薦碼驗證過於頻繁，請稍後再試",
		"error.jwt_secret_missing":                 "服務端未設定 JWT 金鑰",
		"error.auth_header_missing":                "缺少 Authorization 請求標頭",
		"error.auth_header_invalid":                "Authorization 格式錯誤",
		"error.token_invalid":                      "登入憑證無效",
		"error.token_revoked":                      "登入狀態已失效，請重新登入",
		"error.admin_login_invalid":                "使用者名稱或密碼錯誤",
		"error.admin_id_invalid":                   "管理員 ID 無效",
		"error.admin_id_type_invalid":              "管理員 ID 類型錯誤",
		"error.admin_not_found":                    "管理員不存在",
		"error.admin_fetch_failed":                 "取得管理員資訊失敗",
		"error.admin_create_failed":                "建立管理員失敗",
		"error.admin_username_exists":              "管理員使用者名稱已存在",
		"error.admin_username_invalid":             "管理員使用者名稱無效",
		"error.authz_role_invalid":                 "角色名稱無效",
		"error.authz_action_invalid":               "權限動作無效",
		"error.authz_fetch_failed":                 "取得權限資訊失敗",
		"error.authz_save_failed":                  "儲存權限設定失敗",
		"error.user_id_invalid":                    "使用者 ID 無效",
		"error.user_id_type_invalid":               "使用者 ID 類型錯誤",
		"error.user_not_found":                     "使用者不存在",
		"error.user_disabled":                      "帳號已被停用",
		"error.user_status_invalid":                "使用者狀態無效",
		"error.user_fetch_failed":                  "取得使用者資訊失敗",
		"error.user_update_failed":                 "更新使用者失敗",
		"error.email_invalid":                      "信箱格式不正確",
		"error.email_exists":                       "信箱已被註冊",
		"error.login_invalid":                      "信箱或密碼錯誤",
		"error.login_failed":                       "登入失敗",
		"error.register_failed":                    "註冊失敗",
		"error.login_log_fetch_failed":             "取得登入紀錄失敗",
		"error.audit_log_fetch_failed":             "取得稽核紀錄失敗",
		"error.password_old_invalid":               "原密碼錯誤",
		"error.password_update_failed":             "密碼修改失敗",
		"error.password_weak":                      "密碼強度不足",
		"error.password_too_short":                 "密碼長度至少 %d 位",
		"error.password_too_long":                  "密碼長度不能超過 %d 位元組",
		"error.password_require_upper":             "密碼必須包含大寫字母",
		"error.password_require_lower":             "密碼必須包含小寫字母",
		"error.password_require_number":            "密碼必須包含數字",
		"error.password_require_special":           "密碼必須包含特殊字元",
		"error.captcha_required":                   "請完成驗證碼",
		"error.captcha_invalid":                    "驗證碼錯誤",
		"error.captcha_generate_failed":            "驗證碼產生失敗",
		"error.captcha_unavailable":                "驗證碼服務無法使用",
		"error.captcha_config_invalid":             "驗證碼設定無效",
		"error.referral_config_invalid":            "推薦計畫設定無效",
		"error.referral_config_empty":              "未提交任何設定項目",
		"error.referral_settings_fetch_failed":     "取得推薦計畫設定失敗",
		"error.referral_settings_save_failed":      "儲存推薦計畫設定失敗",
		"error.referral_stats_failed":              "取得推薦統計失敗",
		"error.referral_tree_failed":               "取得推薦樹失敗",
		"error.referral_commission_fetch_failed":   "取得佣金紀錄失敗",
		"error.referral_commission_not_found":      "佣金紀錄不存在",
		"error.referral_commission_status_invalid": "佣金狀態不允許此操作",
		"error.referral_commission_pay_failed":     "佣金結算失敗",
		"error.referral_bonus_reconcile_failed":    "結構獎勵補發失敗",
		"error.commission_id_invalid":              "佣金紀錄 ID 無效",
		"error.purchase_amount_invalid":            "購買金額無效",
		"error.purchase_not_found":                 "購買紀錄不存在",
		"error.purchase_status_invalid":            "購買狀態不允許此操作",
		"error.purchase_create_failed":             "建立購買紀錄失敗",
		"error.purchase_fetch_failed":              "取得購買紀錄失敗",
		"error.purchase_update_failed":             "更新購買紀錄失敗",
		"error.purchase_id_invalid":                "購買紀錄 ID 無效",
	},
	LocaleEN: {
		"error.bad_request":                        "Invalid request parameters",
		"error.unauthorized":                       "Not signed in or session expired",
		"error.forbidden":                          "Access denied",
		"error.internal":                           "Internal server error",
		"error.too_many_requests":                  "Too many requests, please try again later",
		"error.login_attempts_exceeded":            "Too many login attempts, please try again later",
		"error.referral_code_rate_limited":         "Too many referral code checks, please try again later",
		"error.jwt_secret_missing":                 "JWT secret is not configured",
		"error.auth_header_missing":                "Authorization header is missing",
		"error.auth_header_invalid":                "Authorization header is malformed",
		"error.token_invalid":                      "Invalid token",
		"error.token_revoked":                      "Session expired, please sign in again",
		"error.admin_login_invalid":                "Invalid username or password",
		"error.admin_id_invalid":                   "Invalid admin id",
		"error.admin_id_type_invalid":              "Invalid admin id type",
		"error.admin_not_found":                    "Admin not found",
		"error.admin_fetch_failed":                 "Failed to load admin",
		"error.admin_create_failed":                "Failed to create admin",
		"error.admin_username_exists":              "Admin username already exists",
		"error.admin_username_invalid":             "Invalid admin username",
		"error.authz_role_invalid":                 "Invalid role name",
		"error.authz_action_invalid":               "Invalid permission action",
		"error.authz_fetch_failed":                 "Failed to load permissions",
		"error.authz_save_failed":                  "Failed to save permissions",
		"error.user_id_invalid":                    "Invalid user id",
		"error.user_id_type_invalid":               "Invalid user id type",
		"error.user_not_found":                     "User not found",
		"error.user_disabled":                      "Account disabled",
		"error.user_status_invalid":                "Invalid user status",
		"error.user_fetch_failed":                  "Failed to load users",
		"error.user_update_failed":                 "Failed to update user",
		"error.email_invalid":                      "Invalid email address",
		"error.email_exists":                       "Email already registered",
		"error.login_invalid":                      "Invalid email or password",
		"error.login_failed":                       "Login failed",
		"error.register_failed":                    "Registration failed",
		"error.login_log_fetch_failed":             "Failed to load login logs",
		"error.audit_log_fetch_failed":             "Failed to load audit logs",
		"error.password_old_invalid":               "Current password is incorrect",
		"error.password_update_failed":             "Failed to change password",
		"error.password_weak":                      "Password is too weak",
		"error.password_too_short":                 "Password must be at least %d characters",
		"error.password_too_long":                  "Password must be at most %d bytes",
		"error.password_require_upper":             "Password must contain an uppercase letter",
		"error.password_require_lower":             "Password must contain a lowercase letter",
		"error.password_require_number":            "Password must contain a digit",
		"error.password_require_special":           "Password must contain a special character",
		"error.captcha_required":                   "Captcha required",
		"error.captcha_invalid":                    "Invalid captcha",
		"error.captcha_generate_failed":            "Failed to generate captcha",
		"error.captcha_unavailable":                "Captcha unavailable",
		"error.captcha_config_invalid":             "Invalid captcha configuration",
		"error.referral_config_invalid":            "Invalid referral program settings",
		"error.referral_config_empty":              "No settings were provided",
		"error.referral_settings_fetch_failed":     "Failed to load referral settings",
		"error.referral_settings_save_failed":      "Failed to save referral settings",
		"error.referral_stats_failed":              "Failed to load referral stats",
		"error.referral_tree_failed":               "Failed to load referral tree",
		"error.referral_commission_fetch_failed":   "Failed to load commissions",
		"error.referral_commission_not_found":      "Commission not found",
		"error.referral_commission_status_invalid": "Commission status does not allow this action",
		"error.referral_commission_pay_failed":     "Failed to settle commission",
		"error.referral_bonus_reconcile_failed":    "Failed to reconcile structure bonuses",
		"error.commission_id_invalid":              "Invalid commission id",
		"error.purchase_amount_invalid":            "Invalid purchase amount",
		"error.purchase_not_found":                 "Purchase not found",
		"error.purchase_status_invalid":            "Purchase status does not allow this action",
		"error.purchase_create_failed":             "Failed to create purchase",
		"error.purchase_fetch_failed":              "Failed to load purchases",
		"error.purchase_update_failed":             "Failed to update purchase",
		"error.purchase_id_invalid":                "Invalid purchase id",
	},
}
