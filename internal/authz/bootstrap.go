package authz

import "fmt"

// 预置角色
const (
	RoleReadonlyAuditor  = "readonly_auditor"
	RoleReferralOperator = "referral_operator"
	RoleFinance          = "finance"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 推荐后台的预置角色
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role:     RoleReadonlyAuditor,
			Policies: []Policy{{Object: "/admin/*", Action: "GET"}},
		},
		{
			Role:     RoleReferralOperator,
			Inherits: []string{RoleReadonlyAuditor},
			Policies: []Policy{
				{Object: "/admin/referral/settings", Action: "PUT"},
				{Object: "/admin/referral/bonuses/reconcile", Action: "POST"},
				{Object: "/admin/users/:id/status", Action: "PUT"},
				{Object: "/admin/purchases/:id/complete", Action: "POST"},
				{Object: "/admin/purchases/:id/fail", Action: "POST"},
			},
		},
		{
			Role:     RoleFinance,
			Inherits: []string{RoleReadonlyAuditor},
			Policies: []Policy{
				{Object: "/admin/referral/commissions/:id/pay", Action: "POST"},
				{Object: "/admin/purchases/:id/complete", Action: "POST"},
			},
		},
	}
}

// BootstrapBuiltinRoles 写入预置角色、继承关系与策略，重复执行不产生重复规则
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := s.EnsureRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role %s -> %s failed: %w", role, parentRole, err)
			}
		}
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("seed policy for %s failed: %w", role, err)
			}
		}
	}
	return nil
}
