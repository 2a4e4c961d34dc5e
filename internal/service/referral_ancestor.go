package service

import (
	"github.com/hashburst/internal/constants"
	"github.com/hashburst/internal/logger"
	"github.com/hashburst/internal/models"
	"github.com/hashburst/internal/repository"
)

// AncestorLink 带层级的上级
type AncestorLink struct {
	Level  int  `json:"level"`
	UserID uint `json:"user_id"`
}

// AncestorChain 上级链，一级在前，最多三级
type AncestorChain []AncestorLink

// UserIDs 按层级顺序返回上级 ID
func (c AncestorChain) UserIDs() []uint {
	ids := make([]uint, 0, len(c))
	for _, link := range c {
		ids = append(ids, link.UserID)
	}
	return ids
}

// At 返回指定层级的上级
func (c AncestorChain) At(level int) (uint, bool) {
	for _, link := range c {
		if link.Level == level {
			return link.UserID, true
		}
	}
	return 0, false
}

// BuildAncestorChain 由用户已落库的三级上级字段构建上级链。
// 缺级时提前结束；出现自身或重复上级时记录告警并截断。
func BuildAncestorChain(user *models.User) AncestorChain {
	if user == nil {
		return AncestorChain{}
	}
	chain := make(AncestorChain, 0, constants.ReferralMaxLevel)
	seen := map[uint]struct{}{user.ID: {}}
	for idx, ancestor := range user.AncestorIDs() {
		if idx >= constants.ReferralMaxLevel {
			break
		}
		if ancestor == nil || *ancestor == 0 {
			break
		}
		if _, ok := seen[*ancestor]; ok {
			logger.Warnw("referral_ancestor_cycle_detected",
				"user_id", user.ID,
				"ancestor_id", *ancestor,
				"ancestor_level", idx+1,
			)
			break
		}
		seen[*ancestor] = struct{}{}
		chain = append(chain, AncestorLink{Level: idx + 1, UserID: *ancestor})
	}
	return chain
}

// walkUpline 从 startID 开始沿推荐关系向上遍历完整上线（不限层级）。
// 每读取一行即可通过冗余字段前进三级；遇到 selfID 时 hitSelf 为 true。
func walkUpline(userRepo repository.UserRepository, startID, selfID uint) (upline []uint, hitSelf bool, err error) {
	upline = make([]uint, 0, constants.ReferralMaxLevel)
	visited := map[uint]struct{}{}
	if selfID != 0 {
		visited[selfID] = struct{}{}
	}

	// 返回 false 表示遍历应当结束
	visit := func(id uint, fromID uint) bool {
		if id == 0 {
			return false
		}
		if _, ok := visited[id]; ok {
			if id == selfID {
				hitSelf = true
			}
			logger.Warnw("referral_ancestor_cycle_detected",
				"user_id", fromID,
				"ancestor_id", id,
			)
			return false
		}
		if len(upline) >= constants.ReferralUplineMaxHops {
			logger.Warnw("referral_upline_hops_exceeded",
				"start_id", startID,
				"hops", len(upline),
			)
			return false
		}
		visited[id] = struct{}{}
		upline = append(upline, id)
		return true
	}

	current := startID
	from := selfID
	for current != 0 {
		row, getErr := userRepo.GetByID(current)
		if getErr != nil {
			return nil, false, getErr
		}
		if row == nil || !visit(row.ID, from) {
			break
		}
		next := uint(0)
		stepped := true
		for _, ancestor := range []*uint{row.ReferredByID, row.Level2AncestorID} {
			if ancestor == nil || !visit(*ancestor, row.ID) {
				stepped = false
				break
			}
		}
		if stepped && row.Level3AncestorID != nil {
			next = *row.Level3AncestorID
		}
		from = row.ID
		current = next
	}
	return upline, hitSelf, nil
}

// chainFromUpline 取完整上线的前三级作为上级链
func chainFromUpline(upline []uint) AncestorChain {
	chain := make(AncestorChain, 0, constants.ReferralMaxLevel)
	for idx, id := range upline {
		if idx >= constants.ReferralMaxLevel {
			break
		}
		chain = append(chain, AncestorLink{Level: idx + 1, UserID: id})
	}
	return chain
}
