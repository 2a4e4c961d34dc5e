package service

import (
	"github.com/hashburst/internal/constants"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CommissionPlan 单个层级的佣金计算结果
type CommissionPlan struct {
	Level  int
	UserID uint
	Rate   decimal.Decimal
	Amount decimal.Decimal
}

// CalculateCommissions 按层级独立计算佣金：amount * rateL / 100，落库前保留两位小数。
// 缺失的层级与计算结果为 0 的层级不产生佣金。
func CalculateCommissions(chain AncestorChain, amount decimal.Decimal, settings ReferralSettings) ([]CommissionPlan, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPurchaseAmountInvalid
	}
	plans := make([]CommissionPlan, 0, len(chain))
	for _, link := range chain {
		if link.Level < constants.ReferralLevel1 || link.Level > constants.ReferralMaxLevel || link.UserID == 0 {
			continue
		}
		rate := rateDecimal(settings.RateForLevel(link.Level))
		commission := amount.Mul(rate).Div(hundred).Round(2)
		if !commission.IsPositive() {
			continue
		}
		plans = append(plans, CommissionPlan{
			Level:  link.Level,
			UserID: link.UserID,
			Rate:   rate,
			Amount: commission,
		})
	}
	return plans, nil
}
