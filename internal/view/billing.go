package view

import (
	"fmt"

	"github.com/hitoshi/vortox/internal/catalog"
)

// BillingPeriod は料金表示の支払いサイクル。
type BillingPeriod string

const (
	BillingWeekly  BillingPeriod = "weekly"
	BillingMonthly BillingPeriod = "monthly"
)

// ParseBillingPeriod はクエリの値を変換する。未知の値は月額になる。
func ParseBillingPeriod(raw string) BillingPeriod {
	if BillingPeriod(raw) == BillingWeekly {
		return BillingWeekly
	}
	return BillingMonthly
}

// Toggle はもう一方の支払いサイクルを返す。
func (b BillingPeriod) Toggle() BillingPeriod {
	if b == BillingWeekly {
		return BillingMonthly
	}
	return BillingWeekly
}

// Label は切り替えボタンの表示名を返す。
func (b BillingPeriod) Label() string {
	if b == BillingWeekly {
		return "Weekly billing"
	}
	return "Monthly billing -30%"
}

// PriceTag はプラン1件分の価格表示。
type PriceTag struct {
	PlanID    string `json:"plan_id"`
	Amount    int    `json:"amount"`
	Display   string `json:"display"`
	Unit      string `json:"unit"`
	ListPrice string `json:"list_price,omitempty"` // 月額のみ、割引前の価格
	Savings   string `json:"savings,omitempty"`
}

// PriceFor は支払いサイクルに応じたプランの価格表示を返す。
func PriceFor(plan catalog.Plan, period BillingPeriod) PriceTag {
	if period == BillingWeekly {
		return PriceTag{
			PlanID:  plan.ID,
			Amount:  plan.WeeklyPrice,
			Display: dollars(plan.WeeklyPrice),
			Unit:    "per week",
		}
	}
	return PriceTag{
		PlanID:    plan.ID,
		Amount:    plan.MonthlyPrice,
		Display:   dollars(plan.MonthlyPrice),
		Unit:      "per month",
		ListPrice: dollars(plan.MonthlyListPrice),
		Savings:   catalog.MonthlySavingsLabel,
	}
}

// UnlimitedThreshold は無制限プランを案内する本数のしきい値を返す。
func UnlimitedThreshold(period BillingPeriod) string {
	if period == BillingWeekly {
		return catalog.UnlimitedWeeklyThreshold
	}
	return catalog.UnlimitedMonthlyThreshold
}

func dollars(n int) string {
	return fmt.Sprintf("$%d", n)
}
