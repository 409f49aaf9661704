package models

// Plan is the subscription tier controlling quota limits and feature access.
type Plan string

const (
	PlanFree       Plan = "FREE"
	PlanPremium    Plan = "PREMIUM"
	PlanEnterprise Plan = "ENTERPRISE"
)

// PlanLimits defines the creation limits and feature gates for a plan.
// A nil limit means unlimited.
type PlanLimits struct {
	DailyLinks       *int64
	MonthlyLinks     *int64
	AllowsCustomCode bool
	AllowsExpiration bool
}

var (
	freeDailyLimit      int64 = 10
	freeMonthlyLimit    int64 = 200
	premiumMonthlyLimit int64 = 600
)

var planLimits = map[Plan]PlanLimits{
	PlanFree: {
		DailyLinks:   &freeDailyLimit,
		MonthlyLinks: &freeMonthlyLimit,
	},
	PlanPremium: {
		MonthlyLinks:     &premiumMonthlyLimit,
		AllowsCustomCode: true,
		AllowsExpiration: true,
	},
	PlanEnterprise: {
		AllowsCustomCode: true,
		AllowsExpiration: true,
	},
}

// Limits returns the limits for the plan, defaulting to the free tier for unknown plans.
func (p Plan) Limits() PlanLimits {
	if limits, ok := planLimits[p]; ok {
		return limits
	}
	return planLimits[PlanFree]
}

// User is the authenticated principal provided by the session collaborator.
// The core trusts it is already authenticated and authorized.
type User struct {
	ID   int64
	Plan Plan
}
