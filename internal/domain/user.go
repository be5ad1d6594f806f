package domain

// LoginParams identifies the client to the backend's login call.
type LoginParams struct {
	UserID   string
	Gender   string
	Source   string
	Payments string
	IsFB     *int
}

// UserRecord is the user identity returned by login.
type UserRecord struct {
	ID                   int       `json:"id"`
	UserID               string    `json:"userId"`
	StartAt              *string   `json:"startAt,omitempty"`
	EndAt                *string   `json:"endAt,omitempty"`
	ActivePlanID         *int      `json:"activePlanId,omitempty"`
	PlanTokens           *int      `json:"planTokens,omitempty"`
	IsActivePlan         *bool     `json:"isActivePlan,omitempty"`
	IsActiveSubscription *bool     `json:"isActiveSubscription,omitempty"`
	PlanInfo             *PlanInfo `json:"planInfo,omitempty"`
	Gender               string    `json:"gender"`
	Source               string    `json:"source"`
	IsNewRegistered      bool      `json:"isNewRegistered"`
	Stat                 *UserStat `json:"stat,omitempty"`
}

// PlanInfo describes the plan attached to a user.
type PlanInfo struct {
	ID                int     `json:"id"`
	Code              *string `json:"code,omitempty"`
	Title             *string `json:"title,omitempty"`
	ProductID         *string `json:"productId,omitempty"`
	MaxPhotos         *int    `json:"maxPhotos,omitempty"`
	Price             *int    `json:"price,omitempty"`
	IsForSubscription *bool   `json:"isForSubscription,omitempty"`
}

// UserStat carries quota counters. AvailableGenerations is the token balance.
type UserStat struct {
	StartAt                  *string `json:"startAt,omitempty"`
	MaxPhotos                *int    `json:"maxPhotos,omitempty"`
	MaxStyles                *int    `json:"maxStyles,omitempty"`
	MaxModels                *int    `json:"maxModels,omitempty"`
	IsActiveTariff           *bool   `json:"isActiveTariff,omitempty"`
	TariffID                 *int    `json:"tariffId,omitempty"`
	TotalGenerations         *int    `json:"totalGenerations,omitempty"`
	TotalGenerationsTemplate *int    `json:"totalGenerationsTemplate,omitempty"`
	TotalGenerationsGod      *int    `json:"totalGenerationsGod,omitempty"`
	TotalModels              *int    `json:"totalModels,omitempty"`
	AvailableModels          *int    `json:"availableModels,omitempty"`
	AvailableGenerations     *int    `json:"availableGenerations,omitempty"`
}
