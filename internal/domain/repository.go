package domain

import "context"

// HistoryRepository persists the generation history as a whole list.
type HistoryRepository interface {
	LoadHistory(ctx context.Context) ([]GenerationJob, error)
	SaveHistory(ctx context.Context, jobs []GenerationJob) error
}

// StateRepository persists everything the client keeps across restarts: the
// history list, the token balance and the stable user identifier.
// Load methods return zero values and a nil error when nothing was stored.
type StateRepository interface {
	HistoryRepository
	LoadTokenBalance(ctx context.Context) (int, error)
	SaveTokenBalance(ctx context.Context, balance int) error
	LoadUserID(ctx context.Context) (string, error)
	SaveUserID(ctx context.Context, userID string) error
}

// EntitlementProvider exposes the subscription flag owned by the commerce layer.
type EntitlementProvider interface {
	HasEntitlement() bool
}

// Notifier schedules a local "generation finished" notification. Delivery
// is best-effort and failures never reach the caller.
type Notifier interface {
	ScheduleLocalNotification(title, body string)
}

// UserIDProvider returns the identifier sent with every backend call.
type UserIDProvider interface {
	CurrentUserID() string
}
