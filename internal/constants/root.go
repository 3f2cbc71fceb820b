package constants

import "time"

const (
	AppName            = "habitual"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/habitual/habitual.db"
	Version            = "v0.3.0"

	// TimeFormat is the time-of-day format used for schedules (HH:MM)
	TimeFormat = "15:04"
	// ReminderFormat shows when a reminder fires
	ReminderFormat = "Mon Jan 2 " + TimeFormat

	// Storage keys
	HabitsKey        = "habits"
	NotificationsKey = "notifications"
	PermissionKey    = "notifications.permission"
	RedisKeyPrefix   = "habitual:"
	ConnectionEnvVar = "HABITUAL_DB_CONNECTION"

	// Scheduling
	WeeklyInterval = 7 * 24 * time.Hour

	// Dispatcher
	DefaultDispatchInterval = 30 * time.Second

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "habitual-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.habitual"
	TrayProcessName        = "habitual-tray"
	SecretHeader           = "X-Habitual-Secret"
)
