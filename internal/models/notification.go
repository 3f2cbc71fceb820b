package models

import "time"

// Permission is the user's answer to the notification permission prompt.
type Permission string

const (
	PermissionUndetermined Permission = "undetermined"
	PermissionGranted      Permission = "granted"
	PermissionDenied       Permission = "denied"
)

// Content is what the user sees when a notification fires.
type Content struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Payload tags a notification with the habit slot that produced it.
type Payload struct {
	HabitID string `json:"habitId"`
	Day     string `json:"day,omitempty"`
	Time    string `json:"time,omitempty"`
}

// Trigger describes when a notification fires. A zero Interval means one-shot.
type Trigger struct {
	Date     time.Time     `json:"date"`
	Repeats  bool          `json:"repeats"`
	Interval time.Duration `json:"interval,omitempty"`
}

// Notification is a scheduled notification record owned by the notification service.
type Notification struct {
	ID        string    `json:"id"`
	Content   Content   `json:"content"`
	Payload   Payload   `json:"payload"`
	Trigger   Trigger   `json:"trigger"`
	CreatedAt time.Time `json:"created_at"`
}

// Due reports whether the notification should fire at now.
func (n Notification) Due(now time.Time) bool {
	return !n.Trigger.Date.After(now)
}
