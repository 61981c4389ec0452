package model

import "time"

// NotificationType names the event a notification reports.
type NotificationType string

// NotificationJobAccepted is sent to a job's creator when a recipient accepts.
const NotificationJobAccepted NotificationType = "job_accepted"

// Notification is an append-only event record in one owner's list.
type Notification struct {
	Type      NotificationType `json:"type"`
	JobTitle  string           `json:"jobTitle"`
	Recipient string           `json:"recipient"`
	Time      time.Time        `json:"time"`
}
