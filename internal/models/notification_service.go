package models

// NotificationService tells event operators about allocations.
type NotificationService interface {
	SendNotification(claim *ClaimRecord)
}
