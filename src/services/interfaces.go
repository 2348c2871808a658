package services

// EmailService delivers account and notification emails. The concrete
// provider is chosen from configuration at startup.
type EmailService interface {
	SendVerificationEmail(toEmail, username, token string) error
	SendPasswordResetEmail(toEmail, username, token string) error
	SendNotificationEmail(toEmail, subject, body string) error
}
