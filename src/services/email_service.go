package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/username/finanzas/backend/src/config"
	"github.com/username/finanzas/backend/src/logger"
)

func NewEmailService() EmailService {
	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete, falling back to mock email service")
			return &MockEmailService{}
		}
		return &MailgunEmailService{
			mg:          mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey),
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete, falling back to mock email service")
			return &MockEmailService{}
		}
		return &SMTPEmailService{
			server:      config.Cfg.SMTPServer,
			port:        config.Cfg.SMTPPort,
			user:        config.Cfg.SMTPUser,
			password:    config.Cfg.SMTPPassword,
			senderEmail: config.Cfg.SenderEmail,
		}
	default:
		return &MockEmailService{}
	}
}

type SMTPEmailService struct {
	server      string
	port        int
	user        string
	password    string
	senderEmail string
}

func (s *SMTPEmailService) send(toEmail, subject, body string) error {
	headers := map[string]string{
		"From":         s.senderEmail,
		"To":           toEmail,
		"Subject":      subject,
		"MIME-version": "1.0",
		"Content-Type": `text/plain; charset="UTF-8"`,
	}
	message := ""
	for k, v := range headers {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body

	auth := smtp.PlainAuth("", s.user, s.password, s.server)
	addr := fmt.Sprintf("%s:%d", s.server, s.port)
	if err := smtp.SendMail(addr, auth, s.senderEmail, []string{toEmail}, []byte(message)); err != nil {
		logger.L.Error("Failed to send email via SMTP", "error", err, "to", toEmail, "subject", subject)
		return fmt.Errorf("smtp send failed: %w", err)
	}
	logger.L.Info("Email sent via SMTP", "to", toEmail, "subject", subject)
	return nil
}

func (s *SMTPEmailService) SendVerificationEmail(toEmail, username, token string) error {
	link := fmt.Sprintf("%s?token=%s", config.Cfg.VerificationEmailBaseURL, token)
	body := fmt.Sprintf("Hi %s,\n\nPlease verify your email address by opening this link:\n%s\n\nIf you did not create an account, ignore this email.", username, link)
	return s.send(toEmail, "Verify your email address", body)
}

func (s *SMTPEmailService) SendPasswordResetEmail(toEmail, username, token string) error {
	link := fmt.Sprintf("%s?token=%s", config.Cfg.PasswordResetBaseURL, token)
	body := fmt.Sprintf("Hi %s,\n\nYou requested a password reset. Open this link to choose a new password:\n%s\n\nThis link expires in %s. If you did not request a reset, ignore this email.",
		username, link, config.Cfg.PasswordResetTokenExpiry.String())
	return s.send(toEmail, "Password reset request", body)
}

func (s *SMTPEmailService) SendNotificationEmail(toEmail, subject, body string) error {
	return s.send(toEmail, subject, body)
}

type MailgunEmailService struct {
	mg          mailgun.Mailgun
	senderEmail string
	senderName  string
}

func (s *MailgunEmailService) send(toEmail, subject, body string) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	message := s.mg.NewMessage(from, subject, body, toEmail)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send email via Mailgun", "error", err, "to", toEmail, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w", err)
	}
	logger.L.Info("Email sent via Mailgun", "to", toEmail, "id", id)
	return nil
}

func (s *MailgunEmailService) SendVerificationEmail(toEmail, username, token string) error {
	link := fmt.Sprintf("%s?token=%s", config.Cfg.VerificationEmailBaseURL, token)
	body := fmt.Sprintf("Hi %s,\n\nPlease verify your email address by opening this link:\n%s\n\nIf you did not create an account, ignore this email.", username, link)
	return s.send(toEmail, "Verify your email address", body)
}

func (s *MailgunEmailService) SendPasswordResetEmail(toEmail, username, token string) error {
	link := fmt.Sprintf("%s?token=%s", config.Cfg.PasswordResetBaseURL, token)
	body := fmt.Sprintf("Hi %s,\n\nYou requested a password reset. Open this link to choose a new password:\n%s\n\nThis link expires in %s. If you did not request a reset, ignore this email.",
		username, link, config.Cfg.PasswordResetTokenExpiry.String())
	return s.send(toEmail, "Password reset request", body)
}

func (s *MailgunEmailService) SendNotificationEmail(toEmail, subject, body string) error {
	return s.send(toEmail, subject, body)
}

// MockEmailService logs instead of sending. Used in development and tests.
type MockEmailService struct{}

func (s *MockEmailService) SendVerificationEmail(toEmail, username, token string) error {
	logger.L.Info("MOCK verification email", "to", toEmail, "username", username, "token", token)
	return nil
}

func (s *MockEmailService) SendPasswordResetEmail(toEmail, username, token string) error {
	logger.L.Info("MOCK password reset email", "to", toEmail, "username", username, "token", token)
	return nil
}

func (s *MockEmailService) SendNotificationEmail(toEmail, subject, body string) error {
	logger.L.Info("MOCK notification email", "to", toEmail, "subject", subject)
	return nil
}
