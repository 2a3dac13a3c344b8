package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/smtp"

	"craftory-backend/config"

	"go.uber.org/zap"
)

// EmailSender delivers transactional mail. Fire-and-forget: nothing in the
// payment core depends on delivery.
type EmailSender interface {
	SendOTP(to, code string) error
	SendBookingConfirmation(to, name, activity, date, slot string) error
}

// GenerateRandomCode returns a numeric verification code of the given length.
func GenerateRandomCode(length int) string {
	code := ""
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			code += "0"
			continue
		}
		code += n.String()
	}
	return code
}

type smtpSender struct {
	cfg    *config.Config
	logger *zap.Logger
}

func NewSMTPSender(cfg *config.Config, logger *zap.Logger) EmailSender {
	return &smtpSender{cfg: cfg, logger: logger}
}

func (s *smtpSender) SendOTP(to, code string) error {
	subject := "Email Verification - Craftory"
	body := fmt.Sprintf("Your Craftory verification code is %s. It expires in 10 minutes.", code)
	return s.send(to, subject, body)
}

func (s *smtpSender) SendBookingConfirmation(to, name, activity, date, slot string) error {
	subject := "Booking Confirmed - Craftory"
	body := fmt.Sprintf("Hi %s,\r\n\r\nYour %s session on %s (%s) is confirmed. See you at the studio!",
		name, activity, date, slot)
	return s.send(to, subject, body)
}

func (s *smtpSender) send(to, subject, body string) error {
	if s.cfg.SMTPEmail == "" || s.cfg.SMTPPassword == "" {
		s.logger.Warn("SMTP not configured, dropping email", zap.String("to", to))
		return nil
	}

	from := fmt.Sprintf("%s <%s>", s.cfg.SMTPSenderName, s.cfg.SMTPEmail)
	message := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body)

	auth := smtp.PlainAuth("", s.cfg.SMTPEmail, s.cfg.SMTPPassword, s.cfg.SMTPServer)
	err := smtp.SendMail(
		s.cfg.SMTPServer+":"+s.cfg.SMTPPort,
		auth,
		s.cfg.SMTPEmail,
		[]string{to},
		[]byte(message),
	)
	if err != nil {
		s.logger.Error("Failed to send email", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
