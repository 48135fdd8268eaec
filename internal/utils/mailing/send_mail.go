package mailing

import (
	"fmt"
	"strconv"

	"Cooki-Backend/internal/utils"

	"gopkg.in/gomail.v2"
)

type MailConfig struct {
	AppURL       string
	SMTPHost     string
	SMTPPort     string
	SMTPSender   string
	SMTPEmail    string
	SMTPPassword string
}

// Mailer sends transactional mail. Services depend on the interface so tests
// can run without an SMTP server.
type Mailer interface {
	SendMail(toEmail string, subject string, body string) error
}

type smtpMailer struct{}

func NewMailer() Mailer {
	return smtpMailer{}
}

func (smtpMailer) SendMail(toEmail string, subject string, body string) error {
	return SendMail(toEmail, subject, body)
}

func LoadMailConfig() MailConfig {
	return MailConfig{
		AppURL:       utils.GetConfig("APP_URL"),
		SMTPHost:     utils.GetConfig("SMTP_HOST"),
		SMTPPort:     utils.GetConfig("SMTP_PORT"),
		SMTPSender:   utils.GetConfig("SMTP_SENDER_NAME"),
		SMTPEmail:    utils.GetConfig("SMTP_AUTH_EMAIL"),
		SMTPPassword: utils.GetConfig("SMTP_AUTH_PASSWORD"),
	}
}

func SendMail(toEmail string, subject string, body string) error {
	emailConfig := LoadMailConfig()

	mailer := gomail.NewMessage()
	mailer.SetAddressHeader("From", emailConfig.SMTPEmail, emailConfig.SMTPSender)
	mailer.SetHeader("To", toEmail)
	mailer.SetHeader("Subject", subject)
	mailer.SetBody("text/html", body)
	port, err := strconv.Atoi(emailConfig.SMTPPort)
	if err != nil {
		return err
	}
	dialer := gomail.NewDialer(
		emailConfig.SMTPHost,
		port,
		emailConfig.SMTPEmail,
		emailConfig.SMTPPassword,
	)

	return dialer.DialAndSend(mailer)
}

// JoinDecisionMail renders the mail sent to a requester once a pantry member
// answers their join request.
func JoinDecisionMail(requesterName, pantryName string, approved bool) (subject string, body string) {
	appURL := LoadMailConfig().AppURL
	if approved {
		subject = fmt.Sprintf("You joined %s", pantryName)
		body = fmt.Sprintf(
			"<p>Hi %s,</p><p>Your request to join <b>%s</b> was approved. Open <a href=\"%s\">Cooki</a> to see the shared pantry.</p>",
			requesterName, pantryName, appURL,
		)
		return subject, body
	}

	subject = fmt.Sprintf("Your request to join %s", pantryName)
	body = fmt.Sprintf(
		"<p>Hi %s,</p><p>Your request to join <b>%s</b> was declined.</p>",
		requesterName, pantryName,
	)
	return subject, body
}
