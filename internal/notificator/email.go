package notificator

import (
	"fmt"
	"net/smtp"
	"strconv"
)

type EmailNotificator struct {
	SMTPHost   string
	SMTPPort   int
	SMTPSender string
	Recipient  string

	SMTPAuth smtp.Auth

	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailNotificator(SMTPHost string, SMTPPort int, SMTPUser string, SMTPPassword string, SMTPSender string, recipient string) *EmailNotificator {
	var auth smtp.Auth
	if SMTPUser != "" {
		auth = smtp.PlainAuth("", SMTPUser, SMTPPassword, SMTPHost)
	}

	return &EmailNotificator{
		SMTPAuth:   auth,
		SMTPHost:   SMTPHost,
		SMTPPort:   SMTPPort,
		SMTPSender: SMTPSender,
		Recipient:  recipient,
		sendMail:   smtp.SendMail,
	}
}

func (e *EmailNotificator) Name() string {
	return "email"
}

func (e *EmailNotificator) Send(message string) error {
	addr := fmt.Sprintf("%s:%s", e.SMTPHost, strconv.Itoa(e.SMTPPort))
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		e.SMTPSender,
		e.Recipient,
		"Prize claimed",
		message,
	)
	if err := e.sendMail(addr, e.SMTPAuth, e.SMTPSender, []string{e.Recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
