package email

import (
	"fmt"
	"net/smtp"
	"os"
)

type SMTPMailer struct {
	from     string
	password string
	host     string
	port     string
}

func NewSMTPMailer() *SMTPMailer {
	return &SMTPMailer{
		from:     os.Getenv("SMTP_FROM"),
		password: os.Getenv("SMTP_PASSWORD"),
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
	}
}

func (m *SMTPMailer) PaymentFailed(to string, data PaymentFailedData) error {
	subject := "Payment failed — action needed"
	body := fmt.Sprintf(
		"Hi %s,\n\nWe couldn't process the payment for your %q package.\n"+
			"Your access stays active for another %d days while we retry.\n\n"+
			"Please update your payment method here:\n%s\n",
		data.UserName, data.PackageName, data.GracePeriodDays, data.UpdatePaymentURL)
	return m.send(to, subject, body)
}

func (m *SMTPMailer) GracePeriodEnding(to string, data GracePeriodEndingData) error {
	subject := "Your grace period is ending"
	body := fmt.Sprintf(
		"Hi %s,\n\nThe payment for your %q package is still failing.\n"+
			"You have %d day(s) left before access is suspended.\n\n"+
			"Update your payment method here:\n%s\n",
		data.UserName, data.PackageName, data.DaysRemaining, data.UpdatePaymentURL)
	return m.send(to, subject, body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	auth := smtp.PlainAuth("", m.from, m.password, m.host)

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n")

	err := smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, message)
	if err != nil {
		fmt.Println("❌ SMTP error:", err)
	}
	return err
}
