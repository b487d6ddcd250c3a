package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"experience_booking/internal/pkg/config"
)

// Mailer 邮件发送接口
type Mailer interface {
	Send(to, subject, htmlBody, textBody string) error
}

// SMTPMailer 基于 net/smtp 的实现
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string // 发件人显示名
}

// NewSMTPMailer 创建 SMTP 邮件客户端
func NewSMTPMailer() *SMTPMailer {
	cfg := config.GlobalConfig.SMTP
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}
}

// Send 发送一封 multipart/alternative 邮件（纯文本 + HTML）
func (m *SMTPMailer) Send(to, subject, htmlBody, textBody string) error {
	boundary := "==experience-booking-boundary=="

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %q <%s>\r\n", m.from, m.username))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary))

	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(textBody)
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(htmlBody)
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	return smtp.SendMail(m.host+":"+m.port, auth, m.username, []string{to}, []byte(msg.String()))
}
