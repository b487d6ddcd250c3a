package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"experience_booking/internal/pkg/config"
)

// BookingDetails 预订确认邮件内容
type BookingDetails struct {
	ExperienceName string
	Date           time.Time
	Participants   int
	TotalAmount    string // 已格式化的两位小数金额，仅用于展示
	BookingID      string
}

var verificationTmpl = template.Must(template.New("verification").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Verify Your Email</h2>
  <p>Thanks for signing up! Click the button below to verify your email address.</p>
  <a href="{{.URL}}" style="display: inline-block; padding: 12px 24px; background-color: #007bff; color: white; text-decoration: none; border-radius: 4px; margin: 20px 0;">Verify Email</a>
  <p style="color: #666; font-size: 14px;">If the button doesn't work, copy and paste this link into your browser:</p>
  <p style="color: #666; font-size: 14px; word-break: break-all;">{{.URL}}</p>
  <p style="color: #666; font-size: 12px; margin-top: 30px;">This link will expire in 24 hours.</p>
</div>`))

var bookingTmpl = template.Must(template.New("booking").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Booking Confirmed!</h2>
  <p>Your booking has been confirmed. Here are the details:</p>
  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <p style="margin: 5px 0;"><strong>Booking ID:</strong> {{.BookingID}}</p>
    <p style="margin: 5px 0;"><strong>Experience:</strong> {{.ExperienceName}}</p>
    <p style="margin: 5px 0;"><strong>Date:</strong> {{.DateDisplay}}</p>
    <p style="margin: 5px 0;"><strong>Participants:</strong> {{.Participants}}</p>
    <p style="margin: 5px 0;"><strong>Total Amount:</strong> &#8377;{{.TotalAmount}}</p>
  </div>
  <p style="color: #666;">We're excited to have you! Check your dashboard for more details.</p>
</div>`))

// BuildVerificationEmail 构建注册验证邮件
func BuildVerificationEmail(token string) (subject, htmlBody, textBody string) {
	url := fmt.Sprintf("%s/verify-email?token=%s", config.GlobalConfig.App.FrontendURL, token)

	var buf bytes.Buffer
	_ = verificationTmpl.Execute(&buf, map[string]string{"URL": url})

	subject = "Verify Your Email - Highway Delite"
	textBody = "Verify your email by clicking this link: " + url
	return subject, buf.String(), textBody
}

// BuildBookingConfirmation 构建预订确认邮件
func BuildBookingConfirmation(d BookingDetails) (subject, htmlBody, textBody string) {
	var buf bytes.Buffer
	_ = bookingTmpl.Execute(&buf, struct {
		BookingDetails
		DateDisplay string
	}{d, d.Date.Format("02/01/2006")})

	subject = "Booking Confirmation - Highway Delite"
	textBody = fmt.Sprintf("Your booking for %s has been confirmed. Booking ID: %s", d.ExperienceName, d.BookingID)
	return subject, buf.String(), textBody
}
