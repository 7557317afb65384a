package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/learnsphere/learnsphere-api/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendEmail delivers an HTML email through SendGrid, falling back to plain
// SMTP when no API key is configured (local development).
func SendEmail(to []string, subject string, htmlBody string) error {
	if config.AppConfig.SendgridAPIKey != "" {
		return sendViaSendgrid(to, subject, htmlBody)
	}
	return sendViaSMTP(to, subject, htmlBody)
}

func sendViaSendgrid(to []string, subject string, htmlBody string) error {
	client := sendgrid.NewSendClient(config.AppConfig.SendgridAPIKey)
	from := mail.NewEmail(config.AppConfig.AppName, config.AppConfig.EmailSender)

	for _, addr := range to {
		message := mail.NewSingleEmail(from, subject, mail.NewEmail("", addr), "", htmlBody)
		resp, err := client.Send(message)
		if err != nil {
			log.Printf("Error sending email to %s: %v", addr, err)
			return err
		}
		if resp.StatusCode >= 400 {
			log.Printf("SendGrid rejected email to %s: %d %s", addr, resp.StatusCode, resp.Body)
			return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
		}
	}
	return nil
}

func sendViaSMTP(to []string, subject string, htmlBody string) error {
	smtpHost := "smtp.gmail.com"
	smtpPort := "587"

	from := config.AppConfig.EmailSender
	password := config.AppConfig.SMTPPassword

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: %s <%s>\r\n", config.AppConfig.AppName, from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg))
	if err != nil {
		log.Printf("Error sending email: %v", err)
		return err
	}
	return nil
}

// HTML wrapper shared by every outgoing email
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1A237E; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1A237E; line-height: 1.6; }
			.content h2 { color: #1A237E; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #FFD54F; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>LEARNSPHERE</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 LearnSphere. All rights reserved.<br>
				Keep learning, one lesson at a time.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// --- Triggers ---

// 1. Welcome / Signup
func SendWelcomeEmail(email, name string) {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Welcome to LearnSphere! Your account is ready.</p>
		<div class="info-box">Browse the catalog, enroll in a course and start earning points and badges.</div>
	`, name)

	if err := SendEmail([]string{email}, "Welcome to LearnSphere", getEmailTemplate("Welcome aboard!", body)); err != nil {
		log.Printf("Failed to send welcome email to %s: %v", email, err)
	}
}

// 2. Certificate issued on course completion
func SendCertificateEmail(email, name, courseTitle, certificateNumber string) {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Congratulations! You have completed <b>%s</b>.</p>
		<div class="info-box">Your certificate number is <b>%s</b>. You can download it from your achievements page.</div>
	`, name, courseTitle, certificateNumber)

	if err := SendEmail([]string{email}, "Your LearnSphere certificate", getEmailTemplate("Course completed!", body)); err != nil {
		log.Printf("Failed to send certificate email to %s: %v", email, err)
	}
}

// 3. Streak about to lapse
func SendStreakReminderEmail(email, name string, streak int) {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your %d-day learning streak ends tonight. Complete any lesson today to keep it alive!</p>
	`, name, streak)

	if err := SendEmail([]string{email}, "Don't lose your streak!", getEmailTemplate("Your streak is at risk", body)); err != nil {
		log.Printf("Failed to send streak reminder to %s: %v", email, err)
	}
}
