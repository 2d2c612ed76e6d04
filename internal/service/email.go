package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"storekeeper-backend/internal/config"
	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/logger"
)

type emailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	enabled   bool
}

func NewEmailService(cfg config.EmailConfig) EmailService {
	return &emailService{
		client:    sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		enabled:   cfg.Enabled,
	}
}

func (s *emailService) send(ctx context.Context, toEmail, toName, subject, plainText, htmlContent string) error {
	if !s.enabled {
		logger.InfoContext(ctx, "email sending disabled, skipping", "to", toEmail, "subject", subject)
		return nil
	}
	if toEmail == "" {
		logger.WarnContext(ctx, "customer has no email address, skipping", "subject", subject)
		return nil
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

func (s *emailService) SendReturnReminder(ctx context.Context, customer *domain.Customer, rental *domain.Rental) error {
	due := rental.ExpectedReturnDate
	if rental.NextReturnDate.Valid {
		due = rental.NextReturnDate.Date
	}
	subject := fmt.Sprintf("Return reminder for rental %s", rental.RentalNumber)
	plainText := fmt.Sprintf("Hi %s, your rental %s is due for return on %s.",
		customer.Name, rental.RentalNumber, due)
	htmlContent := fmt.Sprintf(`
		<html><body>
			<h2>Return Reminder</h2>
			<p>Hi %s,</p>
			<p>Your rental <strong>%s</strong> is due for return on <strong>%s</strong>.</p>
			<p>Please bring the items back on time to avoid late fees.</p>
		</body></html>`,
		customer.Name, rental.RentalNumber, due)
	return s.send(ctx, customer.Email, customer.Name, subject, plainText, htmlContent)
}

func (s *emailService) SendOverdueNotice(ctx context.Context, customer *domain.Customer, rental *domain.Rental, daysLate int) error {
	subject := fmt.Sprintf("Overdue notice for rental %s", rental.RentalNumber)
	plainText := fmt.Sprintf("Hi %s, your rental %s is %d day(s) overdue. Late fees may apply.",
		customer.Name, rental.RentalNumber, daysLate)
	htmlContent := fmt.Sprintf(`
		<html><body>
			<h2>Overdue Notice</h2>
			<p>Hi %s,</p>
			<p>Your rental <strong>%s</strong> is <strong>%d day(s)</strong> overdue.</p>
			<p>Late fees may apply. Please return the items as soon as possible.</p>
		</body></html>`,
		customer.Name, rental.RentalNumber, daysLate)
	return s.send(ctx, customer.Email, customer.Name, subject, plainText, htmlContent)
}

func (s *emailService) SendSettlementReceipt(ctx context.Context, customer *domain.Customer, rental *domain.Rental) error {
	settled := "Amount due"
	amount := rental.AmountDue
	if amount.IsNegative() {
		settled = "Refund due"
		amount = amount.Neg()
	}
	subject := fmt.Sprintf("Settlement receipt for rental %s", rental.RentalNumber)
	plainText := fmt.Sprintf("Hi %s, rental %s has been settled. Charges: %s, late fee: %s, damage charges: %s. %s: %s.",
		customer.Name, rental.RentalNumber, rental.TotalCharges.StringFixed(2),
		rental.LateFee.StringFixed(2), rental.DamageCharges.StringFixed(2), settled, amount.StringFixed(2))
	htmlContent := fmt.Sprintf(`
		<html><body>
			<h2>Settlement Receipt</h2>
			<p>Hi %s,</p>
			<p>Your rental <strong>%s</strong> has been settled.</p>
			<ul>
				<li>Rental charges: %s</li>
				<li>Late fee: %s</li>
				<li>Damage charges: %s</li>
			</ul>
			<p><strong>%s: %s</strong></p>
		</body></html>`,
		customer.Name, rental.RentalNumber, rental.TotalCharges.StringFixed(2),
		rental.LateFee.StringFixed(2), rental.DamageCharges.StringFixed(2), settled, amount.StringFixed(2))
	return s.send(ctx, customer.Email, customer.Name, subject, plainText, htmlContent)
}
