// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nppdirect/pricing-backend/internal/config"
	"github.com/nppdirect/pricing-backend/internal/models"
)

// NotificationService writes in-app notification rows and sends emails.
// Delivery is best-effort: callers fire these from goroutines and a failed
// email never fails the proposal operation that triggered it.
type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

// SendProposalRequestedNotification tells every active user assigned to the
// proposal's manufacturer that pricing has been requested from them.
func (s *NotificationService) SendProposalRequestedNotification(proposal *models.Proposal) error {
	if proposal.ManufacturerID == nil {
		return nil
	}

	recipients, err := s.manufacturerUsers(*proposal.ManufacturerID)
	if err != nil {
		return err
	}

	for _, user := range recipients {
		notification := &models.Notification{
			UserID:              &user.ID,
			Type:                "proposal_requested",
			Title:               "Pricing Requested",
			Message:             fmt.Sprintf("A pricing proposal '%s' has been requested from your organization", proposal.Title),
			RelatedResourceType: "proposal",
			RelatedResourceID:   &proposal.ID,
		}
		if err := s.db.Create(notification).Error; err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}

		data := map[string]interface{}{
			"Username":      user.Username,
			"ProposalTitle": proposal.Title,
			"ProposalURL":   fmt.Sprintf("%s/proposals/%s", s.config.Frontend.BaseURL, proposal.ID),
		}
		tmpl := s.getEmailTemplate("proposal_requested")
		body, err := s.renderTemplate(tmpl.Body, data)
		if err != nil {
			return fmt.Errorf("failed to render email template: %w", err)
		}
		if err := s.sendEmail(user.Email, tmpl.Subject, body); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to send proposal email")
		}
	}

	return nil
}

// SendProposalSubmittedNotification tells admin-class users a proposal is
// waiting for review.
func (s *NotificationService) SendProposalSubmittedNotification(proposal *models.Proposal) error {
	var admins []models.User
	if err := s.db.Where("user_type IN ? AND status = ?",
		[]models.UserType{models.UserTypeAdmin, models.UserTypeNPP},
		models.UserStatusActive).Find(&admins).Error; err != nil {
		return fmt.Errorf("failed to load admin users: %w", err)
	}

	for _, user := range admins {
		notification := &models.Notification{
			UserID:              &user.ID,
			Type:                "proposal_submitted",
			Title:               "Proposal Submitted",
			Message:             fmt.Sprintf("Proposal '%s' was submitted for review", proposal.Title),
			RelatedResourceType: "proposal",
			RelatedResourceID:   &proposal.ID,
		}
		if err := s.db.Create(notification).Error; err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}

		data := map[string]interface{}{
			"Username":      user.Username,
			"ProposalTitle": proposal.Title,
			"ProposalURL":   fmt.Sprintf("%s/proposals/%s", s.config.Frontend.BaseURL, proposal.ID),
		}
		tmpl := s.getEmailTemplate("proposal_submitted")
		body, err := s.renderTemplate(tmpl.Body, data)
		if err != nil {
			return fmt.Errorf("failed to render email template: %w", err)
		}
		if err := s.sendEmail(user.Email, tmpl.Subject, body); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to send proposal email")
		}
	}

	return nil
}

// SendProposalDecisionNotification tells the manufacturer's users the outcome
// of review. Accepted proposals include the awarded contract.
func (s *NotificationService) SendProposalDecisionNotification(proposal *models.Proposal, contract *models.Contract) error {
	if proposal.ManufacturerID == nil {
		return nil
	}

	recipients, err := s.manufacturerUsers(*proposal.ManufacturerID)
	if err != nil {
		return err
	}

	notifType := "proposal_rejected"
	title := "Proposal Rejected"
	message := fmt.Sprintf("Proposal '%s' was rejected", proposal.Title)
	templateName := "proposal_rejected"
	if contract != nil {
		notifType = "proposal_accepted"
		title = "Proposal Accepted"
		message = fmt.Sprintf("Proposal '%s' was accepted and awarded as contract '%s'", proposal.Title, contract.Name)
		templateName = "proposal_accepted"
	}

	for _, user := range recipients {
		notification := &models.Notification{
			UserID:              &user.ID,
			Type:                notifType,
			Title:               title,
			Message:             message,
			RelatedResourceType: "proposal",
			RelatedResourceID:   &proposal.ID,
		}
		if err := s.db.Create(notification).Error; err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}

		data := map[string]interface{}{
			"Username":      user.Username,
			"ProposalTitle": proposal.Title,
			"ProposalURL":   fmt.Sprintf("%s/proposals/%s", s.config.Frontend.BaseURL, proposal.ID),
		}
		if contract != nil {
			data["ContractName"] = contract.Name
			data["ContractURL"] = fmt.Sprintf("%s/contracts/%s", s.config.Frontend.BaseURL, contract.ID)
		}
		tmpl := s.getEmailTemplate(templateName)
		body, err := s.renderTemplate(tmpl.Body, data)
		if err != nil {
			return fmt.Errorf("failed to render email template: %w", err)
		}
		if err := s.sendEmail(user.Email, tmpl.Subject, body); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to send proposal email")
		}
	}

	return nil
}

// SendRenewalCreatedNotification announces the renewal proposals produced by
// a bulk run to the manufacturer's users.
func (s *NotificationService) SendRenewalCreatedNotification(proposal *models.Proposal, sourceContractName string) error {
	if proposal.ManufacturerID == nil {
		return nil
	}

	recipients, err := s.manufacturerUsers(*proposal.ManufacturerID)
	if err != nil {
		return err
	}

	for _, user := range recipients {
		notification := &models.Notification{
			UserID:              &user.ID,
			Type:                "renewal_created",
			Title:               "Renewal Proposal Created",
			Message:             fmt.Sprintf("A renewal proposal was created for contract '%s'", sourceContractName),
			RelatedResourceType: "proposal",
			RelatedResourceID:   &proposal.ID,
		}
		if err := s.db.Create(notification).Error; err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
	}

	return nil
}

func (s *NotificationService) manufacturerUsers(manufacturerID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := s.db.
		Joins("JOIN user_manufacturers ON user_manufacturers.user_id = users.id").
		Where("user_manufacturers.manufacturer_id = ? AND users.status = ?", manufacturerID, models.UserStatusActive).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load manufacturer users: %w", err)
	}
	return users, nil
}

// Helper methods
func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithField("to", to).Debugf("Email suppressed (SMTP not configured): %s", subject)
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"proposal_requested": {
			Subject: "Pricing Requested",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Pricing Requested</h2>
	<p>Hello {{.Username}},</p>
	<p>A pricing proposal "{{.ProposalTitle}}" has been requested from your organization.</p>
	<a href="{{.ProposalURL}}">Open Proposal</a>
	<p>Best regards,<br>NPP Direct Team</p>
</body>
</html>`,
		},
		"proposal_submitted": {
			Subject: "Proposal Submitted for Review",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Proposal Submitted</h2>
	<p>Hello {{.Username}},</p>
	<p>Proposal "{{.ProposalTitle}}" was submitted and is waiting for review.</p>
	<a href="{{.ProposalURL}}">Review Proposal</a>
	<p>Best regards,<br>NPP Direct Team</p>
</body>
</html>`,
		},
		"proposal_accepted": {
			Subject: "Proposal Accepted",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Proposal Accepted</h2>
	<p>Hello {{.Username}},</p>
	<p>Proposal "{{.ProposalTitle}}" was accepted and awarded as contract "{{.ContractName}}".</p>
	<a href="{{.ContractURL}}">View Contract</a>
	<p>Best regards,<br>NPP Direct Team</p>
</body>
</html>`,
		},
		"proposal_rejected": {
			Subject: "Proposal Rejected",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Proposal Rejected</h2>
	<p>Hello {{.Username}},</p>
	<p>Proposal "{{.ProposalTitle}}" was rejected. See the proposal notes for details.</p>
	<a href="{{.ProposalURL}}">Open Proposal</a>
	<p>Best regards,<br>NPP Direct Team</p>
</body>
</html>`,
		},
	}

	if tmpl, ok := templates[templateType]; ok {
		return tmpl
	}
	return EmailTemplate{Subject: "Notification", Body: "<html><body><p>{{.ProposalTitle}}</p></body></html>"}
}
