// internal/agents/complaint/notifier.go
package complaint

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"tripwise/internal/common/metrics"
	"tripwise/internal/models"
)

// EmailSender matches the SES client wrapper.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SMSPublisher matches the SNS client wrapper.
type SMSPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Notifier forwards filed complaints to the support channel: every complaint
// by email, high-severity ones additionally to the SMS topic.
type Notifier struct {
	config *Config
	email  EmailSender
	sms    SMSPublisher
	logger Logger
}

func NewNotifier(config *Config, email EmailSender, sms SMSPublisher, log Logger) *Notifier {
	return &Notifier{
		config: config,
		email:  email,
		sms:    sms,
		logger: log.With(map[string]interface{}{
			"component": "complaint-notifier",
		}),
	}
}

// NotifyComplaint never returns an error: notification failures must not
// fail the user's turn.
func (n *Notifier) NotifyComplaint(ctx context.Context, record *models.Complaint) {
	if n.config.EmailEnabled && n.email != nil {
		n.sendEmail(ctx, record)
	}
	if n.config.SMSEnabled && n.sms != nil && meetsSeverity(record.Severity, n.config.SeverityThreshold) {
		n.publishSMS(ctx, record)
	}
}

var severityRank = map[string]int{
	models.SeverityLow:    1,
	models.SeverityNormal: 2,
	models.SeverityHigh:   3,
}

// meetsSeverity treats severities as ordered low < normal < high. Unknown
// severities never page; an unknown threshold means only high does.
func meetsSeverity(severity, threshold string) bool {
	rank, ok := severityRank[severity]
	if !ok {
		return false
	}
	min, ok := severityRank[threshold]
	if !ok {
		min = severityRank[models.SeverityHigh]
	}
	return rank >= min
}

func (n *Notifier) sendEmail(ctx context.Context, record *models.Complaint) {
	subject := fmt.Sprintf("[%s] New %s complaint %s", record.Severity, record.Category, record.CaseNumber)
	body := fmt.Sprintf("Case: %s\nCategory: %s\nSeverity: %s\nSession: %s\n\n%s",
		record.CaseNumber, record.Category, record.Severity, record.SessionID, record.Summary)

	_, err := n.email.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.config.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{n.config.ToEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		metrics.NotificationsSent.WithLabelValues("email", "error").Inc()
		n.logger.Error("support email failed", map[string]interface{}{
			"caseNumber": record.CaseNumber,
			"error":      err.Error(),
		})
		return
	}
	metrics.NotificationsSent.WithLabelValues("email", "success").Inc()
}

func (n *Notifier) publishSMS(ctx context.Context, record *models.Complaint) {
	message := fmt.Sprintf("High severity complaint %s (%s): %s",
		record.CaseNumber, record.Category, record.Summary)

	_, err := n.sms.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.config.TopicARN),
		Message:  aws.String(message),
	})
	if err != nil {
		metrics.NotificationsSent.WithLabelValues("sms", "error").Inc()
		n.logger.Error("support SMS failed", map[string]interface{}{
			"caseNumber": record.CaseNumber,
			"error":      err.Error(),
		})
		return
	}
	metrics.NotificationsSent.WithLabelValues("sms", "success").Inc()
}
