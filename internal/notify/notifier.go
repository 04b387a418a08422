// Package notify sends deadline alerts for urgent matches over email (SES)
// and SMS (SNS).
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	awsx "scholarship-matcher/internal/common/aws"
	"scholarship-matcher/internal/common/errors"
	"scholarship-matcher/internal/common/logger"
	"scholarship-matcher/internal/common/metrics"
	"scholarship-matcher/internal/models"

	"github.com/google/uuid"
)

const (
	StatusSent     = "sent"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"

	ChannelEmail = "email"
	ChannelSMS   = "sms"

	maxSMSItems = 3
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SenderID     string
	Timeout      time.Duration
}

// Result describes one NotifyDeadlines call.
type Result struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"`
	Channels       []string `json:"channels,omitempty"`
	Alerts         int      `json:"alerts"`
	SentAt         string   `json:"sentAt,omitempty"`
}

type Notifier struct {
	config    Config
	sesClient awsx.SESService
	snsClient awsx.SNSService
	logger    logger.Logger
	now       func() time.Time
}

// NewNotifier accepts nil clients for channels that are switched off.
func NewNotifier(config Config, sesClient awsx.SESService, snsClient awsx.SNSService, log logger.Logger) *Notifier {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Notifier{
		config:    config,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
		now:       time.Now,
	}
}

// Enabled reports whether at least one channel can send.
func (n *Notifier) Enabled() bool {
	return (n.config.EmailEnabled && n.sesClient != nil) || (n.config.SMSEnabled && n.snsClient != nil)
}

// UrgentMatches picks the high-urgency matches whose deadline has not
// passed yet, in the order given.
func UrgentMatches(matches []models.MatchResult) []models.MatchResult {
	urgent := make([]models.MatchResult, 0, len(matches))
	for _, m := range matches {
		if m.Urgency == models.UrgencyHigh && m.DaysUntilDeadline >= 0 {
			urgent = append(urgent, m)
		}
	}
	return urgent
}

// NotifyDeadlines alerts the applicant about urgent matches. It is a no-op
// when nothing is urgent or the profile carries no contact details.
func (n *Notifier) NotifyDeadlines(ctx context.Context, profile *models.ApplicantProfile, matches []models.MatchResult) (*Result, error) {
	result := &Result{
		NotificationID: uuid.New().String(),
		Status:         StatusSkipped,
	}
	if !n.Enabled() {
		result.Status = StatusDisabled
		return result, nil
	}

	urgent := UrgentMatches(matches)
	result.Alerts = len(urgent)
	if len(urgent) == 0 || profile == nil || profile.Contact == nil {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, n.config.Timeout)
	defer cancel()

	contact := profile.Contact
	var sendErr error

	if n.config.EmailEnabled && n.sesClient != nil && contact.Email != "" {
		subject, text, html := renderEmail(urgent)
		_, err := n.sesClient.SendEmail(ctx, awsx.EmailInput(n.config.FromEmail, contact.Email, subject, text, html))
		if err != nil {
			sendErr = n.failed(ChannelEmail, result.NotificationID, err)
		} else {
			metrics.NotificationsSent.WithLabelValues(ChannelEmail, StatusSent).Inc()
			result.Channels = append(result.Channels, ChannelEmail)
		}
	}

	if sendErr == nil && n.config.SMSEnabled && n.snsClient != nil && contact.Phone != "" {
		_, err := n.snsClient.Publish(ctx, awsx.SMSInput(contact.Phone, renderSMS(urgent), n.config.SenderID))
		if err != nil {
			sendErr = n.failed(ChannelSMS, result.NotificationID, err)
		} else {
			metrics.NotificationsSent.WithLabelValues(ChannelSMS, StatusSent).Inc()
			result.Channels = append(result.Channels, ChannelSMS)
		}
	}

	if sendErr != nil {
		result.Status = StatusFailed
		return result, sendErr
	}
	if len(result.Channels) > 0 {
		result.Status = StatusSent
		result.SentAt = n.now().UTC().Format(time.RFC3339)
		n.logger.Info("deadline alert sent", map[string]interface{}{
			"notificationId": result.NotificationID,
			"channels":       result.Channels,
			"alerts":         result.Alerts,
		})
	}
	return result, nil
}

func (n *Notifier) failed(channel, notificationID string, err error) error {
	metrics.NotificationsSent.WithLabelValues(channel, StatusFailed).Inc()
	n.logger.Error("deadline alert failed", map[string]interface{}{
		"notificationId": notificationID,
		"channel":        channel,
		"error":          err,
	})
	return errors.NewNotificationSendFailedError(channel, err)
}

func renderEmail(urgent []models.MatchResult) (subject, text, html string) {
	if len(urgent) == 1 {
		subject = "1 scholarship deadline is coming up"
	} else {
		subject = fmt.Sprintf("%d scholarship deadlines are coming up", len(urgent))
	}

	var tb, hb strings.Builder
	tb.WriteString("These scholarships matched your profile and close soon:\n\n")
	hb.WriteString("<p>These scholarships matched your profile and close soon:</p><ul>")
	for _, m := range urgent {
		s := m.Scholarship
		fmt.Fprintf(&tb, "- %s (%s): due %s, %s. Match score %d.\n",
			s.Name, s.Provider, s.ApplicationDeadline, daysLeft(m.DaysUntilDeadline), m.MatchScore)
		if s.ApplicationLink != "" {
			fmt.Fprintf(&tb, "  Apply: %s\n", s.ApplicationLink)
		}
		fmt.Fprintf(&hb, "<li><a href=%q>%s</a> (%s): due %s, %s</li>",
			s.ApplicationLink, htmlEscape(s.Name), htmlEscape(s.Provider), s.ApplicationDeadline, daysLeft(m.DaysUntilDeadline))
	}
	hb.WriteString("</ul>")
	return subject, tb.String(), hb.String()
}

func renderSMS(urgent []models.MatchResult) string {
	parts := make([]string, 0, maxSMSItems)
	for i, m := range urgent {
		if i == maxSMSItems {
			break
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", m.Scholarship.Name, daysLeft(m.DaysUntilDeadline)))
	}
	msg := "Scholarship deadlines soon: " + strings.Join(parts, "; ")
	if extra := len(urgent) - maxSMSItems; extra > 0 {
		msg += fmt.Sprintf(" and %d more", extra)
	}
	return msg
}

func daysLeft(days int) string {
	switch days {
	case 0:
		return "due today"
	case 1:
		return "1 day left"
	}
	return fmt.Sprintf("%d days left", days)
}

var htmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#39;")

func htmlEscape(s string) string {
	return htmlReplacer.Replace(s)
}
