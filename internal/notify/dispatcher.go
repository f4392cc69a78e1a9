// internal/notify/dispatcher.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ticket-routing-workers/internal/common/config"
	"ticket-routing-workers/internal/common/database"
	"ticket-routing-workers/internal/common/logger"
	"ticket-routing-workers/internal/common/metrics"
	"ticket-routing-workers/internal/models"

	awsdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
)

const (
	queueKey      = "notify:assignments"
	deadLetterKey = "notify:assignments:dead"
	popTimeout    = 5 * time.Second
)

// Contact is a delivery target for one notification.
type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ContactResolver maps an assignee to the contacts that should be notified.
type ContactResolver interface {
	ContactsForAssignee(ctx context.Context, assigneeID string, assigneeType models.AssigneeType) ([]Contact, error)
}

// EmailSender sends an assignment email.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SMSSender publishes an assignment SMS.
type SMSSender interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Notification is one queued delivery job.
type Notification struct {
	ID           string              `json:"id"`
	TicketID     string              `json:"ticketId"`
	Subject      string              `json:"subject"`
	AssigneeID   string              `json:"assigneeId"`
	AssigneeType models.AssigneeType `json:"assigneeType"`
	Contact      Contact             `json:"contact"`
	Attempts     int                 `json:"attempts"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// Dispatcher delivers assignment notifications through a Redis-backed retry
// queue. Delivery failures are retried up to a bounded attempt count, then
// moved to a dead-letter key. Failures never affect routing decisions.
type Dispatcher struct {
	redis    *database.RedisClient
	resolver ContactResolver
	email    EmailSender
	sms      SMSSender
	cfg      config.NotificationConfig
	logger   logger.Logger
}

func NewDispatcher(
	redis *database.RedisClient,
	resolver ContactResolver,
	email EmailSender,
	sms SMSSender,
	cfg config.NotificationConfig,
	log logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		redis:    redis,
		resolver: resolver,
		email:    email,
		sms:      sms,
		cfg:      cfg,
		logger:   log,
	}
}

// EnqueueAssignment queues one notification per resolved contact.
func (d *Dispatcher) EnqueueAssignment(ctx context.Context, ticket *models.Ticket, decision *models.RoutingDecision) error {
	if !d.cfg.Enabled {
		return nil
	}

	contacts, err := d.resolver.ContactsForAssignee(ctx, decision.AssigneeID, decision.AssigneeType)
	if err != nil {
		return err
	}

	for _, contact := range contacts {
		n := Notification{
			ID:           uuid.NewString(),
			TicketID:     ticket.ID,
			Subject:      ticket.Subject,
			AssigneeID:   decision.AssigneeID,
			AssigneeType: decision.AssigneeType,
			Contact:      contact,
			CreatedAt:    time.Now().UTC(),
		}
		payload, err := json.Marshal(n)
		if err != nil {
			return err
		}
		if err := d.redis.Client.LPush(ctx, queueKey, payload).Err(); err != nil {
			return err
		}
	}

	return nil
}

// Start runs the delivery loop until the context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("notification dispatcher started", map[string]interface{}{
		"queue": queueKey,
	})

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("notification dispatcher stopped", nil)
			return
		default:
		}

		result, err := d.redis.Client.BRPop(ctx, popTimeout, queueKey).Result()
		if err != nil {
			// Timeout or transient error; the loop re-checks cancellation.
			continue
		}
		if len(result) < 2 {
			continue
		}

		var n Notification
		if err := json.Unmarshal([]byte(result[1]), &n); err != nil {
			d.logger.Warn("dropping malformed notification payload", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}

		d.deliver(ctx, &n)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n *Notification) {
	err := d.send(ctx, n)
	if err == nil {
		return
	}

	n.Attempts++
	if n.Attempts >= d.cfg.MaxAttempts {
		d.logger.Error("notification dead-lettered", map[string]interface{}{
			"notificationId": n.ID,
			"ticketId":       n.TicketID,
			"attempts":       n.Attempts,
			"error":          err.Error(),
		})
		if payload, merr := json.Marshal(n); merr == nil {
			_ = d.redis.Client.LPush(ctx, deadLetterKey, payload).Err()
		}
		return
	}

	d.logger.Warn("notification delivery failed, requeueing", map[string]interface{}{
		"notificationId": n.ID,
		"ticketId":       n.TicketID,
		"attempts":       n.Attempts,
		"error":          err.Error(),
	})
	if payload, merr := json.Marshal(n); merr == nil {
		_ = d.redis.Client.LPush(ctx, queueKey, payload).Err()
	}
}

func (d *Dispatcher) send(ctx context.Context, n *Notification) error {
	if d.cfg.Email.Enabled && d.email != nil && n.Contact.Email != "" {
		if err := d.sendEmail(ctx, n); err != nil {
			metrics.NotificationsFailed.WithLabelValues("email").Inc()
			return err
		}
		metrics.NotificationsSent.WithLabelValues("email").Inc()
		return nil
	}

	if d.cfg.SMS.Enabled && d.sms != nil && n.Contact.Phone != "" {
		if err := d.sendSMS(ctx, n); err != nil {
			metrics.NotificationsFailed.WithLabelValues("sms").Inc()
			return err
		}
		metrics.NotificationsSent.WithLabelValues("sms").Inc()
		return nil
	}

	// No usable channel; treat as delivered so it doesn't loop forever.
	d.logger.Debug("no notification channel for contact", map[string]interface{}{
		"notificationId": n.ID,
	})
	return nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, n *Notification) error {
	subject := fmt.Sprintf("Ticket %s assigned", n.TicketID)
	body := fmt.Sprintf("Ticket %q has been assigned to %s %s.", n.Subject, n.AssigneeType, n.AssigneeID)

	_, err := d.email.SendEmail(ctx, &ses.SendEmailInput{
		Source: awsdk.String(d.cfg.Email.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{n.Contact.Email},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awsdk.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awsdk.String(body)},
			},
		},
	})
	return err
}

func (d *Dispatcher) sendSMS(ctx context.Context, n *Notification) error {
	message := fmt.Sprintf("Ticket %s assigned to %s %s", n.TicketID, n.AssigneeType, n.AssigneeID)

	_, err := d.sms.Publish(ctx, &sns.PublishInput{
		Message:     awsdk.String(message),
		PhoneNumber: awsdk.String(n.Contact.Phone),
	})
	return err
}
