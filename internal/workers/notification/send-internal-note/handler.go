// internal/workers/notification/send-internal-note/handler.go
package sendinternalnote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hrflow-workers/internal/common/logger"
	"hrflow-workers/internal/common/metrics"
	"hrflow-workers/internal/common/validation"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "send-internal-note"
)

var (
	ErrInvalidInput         = errors.New("INVALID_INPUT")
	ErrNoRecipientsResolved = errors.New("NO_RECIPIENTS_RESOLVED")
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// recipient is the cached shape of a notification target.
type recipient struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Handler struct {
	config    *Config
	db        *sql.DB
	redis     *redis.Client
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

func NewHandler(config *Config, db *sql.DB, rdb *redis.Client, log logger.Logger) (*Handler, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(config.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Handler{
		config:    config,
		db:        db,
		redis:     rdb,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient: ses.NewFromConfig(awsCfg),
		snsClient: sns.NewFromConfig(awsCfg),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "UNKNOWN_ERROR"
		retries := int32(0)
		if errors.Is(err, ErrInvalidInput) {
			errorCode = "INVALID_INPUT"
		} else if errors.Is(err, ErrNoRecipientsResolved) {
			errorCode = "NO_RECIPIENTS_RESOLVED"
		} else if errors.Is(err, ErrDatabaseInsertFailed) {
			errorCode = "DATABASE_INSERT_FAILED"
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Subject == "" || input.Body == "" {
		return nil, fmt.Errorf("%w: subject and body are required", ErrInvalidInput)
	}
	urgency := input.Urgency
	if urgency == "" {
		urgency = UrgencyMedium
	}
	switch urgency {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
	default:
		return nil, fmt.Errorf("%w: unknown urgency %q", ErrInvalidInput, input.Urgency)
	}

	recipients, err := h.resolveRecipients(ctx)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: no active user holds any of %s",
			ErrNoRecipientsResolved, strings.Join(h.config.RecipientRoles, ", "))
	}

	noteID := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO internal_notes (id, application_id, author_id, subject, body, urgency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		noteID, input.ApplicationID, input.AuthorID, input.Subject, input.Body, urgency, createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: note insert failed: %v", ErrDatabaseInsertFailed, err)
	}

	sent := 0
	failed := 0
	for _, r := range recipients {
		status, channel := h.deliver(ctx, input, urgency, r)
		switch status {
		case StatusSent:
			sent++
		case StatusFailed:
			failed++
		}

		_, err = h.db.ExecContext(ctx, `
			INSERT INTO notifications (id, note_id, recipient_id, channel, status, sent_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New().String(), noteID, r.ID, channel, status, createdAt, createdAt)
		if err != nil {
			h.logger.Warn("notification insert failed", map[string]interface{}{
				"error":       err,
				"noteId":      noteID,
				"recipientId": r.ID,
			})
		}
		metrics.NotificationsSent.WithLabelValues(channel, status).Inc()
	}

	h.logger.Info("internal note fanned out", map[string]interface{}{
		"noteId":     noteID,
		"recipients": len(recipients),
		"sent":       sent,
		"failed":     failed,
		"urgency":    urgency,
	})

	return &Output{
		NoteID:         noteID,
		RecipientCount: len(recipients),
		SentCount:      sent,
		FailedCount:    failed,
		CreatedAt:      createdAt,
	}, nil
}

// deliver pushes one note to one recipient and reports the outcome plus the
// channel(s) it went out on. Delivery problems never fail the job: the note
// row is already persisted and visible in the back office.
func (h *Handler) deliver(ctx context.Context, input *Input, urgency string, r recipient) (string, string) {
	var channels []string

	if h.config.EmailEnabled && validation.ValidateEmail(r.Email) {
		if err := h.sendEmail(ctx, r.Email, input.Subject, input.Body); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error": err,
				"email": r.Email,
			})
			return StatusFailed, ChannelEmail
		}
		channels = append(channels, ChannelEmail)
	}

	// SMS is reserved for high urgency notes
	if h.config.SMSEnabled && urgency == UrgencyHigh && validation.ValidatePhone(r.Phone) {
		if err := h.sendSMS(ctx, r.Phone, input.Subject+": "+input.Body); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error": err,
				"phone": r.Phone,
			})
			return StatusFailed, ChannelSMS
		}
		channels = append(channels, ChannelSMS)
	}

	if len(channels) == 0 {
		return StatusPending, ChannelNone
	}
	return StatusSent, strings.Join(channels, ",")
}

// resolveRecipients loads active users holding any configured recipient
// role, with a short Redis cache in front since the role set changes rarely.
func (h *Handler) resolveRecipients(ctx context.Context) ([]recipient, error) {
	cacheKey := "note-recipients:" + strings.Join(h.config.RecipientRoles, ",")

	if h.redis != nil {
		if raw, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			var cached []recipient
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			h.logger.Warn("recipient cache read failed", map[string]interface{}{
				"error": err,
			})
		}
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT id, email, COALESCE(phone, '') FROM users
		WHERE role = ANY($1) AND is_active AND NOT is_deleted`,
		pq.Array(h.config.RecipientRoles))
	if err != nil {
		return nil, fmt.Errorf("%w: recipient query failed: %v", ErrDatabaseInsertFailed, err)
	}
	defer rows.Close()

	var recipients []recipient
	for rows.Next() {
		var r recipient
		if err := rows.Scan(&r.ID, &r.Email, &r.Phone); err != nil {
			return nil, fmt.Errorf("%w: recipient scan failed: %v", ErrDatabaseInsertFailed, err)
		}
		recipients = append(recipients, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: recipient rows failed: %v", ErrDatabaseInsertFailed, err)
	}

	if h.redis != nil && len(recipients) > 0 {
		if raw, err := json.Marshal(recipients); err == nil {
			if err := h.redis.Set(ctx, cacheKey, raw, h.config.RecipientCacheTTL).Err(); err != nil {
				h.logger.Warn("recipient cache write failed", map[string]interface{}{
					"error": err,
				})
			}
		}
	}

	return recipients, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	} else {
		metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
		h.logger.Info("job completed successfully", map[string]interface{}{
			"jobKey": job.Key,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
		"retries":      retries,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
