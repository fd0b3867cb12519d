// Package notify announces finished batch predictions over SNS and SES.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	awsclients "sales-forecast/internal/common/aws"
	"sales-forecast/internal/common/config"
	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/common/logger"
	"sales-forecast/internal/common/metrics"
)

const (
	ChannelSNS   = "sns"
	ChannelEmail = "email"
)

// BatchSummary is the payload of a batch-complete notification.
type BatchSummary struct {
	BatchID     string    `json:"batchId"`
	Rows        int       `json:"rows"`
	Failed      int       `json:"failed"`
	TotalSales  float64   `json:"totalSales"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

type Notifier interface {
	BatchCompleted(ctx context.Context, summary BatchSummary) error
}

// Noop is used when every channel is disabled.
type Noop struct{}

func (Noop) BatchCompleted(context.Context, BatchSummary) error { return nil }

// AWSNotifier publishes to an SNS topic and emails a fixed recipient list. Either
// client may be nil, which disables that channel.
type AWSNotifier struct {
	sns      awsclients.SNSAPI
	ses      awsclients.SESAPI
	topicARN string
	from     string
	to       []string
	logger   logger.Logger
}

func NewAWSNotifier(snsClient awsclients.SNSAPI, sesClient awsclients.SESAPI, cfg config.NotificationConfig, log logger.Logger) *AWSNotifier {
	return &AWSNotifier{
		sns:      snsClient,
		ses:      sesClient,
		topicARN: cfg.SNS.TopicARN,
		from:     cfg.Email.FromEmail,
		to:       cfg.Email.To,
		logger:   log.WithComponent("notifier"),
	}
}

// New builds the notifier described by cfg, creating AWS clients only for the
// enabled channels.
func New(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (Notifier, error) {
	if !cfg.SNS.Enabled && !cfg.Email.Enabled {
		return Noop{}, nil
	}

	var (
		snsClient awsclients.SNSAPI
		sesClient awsclients.SESAPI
	)
	if cfg.SNS.Enabled {
		c, err := awsclients.NewSNSClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, err
		}
		snsClient = c
	}
	if cfg.Email.Enabled {
		c, err := awsclients.NewSESClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, err
		}
		sesClient = c
	}
	return NewAWSNotifier(snsClient, sesClient, cfg, log), nil
}

// BatchCompleted sends on every configured channel. A failing channel does not
// stop the others; the first failure is returned.
func (n *AWSNotifier) BatchCompleted(ctx context.Context, summary BatchSummary) error {
	var firstErr error
	record := func(channel string, err error) {
		if err == nil {
			metrics.NotificationsSent.WithLabelValues(channel, "success").Inc()
			return
		}
		metrics.NotificationsSent.WithLabelValues(channel, "failed").Inc()
		n.logger.Error("notification failed", map[string]interface{}{
			"channel": channel,
			"batchId": summary.BatchID,
			"error":   err,
		})
		if firstErr == nil {
			firstErr = apperrors.NewNotificationSendFailedError(channel, err)
		}
	}

	if n.sns != nil && n.topicARN != "" {
		record(ChannelSNS, n.publish(ctx, summary))
	}
	if n.ses != nil && len(n.to) > 0 {
		record(ChannelEmail, n.email(ctx, summary))
	}
	return firstErr
}

func (n *AWSNotifier) publish(ctx context.Context, summary BatchSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String("Batch prediction completed"),
		Message:  aws.String(string(body)),
	})
	return err
}

func (n *AWSNotifier) email(ctx context.Context, summary BatchSummary) error {
	subject := fmt.Sprintf("Sales forecast batch %s completed", summary.BatchID)
	body := renderEmail(summary)
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: n.to},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.from),
	})
	return err
}

func renderEmail(s BatchSummary) string {
	body := fmt.Sprintf("Batch %s finished at %s.\nRows predicted: %d\nRows failed: %d\nTotal predicted sales: %.2f\n",
		s.BatchID, s.CompletedAt.UTC().Format(time.RFC3339), s.Rows-s.Failed, s.Failed, s.TotalSales)
	if s.DownloadURL != "" {
		body += "Download: " + s.DownloadURL + "\n"
	}
	return body
}
