package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/chris/stk-confirmation/pkg/confirmation"
	"github.com/chris/stk-confirmation/pkg/models"
)

// SQSAPI is the subset of the SQS client used to enqueue outcomes.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSDispatcher queues outcomes for the callback consumer.
type SQSDispatcher struct {
	Client   SQSAPI
	QueueURL string
}

// NewSQSDispatcher creates a new SQSDispatcher.
func NewSQSDispatcher(client SQSAPI, queueURL string) *SQSDispatcher {
	return &SQSDispatcher{
		Client:   client,
		QueueURL: queueURL,
	}
}

var _ Dispatcher = (*SQSDispatcher)(nil)

// Dispatch sends the outcome to the queue.
func (d *SQSDispatcher) Dispatch(ctx context.Context, outcome models.Outcome) error {
	body, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome for SQS: %w", err)
	}

	_, err = d.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(d.QueueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"session_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(outcome.SessionId),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	return nil
}

// Consumer applies queued outcomes.
type Consumer struct {
	resolver Resolver
}

// NewConsumer creates a Consumer.
func NewConsumer(resolver Resolver) *Consumer {
	return &Consumer{resolver: resolver}
}

// HandleSQSEvent resolves every record in the batch. Records that fail transiently are
// reported back so only they are redelivered; unknown sessions and malformed bodies are dropped.
func (c *Consumer) HandleSQSEvent(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse

	for _, message := range event.Records {
		var outcome models.Outcome
		if err := json.Unmarshal([]byte(message.Body), &outcome); err != nil {
			log.Printf("ERROR: dropping malformed outcome in message %s: %v", message.MessageId, err)
			continue
		}
		if outcome.SessionId == "" {
			log.Printf("ERROR: dropping outcome without session id in message %s", message.MessageId)
			continue
		}

		res, err := c.resolver.Resolve(ctx, outcome.SessionId, outcome)
		switch {
		case errors.Is(err, confirmation.ErrNotFound):
			log.Printf("WARN: no transaction for session %s, dropping message %s", outcome.SessionId, message.MessageId)
		case err != nil:
			log.Printf("ERROR: failed to resolve session %s: %v", outcome.SessionId, err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: message.MessageId})
		case res.Applied:
			log.Printf("Resolved session %s as %s", outcome.SessionId, res.Transaction.Status)
		default:
			log.Printf("Session %s already %s, outcome ignored", outcome.SessionId, res.Transaction.Status)
		}
	}

	return resp, nil
}
