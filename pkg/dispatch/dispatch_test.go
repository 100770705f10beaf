package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/stk-confirmation/pkg/confirmation"
	"github.com/chris/stk-confirmation/pkg/dispatch/mocks"
	"github.com/chris/stk-confirmation/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testOutcome(sessionID string) models.Outcome {
	return models.Outcome{
		SessionId:  sessionID,
		ResultCode: 0,
		Source:     models.SOURCE_WEBHOOK,
		Metadata:   []models.MetadataItem{{Name: "MpesaReceiptNumber", Value: "RJ12XYZ"}},
		ReceivedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestInlineDispatcher(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		resolver := new(mocks.Resolver)
		d := NewInlineDispatcher(resolver, time.Second)

		resolver.On("Resolve", mock.Anything, "ABC123", mock.Anything).
			Return(&confirmation.Result{Applied: true, Transaction: &models.Transaction{SessionId: "ABC123", Status: models.SUCCESS}}, nil)

		require.NoError(t, d.Dispatch(context.Background(), testOutcome("ABC123")))
		resolver.AssertExpectations(t)
	})

	t.Run("Caller Cancellation Does Not Abort Resolution", func(t *testing.T) {
		resolver := new(mocks.Resolver)
		d := NewInlineDispatcher(resolver, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		resolver.On("Resolve", mock.MatchedBy(func(ctx context.Context) bool {
			return ctx.Err() == nil
		}), "ABC123", mock.Anything).Return(&confirmation.Result{}, nil)

		require.NoError(t, d.Dispatch(ctx, testOutcome("ABC123")))
		resolver.AssertExpectations(t)
	})

	t.Run("Resolve Fails", func(t *testing.T) {
		resolver := new(mocks.Resolver)
		d := NewInlineDispatcher(resolver, time.Second)

		resolver.On("Resolve", mock.Anything, "ABC123", mock.Anything).Return(nil, confirmation.ErrNotFound)

		err := d.Dispatch(context.Background(), testOutcome("ABC123"))
		assert.ErrorIs(t, err, confirmation.ErrNotFound)
	})
}

func TestSQSDispatcher(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := new(mocks.SQSAPI)
		d := NewSQSDispatcher(client, "https://sqs.local/callbacks")

		client.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
			var o models.Outcome
			if err := json.Unmarshal([]byte(*in.MessageBody), &o); err != nil {
				return false
			}
			return *in.QueueUrl == "https://sqs.local/callbacks" &&
				o.SessionId == "ABC123" &&
				*in.MessageAttributes["session_id"].StringValue == "ABC123"
		})).Return(&sqs.SendMessageOutput{}, nil)

		require.NoError(t, d.Dispatch(context.Background(), testOutcome("ABC123")))
		client.AssertExpectations(t)
	})

	t.Run("Send Fails", func(t *testing.T) {
		client := new(mocks.SQSAPI)
		d := NewSQSDispatcher(client, "https://sqs.local/callbacks")

		client.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

		err := d.Dispatch(context.Background(), testOutcome("ABC123"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send message to SQS")
	})
}

func sqsMessage(t *testing.T, id string, outcome models.Outcome) events.SQSMessage {
	t.Helper()
	body, err := json.Marshal(outcome)
	require.NoError(t, err)
	return events.SQSMessage{MessageId: id, Body: string(body)}
}

func TestConsumer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		resolver := new(mocks.Resolver)
		c := NewConsumer(resolver)

		resolver.On("Resolve", mock.Anything, "ABC123", mock.MatchedBy(func(o models.Outcome) bool {
			return o.Receipt() == "RJ12XYZ"
		})).Return(&confirmation.Result{Applied: true, Transaction: &models.Transaction{SessionId: "ABC123", Status: models.SUCCESS}}, nil)

		resp, err := c.HandleSQSEvent(ctx, events.SQSEvent{Records: []events.SQSMessage{sqsMessage(t, "m1", testOutcome("ABC123"))}})
		require.NoError(t, err)
		assert.Empty(t, resp.BatchItemFailures)
		resolver.AssertExpectations(t)
	})

	t.Run("Partial Failure", func(t *testing.T) {
		resolver := new(mocks.Resolver)
		c := NewConsumer(resolver)

		resolver.On("Resolve", mock.Anything, "ok", mock.Anything).
			Return(&confirmation.Result{Duplicate: true, Transaction: &models.Transaction{SessionId: "ok", Status: models.SUCCESS}}, nil)
		resolver.On("Resolve", mock.Anything, "unknown", mock.Anything).Return(nil, confirmation.ErrNotFound)
		resolver.On("Resolve", mock.Anything, "flaky", mock.Anything).Return(nil, errors.New("throughput exceeded"))

		resp, err := c.HandleSQSEvent(ctx, events.SQSEvent{Records: []events.SQSMessage{
			sqsMessage(t, "m1", testOutcome("ok")),
			sqsMessage(t, "m2", testOutcome("unknown")),
			sqsMessage(t, "m3", testOutcome("flaky")),
			{MessageId: "m4", Body: "not json"},
		}})
		require.NoError(t, err)
		require.Len(t, resp.BatchItemFailures, 1)
		assert.Equal(t, "m3", resp.BatchItemFailures[0].ItemIdentifier)
		resolver.AssertExpectations(t)
	})
}
