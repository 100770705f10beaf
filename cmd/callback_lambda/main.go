package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chris/stk-confirmation/pkg/bootstrap"
	"github.com/chris/stk-confirmation/pkg/config"
	"github.com/chris/stk-confirmation/pkg/dispatch"
)

var consumer *dispatch.Consumer

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	// This lambda consumes the queue; it must not enqueue back onto it.
	cfg.SQSCallbackQueueURL = ""

	engine, err := bootstrap.New(context.Background(), cfg, cfg.Logger())
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}
	consumer = dispatch.NewConsumer(engine.Reconciler)
}

func main() {
	lambda.Start(consumer.HandleSQSEvent)
}
