package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chris/stk-confirmation/pkg/bootstrap"
	"github.com/chris/stk-confirmation/pkg/config"
	"github.com/chris/stk-confirmation/pkg/confirmation"
)

var sweeper *confirmation.Sweeper

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	// Timing out never reaches the gateway, so its credentials may be absent here.
	engine, err := bootstrap.New(context.Background(), cfg, cfg.Logger())
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}
	sweeper = engine.Sweeper
}

// HandleRequest is triggered by an EventBridge Schedule.
func HandleRequest(ctx context.Context) error {
	log.Println("Starting sweep for expired transactions...")

	report, err := sweeper.Sweep(ctx)
	if err != nil {
		log.Printf("ERROR: sweep failed: %v", err)
		return err
	}

	log.Printf("Sweep finished: scanned=%d timed_out=%d skipped=%d errors=%d",
		report.Scanned, report.TimedOut, report.Skipped, report.Errors)
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
