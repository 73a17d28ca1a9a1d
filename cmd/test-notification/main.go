package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/donellmccoy/lod-tracker/internal/application/port"
	"github.com/donellmccoy/lod-tracker/internal/config"
	"github.com/donellmccoy/lod-tracker/internal/infrastructure/notify"
)

// Standalone check for the outbound notification path. Sends a sample
// transition event through the configured notifier without touching the
// database or the HTTP server.

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	recipient := flag.String("recipient", "test-member", "recipient identifier for the sample event")
	flag.Parse()

	fmt.Println("=== LOD Notification Test ===")
	fmt.Println("Sends a sample case transition event through the configured notifier")
	fmt.Println()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	var notifier port.Notifier
	if cfg.Notifier.WebhookURL != "" {
		fmt.Printf("Webhook URL: %s\n", cfg.Notifier.WebhookURL)
		notifier = notify.NewWebhookNotifier(notify.Config{
			WebhookURL: cfg.Notifier.WebhookURL,
			Timeout:    cfg.Notifier.Timeout,
		}, logger)
	} else {
		fmt.Println("No webhook URL configured, using log notifier")
		notifier = notify.NewLogNotifier(logger)
	}

	event := &port.NotificationEvent{
		CaseID:     "00000000-0000-0000-0000-000000000000",
		CaseNumber: "LOD-TEST-001",
		Variant:    "INFORMAL",
		Recipient:  *recipient,
		FromState:  "START",
		ToState:    "MEMBER_REPORTS",
		Trigger:    "PROCESS_INITIATED",
		Authority:  "Member",
		Message:    "Test notification from the LOD case tracker",
		OccurredAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("\nSending sample event...")
	if err := notifier.Notify(ctx, event); err != nil {
		log.Fatalf("✗ Notification failed: %v", err)
	}

	fmt.Println("✓ Notification delivered")
}
