package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"einvoice-assistant-be/internal/pkg/logger"
	"einvoice-assistant-be/pkg/events"
	pktNats "einvoice-assistant-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var durableFlag string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Work with turn events on JetStream",
}

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print committed turns as they are published (requires NATS_URL)",
	RunE:  runTail,
}

func init() {
	tailCmd.Flags().StringVar(&durableFlag, "durable", "chat-cli-tail", "durable consumer name")
	eventsCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	if cfg.App.NatsURL == "" {
		return fmt.Errorf("NATS_URL is not set")
	}

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL, logger.NewNopLogger())
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	color.Cyan("waiting for %s ...", events.TypeTurnCommitted)
	return sub.Subscribe(ctx, pktNats.Subject(events.TypeTurnCommitted), durableFlag, func(_ context.Context, e events.Event) error {
		p := e.Payload()
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		color.New(color.Bold).Printf("%s %s", e.Timestamp().Format("15:04:05"), e.EventType())
		for _, k := range keys {
			fmt.Printf(" %s=%v", k, p[k])
		}
		fmt.Println()
		return nil
	})
}
