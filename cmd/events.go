/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/foodgram/apiserver/internal/events"
	"github.com/foodgram/apiserver/internal/logging"
	"github.com/foodgram/apiserver/internal/mq"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect domain events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log domain events as they are published",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		queue, err := mq.NewFromConfig(ctx, cfg.MQ)
		if err != nil {
			return fmt.Errorf("init message queue: %w", err)
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is not configured")
		}
		defer queue.Close()

		logger := logging.WithComponent("events")
		logger.Info().Str("channel", cfg.MQ.EventsChannel).Msg("tailing events")
		err = events.Subscribe(ctx, queue, cfg.MQ.EventsChannel, func(_ context.Context, event events.Event) error {
			logger.Info().
				Str("id", event.ID).
				Str("type", string(event.Type)).
				Int("actor_id", event.ActorID).
				Int("subject_id", event.SubjectID).
				Time("occurred_at", event.OccurredAt).
				Msg("event")
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
