package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"milify/internal/calendar"
	"milify/internal/model"
	"milify/internal/recurrence"
)

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newExpandCmd(a *app) *cobra.Command {
	var (
		user          string
		from, to      string
		holidays      bool
		subscriptions bool
	)

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Print a user's occurrences in a date window as JSON",
		Long: `Expand a user's stored events into concrete occurrences.

--from defaults to today and --to to today plus horizon_days. --holidays
defaults to include_holidays from the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if user == "" {
				return fmt.Errorf("--user is required")
			}

			today := civil.DateOf(time.Now().In(a.cfg.Location()))
			start, end := today, today.AddDays(a.cfg.HorizonDays)
			var err error
			if from != "" {
				if start, err = civil.ParseDate(from); err != nil {
					return fmt.Errorf("--from: %w", err)
				}
			}
			if to != "" {
				if end, err = civil.ParseDate(to); err != nil {
					return fmt.Errorf("--to: %w", err)
				}
			}
			if !cmd.Flags().Changed("holidays") {
				holidays = a.cfg.IncludeHolidays
			}

			subs := a.subscriptions()
			if subscriptions && subs != nil {
				// Partial failures still leave the feeds that loaded.
				_ = subs.Refresh(ctx)
			}

			svc, closeStore, err := a.service(ctx, subs)
			if err != nil {
				return err
			}
			defer closeStore()

			events, err := svc.Window(ctx, user, start, end, calendar.WindowOptions{
				Holidays:      holidays,
				Subscriptions: subscriptions,
			})
			if err != nil {
				return err
			}
			return writeIndentedJSON(cmd.OutOrStdout(), events)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "User ID")
	cmd.Flags().StringVar(&from, "from", "", "First date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&holidays, "holidays", false, "Include federal holidays")
	cmd.Flags().BoolVar(&subscriptions, "subscriptions", false, "Fetch and include external subscriptions")
	return cmd
}

func newDescribeCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:     "describe <rule-json>",
		Short:   "Print the human-readable label of a recurrence rule",
		Example: `  milify describe '{"type":"monthly","interval":1,"weekOfMonth":1,"dayOfWeek":2}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rule model.Recurrence
			if err := json.Unmarshal([]byte(args[0]), &rule); err != nil {
				return fmt.Errorf("parse rule: %w", err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), recurrence.Describe(rule))
			return err
		},
	}
}

func newFeedCmd(a *app) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Write a user's iCalendar feed to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if user == "" {
				return fmt.Errorf("--user is required")
			}
			svc, closeStore, err := a.service(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeStore()

			body, err := svc.Feed(cmd.Context(), user)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), body)
			return err
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "User ID")
	return cmd
}

func newEventCmd(a *app) *cobra.Command {
	event := &cobra.Command{
		Use:   "event",
		Short: "Manage stored calendar events",
	}
	event.AddCommand(&cobra.Command{
		Use:   "put <event-json>",
		Short: "Insert or replace an event; an id is generated when empty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ev model.CalendarEvent
			if err := json.Unmarshal([]byte(args[0]), &ev); err != nil {
				return fmt.Errorf("parse event: %w", err)
			}
			svc, closeStore, err := a.service(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeStore()

			saved, err := svc.SaveEvent(cmd.Context(), ev)
			if err != nil {
				return err
			}
			return writeIndentedJSON(cmd.OutOrStdout(), saved)
		},
	})
	return event
}
