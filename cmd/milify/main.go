package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"milify/internal/calendar"
	"milify/internal/config"
	"milify/internal/feed"
	"milify/internal/ics"
	appLog "milify/internal/log"
	"milify/internal/store"
	"milify/internal/store/file"
	"milify/internal/store/postgres"
)

const version = "0.3.0"

// app carries what every subcommand resolves from the persistent flags.
type app struct {
	configPath string
	listen     string

	cfg *config.Config
}

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	appLog.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "milify",
		Short:         "Family calendar service: recurring events, holidays, iCal feeds",
		Version:       version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "./milify.yaml", "Path to config file")
	root.PersistentFlags().StringVar(&a.listen, "listen", "", "HTTP listen address (overrides config if set)")

	root.AddCommand(
		newServeCmd(a),
		newExpandCmd(a),
		newDescribeCmd(a),
		newFeedCmd(a),
		newEventCmd(a),
		newTokenCmd(a),
		newMigrateCmd(a),
	)
	return root
}

// load reads the config file, applies environment overrides and the
// --listen flag, and configures logging.
func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", a.configPath, err)
	}
	cfg.ApplyEnv()
	if a.listen != "" {
		cfg.Listen = a.listen
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	appLog.Init(cfg.Environment, appLog.Level(cfg.LogLevel))
	appLog.Debug("effective config",
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"store", cfg.Store.Driver,
		"subscriptions", len(cfg.Subscriptions),
		"include_holidays", cfg.IncludeHolidays,
	)
	a.cfg = cfg
	return nil
}

// openStore opens the configured backend. Postgres schemas are migrated
// when migrate is set.
func (a *app) openStore(ctx context.Context, migrate bool) (store.Store, error) {
	switch a.cfg.Store.Driver {
	case config.DriverPostgres:
		st, err := postgres.Open(ctx, a.cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := st.Migrate(ctx); err != nil {
				_ = st.Close()
				return nil, err
			}
		}
		return st, nil
	case config.DriverFile:
		return file.Open(a.cfg.Store.Path)
	default:
		return nil, errors.New("unknown store driver " + a.cfg.Store.Driver)
	}
}

func (a *app) feedOptions() feed.Options {
	return feed.Options{
		Name:      a.cfg.Feed.Name,
		ProductID: a.cfg.Feed.ProductID,
		UIDDomain: a.cfg.Feed.UIDDomain,
		Location:  a.cfg.Location(),
	}
}

// subscriptions builds the subscription set from config, or nil when none
// are configured.
func (a *app) subscriptions() *ics.Subscriptions {
	if len(a.cfg.Subscriptions) == 0 {
		return nil
	}
	sources := make([]ics.Source, 0, len(a.cfg.Subscriptions))
	for _, s := range a.cfg.Subscriptions {
		id := s.ID
		if id == "" {
			if s.Name != "" {
				id = s.Name
			} else {
				id = s.URL
			}
		}
		sources = append(sources, ics.Source{ID: id, Name: s.Name, URL: s.URL, Color: s.Color})
	}
	return ics.NewSubscriptions(ics.NewFetcher(a.cfg.CacheDir), sources, a.cfg.Location())
}

// service opens the store and wires a calendar.Service; the returned close
// func releases the store.
func (a *app) service(ctx context.Context, subs *ics.Subscriptions) (*calendar.Service, func(), error) {
	st, err := a.openStore(ctx, false)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := st.Close(); err != nil {
			appLog.Error("store close failed", err)
		}
	}
	return calendar.NewService(st, subs, a.feedOptions()), closeFn, nil
}
