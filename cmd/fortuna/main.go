package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/urfave/cli/v2"

	"github.com/core-coin/fortuna/internal/config"
	"github.com/core-coin/fortuna/internal/fortuna"
	"github.com/core-coin/fortuna/internal/http_api"
	"github.com/core-coin/fortuna/internal/models"
	"github.com/core-coin/fortuna/internal/notificator"
	"github.com/core-coin/fortuna/internal/repository"
	"github.com/core-coin/fortuna/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "fortuna",
		Usage: "Fortuna hands out a limited, tiered prize inventory once per participant",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "store", Aliases: []string{"s"}, Usage: "Store backend (memory, postgres, redis)"},
			&cli.StringFlag{Name: "postgres-user", Aliases: []string{"u"}, Usage: "Postgres user"},
			&cli.StringFlag{Name: "postgres-password", Aliases: []string{"p"}, Usage: "Postgres password"},
			&cli.StringFlag{Name: "postgres-host", Aliases: []string{"t"}, Usage: "Postgres host"},
			&cli.IntFlag{Name: "postgres-port", Aliases: []string{"P"}, Usage: "Postgres port"},
			&cli.StringFlag{Name: "postgres-db", Aliases: []string{"d"}, Usage: "Postgres database name"},
			&cli.StringFlag{Name: "redis-url", Aliases: []string{"r"}, Usage: "Redis URL"},
			&cli.IntFlag{Name: "api-port", Aliases: []string{"a"}, Usage: "HTTP API port"},
			&cli.BoolFlag{Name: "lock-atomic", Usage: "Use the store's compare-and-swap for the allocation lock"},
			&cli.BoolFlag{Name: "development", Aliases: []string{"D"}, Usage: "Development mode"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the claim and status API (default)",
				Action: serve,
			},
			{
				Name:   "status",
				Usage:  "Print the event status snapshot",
				Action: printStatus,
			},
			{
				Name:   "seed",
				Usage:  "Seed the prize inventory if absent and print the remaining counts",
				Action: seedInventory,
			},
			{
				Name:   "claims",
				Usage:  "Print every claim in the order it was issued",
				Action: printClaims,
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the environment once and applies flag overrides
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("store") {
		cfg.StoreBackend = c.String("store")
	}
	if c.IsSet("postgres-user") {
		cfg.PostgresUser = c.String("postgres-user")
	}
	if c.IsSet("postgres-password") {
		cfg.PostgresPassword = c.String("postgres-password")
	}
	if c.IsSet("postgres-host") {
		cfg.PostgresHost = c.String("postgres-host")
	}
	if c.IsSet("postgres-port") {
		cfg.PostgresPort = c.Int("postgres-port")
	}
	if c.IsSet("postgres-db") {
		cfg.PostgresDB = c.String("postgres-db")
	}
	if c.IsSet("redis-url") {
		cfg.RedisURL = c.String("redis-url")
	}
	if c.IsSet("api-port") {
		cfg.APIPort = c.Int("api-port")
	}
	if c.IsSet("lock-atomic") {
		cfg.LockAtomic = c.Bool("lock-atomic")
	}
	if c.IsSet("development") {
		cfg.Development = c.Bool("development")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore(cfg *config.Config, log *logger.Logger) (models.Store, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		return repository.NewPostgresStore(cfg.PostgresDSN(), log)
	case config.StoreRedis:
		return repository.NewRedisStore(cfg.RedisURL, log)
	default:
		log.Warn("Using in-memory store, state is lost on restart and not shared between instances")
		return repository.NewMemoryStore(), nil
	}
}

func newNotificator(cfg *config.Config, log *logger.Logger) *notificator.Notificator {
	var senders []notificator.Sender
	if cfg.TelegramBotToken != "" {
		telegram, err := notificator.NewTelegramNotificator(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Error("Telegram notifications disabled", "error", err)
		} else {
			senders = append(senders, telegram)
		}
	}
	if cfg.SMTPHost != "" && cfg.NotifyEmail != "" {
		senders = append(senders, notificator.NewEmailNotificator(
			cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPSender, cfg.NotifyEmail,
		))
	}
	return notificator.NewNotificator(log, senders...)
}

// setup builds the shared pieces every command needs
func setup(c *cli.Context, quiet bool) (*config.Config, *logger.Logger, models.Store, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, nil, err
	}

	log := logger.NewNop()
	if !quiet {
		// Initialize logger
		log, err = logger.NewLogger(cfg.Development)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	// Initialize store
	store, err := openStore(cfg, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return cfg, log, store, nil
}

func serve(c *cli.Context) error {
	cfg, log, store, err := setup(c, false)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer store.Close()

	var notifications models.NotificationService
	if n := newNotificator(cfg, log); n.Enabled() {
		notifications = n
	}

	fortunaApp := fortuna.NewFortuna(store, notifications, log, cfg)
	apiServer, err := http_api.NewHTTPServer(fortunaApp, cfg.APIPort, cfg.ClientIPHeader, cfg.TrustedProxies, log)
	if err != nil {
		return err
	}

	go apiServer.Start()
	log.Info("Fortuna started",
		"store", cfg.StoreBackend,
		"eventStart", cfg.EventStart,
		"eventEnd", cfg.EventEnd,
		"lockAtomic", cfg.LockAtomic,
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	return apiServer.Shutdown()
}

func printStatus(c *cli.Context) error {
	cfg, log, store, err := setup(c, true)
	if err != nil {
		return err
	}
	defer store.Close()

	status, err := fortuna.NewFortuna(store, nil, log, cfg).Status(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}
	return printJSON(status)
}

func seedInventory(c *cli.Context) error {
	cfg, log, store, err := setup(c, true)
	if err != nil {
		return err
	}
	defer store.Close()

	// The status snapshot seeds the inventory on first access.
	status, err := fortuna.NewFortuna(store, nil, log, cfg).Status(c.Context)
	if err != nil {
		return fmt.Errorf("failed to seed inventory: %w", err)
	}
	return printJSON(status.Remaining)
}

func printClaims(c *cli.Context) error {
	cfg, log, store, err := setup(c, true)
	if err != nil {
		return err
	}
	defer store.Close()

	claims, err := fortuna.NewFortuna(store, nil, log, cfg).Claims(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list claims: %w", err)
	}
	return printJSON(claims)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
