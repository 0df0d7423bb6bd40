package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"expensetracker/internal/amqp"
	"expensetracker/internal/backend"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
	gsheet "expensetracker/internal/sheets/google"
)

const (
	flagFile     = "file"
	flagBackend  = "backend"
	flagDB       = "db"
	flagLogLevel = "log-level"
)

// ExporterFunc builds the export destination from the loaded configuration.
type ExporterFunc func(ctx context.Context, cfg *config.Config) (services.Exporter, error)

// NotifiersFunc builds the notifiers told about saved changes.
type NotifiersFunc func(ctx context.Context, cfg *config.Config, logger *applog.Logger) []services.Notifier

// Option customises the command tree.
type Option func(*app)

// WithClock sets the source of today's date for new expenses.
func WithClock(now func() time.Time) Option {
	return func(a *app) { a.now = now }
}

// WithExporter replaces the Google Sheets export destination.
func WithExporter(fn ExporterFunc) Option {
	return func(a *app) { a.newExporter = fn }
}

// WithNotifiers replaces the AMQP event publisher.
func WithNotifiers(fn NotifiersFunc) Option {
	return func(a *app) { a.newNotifiers = fn }
}

// app holds what one invocation has loaded.
type app struct {
	cfg    *config.Config
	logger *applog.Logger

	now          func() time.Time
	newExporter  ExporterFunc
	newNotifiers NotifiersFunc
}

// NewRootCmd creates the expense-tracker command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{
		logger:       applog.Discard(),
		now:          time.Now,
		newExporter:  sheetsExporter,
		newNotifiers: amqpNotifiers,
	}
	for _, opt := range opts {
		opt(a)
	}

	rootCmd := &cobra.Command{
		Use:   "expense-tracker",
		Short: "Expense Tracker CLI",
		Long: `Track personal expenses from the command line.

Expenses are kept in a JSON file (expenses.json by default), or in SQLite
when DATA_BACKEND=sqlite. Settings are read from the environment and from
a .env file in the working directory.`,
		// Anything unrecognised falls through to the help text.
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd == cmd.Root() || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return a.load(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(flagFile, config.DefaultExpensesFile, "Path to the JSON expenses file (env EXPENSES_FILE)")
	rootCmd.PersistentFlags().String(flagBackend, config.BackendJSON, "Storage backend: json, sqlite or memory (env DATA_BACKEND)")
	rootCmd.PersistentFlags().String(flagDB, config.DefaultSQLitePath, "Path to the SQLite database (env SQLITE_DB_PATH)")
	rootCmd.PersistentFlags().String(flagLogLevel, config.DefaultLogLevel, "Log level: debug, info, warn or error (env LOG_LEVEL)")

	_ = rootCmd.RegisterFlagCompletionFunc(flagBackend, func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return backend.TypeStrings(), cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newAddCmd(a))
	rootCmd.AddCommand(newListCmd(a))
	rootCmd.AddCommand(newDeleteCmd(a))
	rootCmd.AddCommand(newSummaryCmd(a))
	rootCmd.AddCommand(newExportCmd(a))

	return rootCmd
}

// Execute runs the command line and returns the process exit status.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...Option) int {
	if args == nil {
		// cobra reads os.Args when given nil
		args = []string{}
	}
	rootCmd := NewRootCmd(opts...)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := LoadAndValidateConfig(cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := SetupLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger

	ctx := applog.WithContext(cmd.Context(), logger)
	cmd.SetContext(ctx)

	logger.DebugContext(ctx, "Configuration loaded",
		applog.FieldOperation, cmd.Name(),
		applog.FieldBackend, cfg.DataBackend)
	return nil
}

// session is an opened store plus the service working on it.
type session struct {
	svc   *services.ExpenseService
	store *backend.Result
}

func (s *session) Close() error {
	svcErr := s.svc.Close()
	storeErr := s.store.Close()
	if svcErr != nil {
		return svcErr
	}
	return storeErr
}

// open creates the configured store. Notifiers are attached only for
// commands that change the collection.
func (a *app) open(ctx context.Context, notify bool) (*session, error) {
	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(a.logger).CreateStore(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	var notifiers []services.Notifier
	if notify && a.newNotifiers != nil {
		notifiers = a.newNotifiers(ctx, a.cfg, a.logger)
	}

	svc := services.NewExpenseService(res.Store, notifiers...).
		WithClock(a.now).
		WithLogger(a.logger)

	return &session{svc: svc, store: res}, nil
}

// closeSession logs instead of failing: the command has already done its work.
func (a *app) closeSession(ctx context.Context, s *session) {
	if err := s.Close(); err != nil {
		a.logger.WarnContext(ctx, "Failed to release resources", applog.FieldError, err)
	}
}

func amqpNotifiers(ctx context.Context, cfg *config.Config, logger *applog.Logger) []services.Notifier {
	if !cfg.AMQPEnabled() {
		return nil
	}

	logger = logger.WithComponent(applog.ComponentAMQP)
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events",
			applog.FieldError, err)
		return nil
	}

	logger.DebugContext(ctx, "Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return []services.Notifier{client}
}

func sheetsExporter(ctx context.Context, cfg *config.Config) (services.Exporter, error) {
	if err := cfg.ValidateSheets(); err != nil {
		return nil, err
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
