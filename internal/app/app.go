package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/andy/timeledger/internal/config"
	"github.com/andy/timeledger/internal/crypto"
	"github.com/andy/timeledger/internal/db"
	"github.com/andy/timeledger/internal/document"
	"github.com/andy/timeledger/internal/logger"
	"github.com/andy/timeledger/internal/repository"
	"github.com/andy/timeledger/internal/service"
	"golang.org/x/term"
)

// App is the dependency injection container for all application components
type App struct {
	Config *config.Config
	DB     *db.DB
	Outbox *document.OutboxMailer

	// Repositories
	ClientRepo   repository.ClientRepository
	EntryRepo    repository.TimeEntryRepository
	InvoiceRepo  repository.InvoiceRepository
	PaymentRepo  repository.PaymentRepository
	SettingsRepo repository.SettingsRepository
	TimerRepo    repository.TimerRepository

	// Services
	ClientService  service.ClientService
	EntryService   service.EntryService
	InvoiceService service.InvoiceService
	PaymentService service.PaymentService
	TimerService   service.TimerService
	ReportService  service.ReportService

	logCloser io.Closer
}

// New creates a new App instance from the default config
func New(ctx context.Context) (*App, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(ctx, cfg)
}

// NewWithConfig creates an App with a provided config. It sets up logging,
// obtains the database key, opens and migrates the database and wires the
// repositories and services for the configured account.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	logCloser, err := logger.Setup(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	log := logger.WithComponent("app")

	if err := cfg.EnsureDirectories(); err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	password, err := databaseKey(crypto.NewKeyring())
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	database, err := db.Open(cfg.Database.Path, password)
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.RunMigrations(); err != nil {
		database.Close()
		logCloser.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a := Wire(cfg, database)
	a.logCloser = logCloser

	log.Debug().
		Str("db", cfg.Database.Path).
		Str("account_id", cfg.AccountID).
		Str("outbox", cfg.Invoice.OutboxDir).
		Msg("application ready")
	return a, nil
}

// Wire builds repositories and services over an open, migrated database
func Wire(cfg *config.Config, database *db.DB) *App {
	account := cfg.AccountID

	clientRepo := repository.NewClientRepo(database, account)
	entryRepo := repository.NewEntryRepo(database, account)
	invoiceRepo := repository.NewInvoiceRepo(database, account)
	paymentRepo := repository.NewPaymentRepo(database, account)
	settingsRepo := repository.NewSettingsRepo(database, account)
	timerRepo := repository.NewTimerRepo(database, account)

	outbox := document.NewOutboxMailer(cfg.Invoice.OutboxDir, logger.WithComponent("outbox"))

	return &App{
		Config:       cfg,
		DB:           database,
		Outbox:       outbox,
		ClientRepo:   clientRepo,
		EntryRepo:    entryRepo,
		InvoiceRepo:  invoiceRepo,
		PaymentRepo:  paymentRepo,
		SettingsRepo: settingsRepo,
		TimerRepo:    timerRepo,

		ClientService:  service.NewClientService(clientRepo),
		EntryService:   service.NewEntryService(entryRepo, clientRepo),
		PaymentService: service.NewPaymentService(invoiceRepo, paymentRepo),
		TimerService:   service.NewTimerService(timerRepo, entryRepo, clientRepo),
		ReportService:  service.NewReportService(entryRepo, invoiceRepo, clientRepo),
		InvoiceService: service.NewInvoiceService(service.InvoiceDeps{
			Invoices: invoiceRepo,
			Entries:  entryRepo,
			Clients:  clientRepo,
			Payments: paymentRepo,
			Settings: settingsRepo,
			Renderer: document.NewPDFRenderer(),
			Composer: &document.Composer{FromAddress: cfg.Invoice.FromAddress},
			Mailer:   outbox,
			DueDays:  cfg.Invoice.DefaultDueDays,
		}),
	}
}

// Close cleanly shuts down the application
func (a *App) Close() error {
	var err error
	if a.DB != nil {
		err = a.DB.Close()
	}
	if a.logCloser != nil {
		if cerr := a.logCloser.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// databaseKey returns the stored key, prompting for a new one on first run
func databaseKey(keyring crypto.Keyring) (string, error) {
	password, err := keyring.GetKey()
	if err == nil {
		return password, nil
	}
	if !errors.Is(err, crypto.ErrNoKey) {
		return "", err
	}

	fmt.Println("Setting up database encryption for the first time...")
	password, err = promptForPassword()
	if err != nil {
		return "", fmt.Errorf("failed to set password: %w", err)
	}
	if err := keyring.SetKey(password); err != nil {
		return "", fmt.Errorf("failed to store encryption key: %w", err)
	}
	return password, nil
}

// promptForPassword prompts user for a new database password (first run)
func promptForPassword() (string, error) {
	fmt.Println()
	fmt.Println("Your ledger will be encrypted with a password.")
	fmt.Println("The password is kept in your system keyring (or set " + crypto.EnvKey + ").")
	fmt.Println()
	fmt.Print("Enter a password for database encryption: ")

	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) == 0 {
		return "", fmt.Errorf("password cannot be empty")
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	if string(password) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}

	fmt.Println()
	fmt.Println("✓ Database encryption configured successfully")
	fmt.Println()
	return string(password), nil
}

// SaveConfig saves the current configuration to disk
func (a *App) SaveConfig() error {
	return a.Config.Save(config.DefaultConfigPath())
}
