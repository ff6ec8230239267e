package main

import (
	"context"
	"log"

	"arca/internal/domain/annotation"
	"arca/internal/domain/item"
	"arca/internal/domain/notification"
	"arca/internal/domain/sync"
	"arca/internal/infrastructure/crypto"
	"arca/internal/infrastructure/firebase"
	"arca/internal/infrastructure/postgres"
	"arca/internal/infrastructure/provider"
	httphandlers "arca/internal/interfaces/http"
	"arca/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	HealthHandler       *httphandlers.HealthHandler
	ItemHandler         *httphandlers.ItemHandler
	AccountHandler      *httphandlers.AccountHandler
	TransactionHandler  *httphandlers.TransactionHandler
	NotificationHandler *httphandlers.NotificationHandler

	// Sync pipeline (for scheduler jobs)
	Orchestrator        *sync.Orchestrator
	AnnotationService   *annotation.Service
	NotificationService *notification.Service

	// Repositories (for scheduler job provider)
	ItemRepo        *postgres.ItemRepository
	InstitutionRepo *postgres.InstitutionRepository
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	// Initialize encryptor (access tokens at rest)
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	itemRepo := postgres.NewItemRepository(db, encryptor)
	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	institutionRepo := postgres.NewInstitutionRepository(db)
	deviceTokenRepo := postgres.NewDeviceTokenRepository(db)
	lockRepo := postgres.NewLockRepository(db)

	// Initialize provider client
	client := provider.NewClient(provider.Config{
		ClientID:    cfg.Provider.ClientID,
		Secret:      cfg.Provider.Secret,
		Environment: cfg.Provider.Environment,
		Timeout:     cfg.Provider.Timeout,
	})

	// Initialize sync pipeline
	orchestrator := sync.NewOrchestrator(
		itemRepo,
		client,
		sync.NewAccountReconciler(accountRepo),
		sync.NewTransactionReconciler(accountRepo, transactionRepo),
		sync.NewCursorManager(itemRepo),
		lockRepo,
		cfg.Sync.MaxPages,
		cfg.Sync.LockTTL,
	)

	// Initialize domain services
	itemService := item.NewService(itemRepo, institutionRepo, client, cfg.Provider.WebhookURL)
	annotationService := annotation.NewService(transactionRepo, annotation.NewAnalyzer())

	// Initialize FCM if configured; push delivery degrades to log lines otherwise.
	var messenger notification.Messenger
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := firebase.NewClient(ctx, cfg.Firebase.CredentialsFile, deviceTokenRepo.DeactivateToken)
		if err != nil {
			log.Printf("Warning: Failed to initialize Firebase messaging: %v", err)
		} else {
			messenger = fcm
			log.Println("Firebase messaging initialized")
		}
	}
	notificationService := notification.NewService(deviceTokenRepo, messenger)

	// Initialize handlers
	healthHandler := httphandlers.NewHealthHandler(db)
	itemHandler := httphandlers.NewItemHandler(itemService, orchestrator)
	accountHandler := httphandlers.NewAccountHandler(accountRepo)
	transactionHandler := httphandlers.NewTransactionHandler(transactionRepo, annotationService)
	notificationHandler := httphandlers.NewNotificationHandler(notificationService)

	return &Dependencies{
		DB:                  db,
		HealthHandler:       healthHandler,
		ItemHandler:         itemHandler,
		AccountHandler:      accountHandler,
		TransactionHandler:  transactionHandler,
		NotificationHandler: notificationHandler,
		Orchestrator:        orchestrator,
		AnnotationService:   annotationService,
		NotificationService: notificationService,
		ItemRepo:            itemRepo,
		InstitutionRepo:     institutionRepo,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
