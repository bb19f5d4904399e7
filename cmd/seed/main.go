package main

import (
	"context"
	"errors"
	"log"
	"time"

	"fiscal-sentinel/internal/models"
	"fiscal-sentinel/internal/repository"
	"fiscal-sentinel/pkg/auth"
	"fiscal-sentinel/pkg/config"
	"fiscal-sentinel/pkg/logger"
	"fiscal-sentinel/pkg/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	demoEmail    = "demo@fiscal-sentinel.dev"
	demoPassword = "demo1234"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db, appLogger)
	transactionRepo := repository.NewTransactionRepository(db, appLogger)

	appLogger.Info("Seeding demo data...")

	user, err := ensureDemoUser(ctx, userRepo, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create demo user", zap.Error(err))
	}

	if err := seedTransactions(ctx, transactionRepo, user, appLogger); err != nil {
		appLogger.Fatal("Failed to seed transactions", zap.Error(err))
	}

	appLogger.Info("Seeding completed", zap.String("email", demoEmail))
}

func ensureDemoUser(ctx context.Context, repo *repository.UserRepository, logger *zap.Logger) (*models.User, error) {
	existing, err := repo.GetByEmail(ctx, demoEmail)
	if err == nil {
		logger.Info("Demo user already exists", zap.String("email", demoEmail))
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hashed, err := auth.HashPassword(demoPassword)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:        uuid.New(),
		Email:     demoEmail,
		Password:  hashed,
		FirstName: "Demo",
		LastName:  "User",
		Role:      "user",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info("Created demo user", zap.String("email", demoEmail))
	return user, nil
}

func seedTransactions(ctx context.Context, repo *repository.TransactionRepository, user *models.User, logger *zap.Logger) error {
	existing, err := repo.ListByUserID(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info("Transactions already seeded", zap.Int("count", len(existing)))
		return nil
	}

	samples := []struct {
		daysAgo  int
		merchant string
		amount   string
		category models.TransactionCategory
	}{
		{1, "Corner Grocer", "54.12", models.CategoryFood},
		{2, "City Metro", "2.75", models.CategoryTransport},
		{3, "Streamflix", "15.99", models.CategorySubscriptions},
		{5, "Power & Light Co", "86.40", models.CategoryUtilities},
		{6, "Corner Grocer", "32.18", models.CategoryFood},
		{8, "Bookmart", "24.00", models.CategoryShopping},
		{10, "Pharmacare", "18.75", models.CategoryHealthcare},
		{12, "City Metro", "2.75", models.CategoryTransport},
		{15, "Cinema Plaza", "28.50", models.CategoryEntertainment},
		{18, "Corner Grocer", "61.93", models.CategoryFood},
		{21, "Online Academy", "49.00", models.CategoryEducation},
		{25, "Hardware Depot", "112.30", models.CategoryShopping},
	}

	now := time.Now().UTC()
	transactions := make([]*models.Transaction, 0, len(samples))
	for _, s := range samples {
		amount, err := decimal.NewFromString(s.amount)
		if err != nil {
			return err
		}
		transactions = append(transactions, &models.Transaction{
			ID:        uuid.New(),
			UserID:    user.ID,
			Date:      now.AddDate(0, 0, -s.daysAgo).Truncate(24 * time.Hour),
			Merchant:  s.merchant,
			Amount:    amount,
			Currency:  "USD",
			Category:  s.category,
			Source:    "seed",
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := repo.CreateBatch(ctx, transactions); err != nil {
		return err
	}

	logger.Info("Seeded transactions", zap.Int("count", len(transactions)))
	return nil
}
