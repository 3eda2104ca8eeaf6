package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"mobileservice-backend/internal/config"
	"mobileservice-backend/internal/db"
	"mobileservice-backend/internal/handler"
	"mobileservice-backend/internal/notify"
	"mobileservice-backend/internal/repository"
	"mobileservice-backend/internal/server"
	"mobileservice-backend/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "err", err)
		os.Exit(1)
	}

	// repositories
	userRepo := repository.UserRepository{DB: pg}
	shopRepo := repository.ShopRepository{DB: pg}
	staffRepo := repository.StaffRepository{DB: pg}
	jobRepo := repository.JobRepository{DB: pg}
	expenseRepo := repository.ExpenseRepository{DB: pg}
	suggestionRepo := repository.SuggestionRepository{DB: pg}
	planRepo := repository.PlanRepository{DB: pg}
	voucherRepo := repository.VoucherRepository{DB: pg}
	ownerTokenRepo := repository.OwnerTokenRepository{DB: pg}

	if err := planRepo.SeedDefaults(ctx); err != nil {
		logger.Error("failed to seed plans", "err", err)
		os.Exit(1)
	}
	if err := seedSuperAdmin(ctx, cfg, userRepo, logger); err != nil {
		logger.Error("failed to seed super admin", "err", err)
		os.Exit(1)
	}

	// telegram gateway (optional; jobs work without it)
	var bot *tgbotapi.BotAPI
	gateway := &notify.Gateway{
		BotName:  cfg.TelegramBotName,
		Currency: cfg.DefaultCurrency,
		Jobs:     jobRepo,
		Owners:   ownerTokenRepo,
		Shops:    shopRepo,
		Logger:   logger,
	}
	if cfg.TelegramBotToken != "" {
		bot, err = tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			logger.Error("failed to init telegram bot", "err", err)
			os.Exit(1)
		}
		gateway.Bot = bot
	}

	// services
	authSvc := service.AuthService{Config: cfg, Users: userRepo, Shops: shopRepo, Logger: logger}
	subscriptionSvc := service.SubscriptionService{
		Shops:    shopRepo,
		Plans:    planRepo,
		Vouchers: voucherRepo,
		Currency: cfg.DefaultCurrency,
		Logger:   logger,
	}
	jobSvc := service.JobService{Jobs: jobRepo, Suggestions: suggestionRepo, Logger: logger}
	if bot != nil {
		jobSvc.Notifier = gateway
	}
	reportSvc := service.ReportService{
		Jobs:     jobRepo,
		Expenses: expenseRepo,
		Shops:    shopRepo,
		Plans:    planRepo,
		Staff:    staffRepo,
		Logger:   logger,
	}
	shopSvc := service.ShopService{
		Shops:         shopRepo,
		Users:         userRepo,
		Staff:         staffRepo,
		Expenses:      expenseRepo,
		Suggestions:   suggestionRepo,
		Jobs:          jobRepo,
		Subscriptions: subscriptionSvc,
		Logger:        logger,
	}

	// handlers
	healthHandler := handler.HealthHandler{DB: pg}
	homeHandler := handler.HomeHandler{}
	authHandler := handler.AuthHandler{Auth: authSvc}
	jobHandler := handler.JobHandler{Jobs: jobSvc, BotName: cfg.TelegramBotName}
	shopHandler := handler.ShopHandler{
		Shops:     shopSvc,
		Auth:      authSvc,
		Reports:   reportSvc,
		OwnerLink: ownerTokenRepo,
		BotName:   cfg.TelegramBotName,
		UploadDir: cfg.UploadDir,
	}
	staffHandler := handler.StaffHandler{Shops: shopSvc}
	expenseHandler := handler.ExpenseHandler{Shops: shopSvc}
	suggestionHandler := handler.SuggestionHandler{Shops: shopSvc}
	planHandler := handler.PlanHandler{Plans: planRepo}
	adminHandler := handler.AdminHandler{
		Shops:         shopSvc,
		Subscriptions: subscriptionSvc,
		Reports:       reportSvc,
		Vouchers:      voucherRepo,
		Jobs:          jobRepo,
	}

	if bot != nil {
		go gateway.Run(ctx, bot)
		cronJobs, err := gateway.StartDailyReports(reportSvc, notify.DailyReportSpec)
		if err != nil {
			logger.Error("failed to start daily reports", "err", err)
			os.Exit(1)
		}
		defer cronJobs.Stop()
	}

	router := server.NewRouter(cfg, logger,
		healthHandler, homeHandler, authHandler,
		jobHandler, shopHandler, staffHandler,
		expenseHandler, suggestionHandler, planHandler, adminHandler)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

// seedSuperAdmin creates the platform account from env on first boot.
func seedSuperAdmin(ctx context.Context, cfg config.Config, users repository.UserRepository, logger *slog.Logger) error {
	if cfg.SuperAdminEmail == "" || cfg.SuperAdminPassword == "" {
		return nil
	}
	_, err := users.GetByEmail(ctx, cfg.SuperAdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := service.HashPassword(cfg.SuperAdminPassword)
	if err != nil {
		return err
	}
	if _, err := users.Create(ctx, repository.CreateUserParams{
		Email:        cfg.SuperAdminEmail,
		PasswordHash: hash,
		IsSuperAdmin: true,
	}); err != nil {
		return err
	}
	logger.Info("super admin account created", "email", cfg.SuperAdminEmail)
	return nil
}
