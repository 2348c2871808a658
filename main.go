package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/finanzas/backend/src/config"
	"github.com/username/finanzas/backend/src/database"
	"github.com/username/finanzas/backend/src/fx"
	"github.com/username/finanzas/backend/src/handlers"
	"github.com/username/finanzas/backend/src/logger"
	"github.com/username/finanzas/backend/src/security"
	"github.com/username/finanzas/backend/src/services"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			config.Cfg.FrontendBaseURL: true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, Cookie, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token, ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Finanzas backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}
	if len(config.Cfg.CSRFAuthKey) < 32 {
		logger.L.Error("CSRF_AUTH_KEY must be at least 32 bytes long.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing exchange rate providers...")
	var fallback fx.RateProvider
	if historicalRates, err := fx.NewHistoricalProvider(config.Cfg.HistoricalRatesPath); err != nil {
		logger.L.Error("Failed to load historical rates", "error", err)
	} else {
		fallback = historicalRates
	}
	var rateProvider fx.RateProvider = fx.NewLiveProvider(config.Cfg.FxAPIBaseURL, fallback)
	rateProvider = fx.NewCachedProvider(rateProvider, config.Cfg.FxCacheTTL)

	logger.L.Info("Initializing summary cache...")
	summaryCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	emailService := services.NewEmailService()
	notificationService := services.NewNotificationService(database.DB, emailService, config.Cfg.DefaultTimezone)

	dispatcher := services.NewDispatcher()
	accountService := services.NewAccountService(database.DB, summaryCache)
	transactionService := services.NewTransactionService(database.DB, rateProvider, dispatcher, accountService)
	budgetService := services.NewBudgetService(database.DB, notificationService)
	goalService := services.NewGoalService(database.DB)
	billService := services.NewBillService(database.DB, transactionService, notificationService)
	soatService := services.NewSOATService(database.DB, transactionService, notificationService, billService)
	ruleService := services.NewRuleService(database.DB)
	categoryService := services.NewCategoryService(database.DB)
	analyticsService := services.NewAnalyticsService(database.DB, notificationService)
	reminderService := services.NewReminderService(database.DB, notificationService)

	// Handler registration order decides the order side effects run in
	// after each commit.
	dispatcher.Register(budgetService)
	dispatcher.Register(goalService)
	dispatcher.Register(services.NewPaymentLinkageHandler(database.DB, notificationService))

	userHandler := handlers.NewUserHandler(authService, emailService)
	handlers.InitializeGoogleOAuthConfig()
	accountHandler := handlers.NewAccountHandler(accountService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	goalHandler := handlers.NewGoalHandler(goalService)
	billHandler := handlers.NewBillHandler(billService)
	soatHandler := handlers.NewSOATHandler(soatService)
	ruleHandler := handlers.NewRuleHandler(ruleService)
	alertHandler := handlers.NewAlertHandler()
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	taskHandler := handlers.NewTaskHandler(reminderService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	// Public GET routes
	apiRouter.HandleFunc("GET /api/auth/csrf", handlers.GetCSRFToken)
	apiRouter.HandleFunc("GET /api/auth/verify-email", userHandler.VerifyEmailHandler)
	apiRouter.HandleFunc("GET /api/auth/google/login", userHandler.HandleGoogleLogin)
	apiRouter.HandleFunc("GET /api/auth/google/callback", userHandler.HandleGoogleCallback)

	// Auth actions behind CSRF
	authActionRouter := http.NewServeMux()
	authActionRouter.HandleFunc("POST /login", userHandler.LoginUserHandler)
	authActionRouter.HandleFunc("POST /register", userHandler.RegisterUserHandler)
	authActionRouter.HandleFunc("POST /refresh", userHandler.RefreshTokenHandler)
	authActionRouter.HandleFunc("POST /logout", userHandler.AuthMiddleware(userHandler.LogoutUserHandler))
	authActionRouter.HandleFunc("POST /request-password-reset", userHandler.RequestPasswordResetHandler)
	authActionRouter.HandleFunc("POST /reset-password", userHandler.ResetPasswordHandler)

	apiRouter.Handle("/api/auth/", http.StripPrefix("/api/auth", handlers.CSRFMiddleware()(authActionRouter)))

	csrfProtection := handlers.CSRFMiddleware()
	applyCsrfAndAuth := func(handler http.HandlerFunc) http.Handler {
		return csrfProtection(http.HandlerFunc(userHandler.AuthMiddleware(handler)))
	}

	apiRouter.Handle("GET /api/user/profile", applyCsrfAndAuth(userHandler.GetProfileHandler))

	apiRouter.Handle("GET /api/accounts", applyCsrfAndAuth(accountHandler.HandleList))
	apiRouter.Handle("POST /api/accounts", applyCsrfAndAuth(accountHandler.HandleCreate))
	apiRouter.Handle("GET /api/accounts/summary", applyCsrfAndAuth(accountHandler.HandleSummary))
	apiRouter.Handle("GET /api/accounts/credit-cards/summary", applyCsrfAndAuth(accountHandler.HandleCreditCardsSummary))
	apiRouter.Handle("GET /api/accounts/{id}", applyCsrfAndAuth(accountHandler.HandleGet))
	apiRouter.Handle("PUT /api/accounts/{id}", applyCsrfAndAuth(accountHandler.HandleUpdate))
	apiRouter.Handle("DELETE /api/accounts/{id}", applyCsrfAndAuth(accountHandler.HandleDelete))
	apiRouter.Handle("GET /api/accounts/{id}/validate-delete", applyCsrfAndAuth(accountHandler.HandleValidateDelete))
	apiRouter.Handle("PUT /api/accounts/{id}/balance", applyCsrfAndAuth(accountHandler.HandleSetBalance))

	apiRouter.Handle("GET /api/transactions", applyCsrfAndAuth(transactionHandler.HandleList))
	apiRouter.Handle("POST /api/transactions", applyCsrfAndAuth(transactionHandler.HandleCreate))
	apiRouter.Handle("POST /api/transactions/bulk-delete", applyCsrfAndAuth(transactionHandler.HandleBulkDelete))
	apiRouter.Handle("GET /api/transactions/{id}", applyCsrfAndAuth(transactionHandler.HandleGet))
	apiRouter.Handle("PUT /api/transactions/{id}", applyCsrfAndAuth(transactionHandler.HandleUpdate))
	apiRouter.Handle("DELETE /api/transactions/{id}", applyCsrfAndAuth(transactionHandler.HandleDelete))
	apiRouter.Handle("POST /api/transactions/{id}/duplicate", applyCsrfAndAuth(transactionHandler.HandleDuplicate))

	apiRouter.Handle("GET /api/categories", applyCsrfAndAuth(categoryHandler.HandleList))
	apiRouter.Handle("POST /api/categories", applyCsrfAndAuth(categoryHandler.HandleCreate))
	apiRouter.Handle("POST /api/categories/defaults", applyCsrfAndAuth(categoryHandler.HandleCreateDefaults))
	apiRouter.Handle("GET /api/categories/stats", applyCsrfAndAuth(categoryHandler.HandleStats))
	apiRouter.Handle("PUT /api/categories/order", applyCsrfAndAuth(categoryHandler.HandleBulkUpdateOrder))
	apiRouter.Handle("PUT /api/categories/{id}", applyCsrfAndAuth(categoryHandler.HandleUpdate))
	apiRouter.Handle("DELETE /api/categories/{id}", applyCsrfAndAuth(categoryHandler.HandleDelete))
	apiRouter.Handle("POST /api/categories/{id}/toggle-active", applyCsrfAndAuth(categoryHandler.HandleToggleActive))

	apiRouter.Handle("GET /api/budgets", applyCsrfAndAuth(budgetHandler.HandleList))
	apiRouter.Handle("POST /api/budgets", applyCsrfAndAuth(budgetHandler.HandleCreate))
	apiRouter.Handle("GET /api/budgets/stats", applyCsrfAndAuth(budgetHandler.HandleStats))
	apiRouter.Handle("GET /api/budgets/monthly-summary", applyCsrfAndAuth(budgetHandler.HandleMonthlySummary))
	apiRouter.Handle("GET /api/budgets/categories-without-budget", applyCsrfAndAuth(budgetHandler.HandleCategoriesWithoutBudget))
	apiRouter.Handle("GET /api/budgets/{id}", applyCsrfAndAuth(budgetHandler.HandleGet))
	apiRouter.Handle("PUT /api/budgets/{id}", applyCsrfAndAuth(budgetHandler.HandleUpdate))
	apiRouter.Handle("DELETE /api/budgets/{id}", applyCsrfAndAuth(budgetHandler.HandleDelete))
	apiRouter.Handle("POST /api/budgets/{id}/toggle-active", applyCsrfAndAuth(budgetHandler.HandleToggleActive))

	apiRouter.Handle("GET /api/goals", applyCsrfAndAuth(goalHandler.HandleList))
	apiRouter.Handle("POST /api/goals", applyCsrfAndAuth(goalHandler.HandleCreate))
	apiRouter.Handle("GET /api/goals/{id}", applyCsrfAndAuth(goalHandler.HandleGet))
	apiRouter.Handle("PUT /api/goals/{id}", applyCsrfAndAuth(goalHandler.HandleUpdate))
	apiRouter.Handle("DELETE /api/goals/{id}", applyCsrfAndAuth(goalHandler.HandleDelete))

	apiRouter.Handle("GET /api/bills", applyCsrfAndAuth(billHandler.HandleList))
	apiRouter.Handle("POST /api/bills", applyCsrfAndAuth(billHandler.HandleCreate))
	apiRouter.Handle("GET /api/bills/pending", applyCsrfAndAuth(billHandler.HandlePending))
	apiRouter.Handle("GET /api/bills/overdue", applyCsrfAndAuth(billHandler.HandleOverdue))
	apiRouter.Handle("GET /api/bills/{id}", applyCsrfAndAuth(billHandler.HandleGet))
	apiRouter.Handle("PUT /api/bills/{id}", applyCsrfAndAuth(billHandler.HandleUpdate))
	apiRouter.Handle("DELETE /api/bills/{id}", applyCsrfAndAuth(billHandler.HandleDelete))
	apiRouter.Handle("POST /api/bills/{id}/pay", applyCsrfAndAuth(billHandler.HandleRegisterPayment))
	apiRouter.Handle("POST /api/bills/{id}/update-status", applyCsrfAndAuth(billHandler.HandleUpdateStatus))
	apiRouter.Handle("GET /api/bill-reminders", applyCsrfAndAuth(billHandler.HandleListReminders))
	apiRouter.Handle("POST /api/bill-reminders/read-all", applyCsrfAndAuth(billHandler.HandleMarkAllRemindersRead))
	apiRouter.Handle("POST /api/bill-reminders/{id}/read", applyCsrfAndAuth(billHandler.HandleMarkReminderRead))

	apiRouter.Handle("GET /api/vehicles", applyCsrfAndAuth(soatHandler.HandleListVehicles))
	apiRouter.Handle("POST /api/vehicles", applyCsrfAndAuth(soatHandler.HandleCreateVehicle))
	apiRouter.Handle("PUT /api/vehicles/{id}", applyCsrfAndAuth(soatHandler.HandleUpdateVehicle))
	apiRouter.Handle("DELETE /api/vehicles/{id}", applyCsrfAndAuth(soatHandler.HandleDeleteVehicle))

	apiRouter.Handle("GET /api/soats", applyCsrfAndAuth(soatHandler.HandleListSOATs))
	apiRouter.Handle("POST /api/soats", applyCsrfAndAuth(soatHandler.HandleCreateSOAT))
	apiRouter.Handle("GET /api/soats/expiring-soon", applyCsrfAndAuth(soatHandler.HandleExpiringSoon))
	apiRouter.Handle("GET /api/soats/expired", applyCsrfAndAuth(soatHandler.HandleExpired))
	apiRouter.Handle("GET /api/soats/{id}", applyCsrfAndAuth(soatHandler.HandleGetSOAT))
	apiRouter.Handle("PUT /api/soats/{id}", applyCsrfAndAuth(soatHandler.HandleUpdateSOAT))
	apiRouter.Handle("DELETE /api/soats/{id}", applyCsrfAndAuth(soatHandler.HandleDeleteSOAT))
	apiRouter.Handle("POST /api/soats/{id}/pay", applyCsrfAndAuth(soatHandler.HandleRegisterPayment))
	apiRouter.Handle("POST /api/soats/{id}/update-status", applyCsrfAndAuth(soatHandler.HandleUpdateStatus))
	apiRouter.Handle("GET /api/soat-alerts", applyCsrfAndAuth(soatHandler.HandleListAlerts))
	apiRouter.Handle("POST /api/soat-alerts/read-all", applyCsrfAndAuth(soatHandler.HandleMarkAllAlertsRead))
	apiRouter.Handle("POST /api/soat-alerts/{id}/read", applyCsrfAndAuth(soatHandler.HandleMarkAlertRead))

	apiRouter.Handle("GET /api/rules", applyCsrfAndAuth(ruleHandler.HandleList))
	apiRouter.Handle("POST /api/rules", applyCsrfAndAuth(ruleHandler.HandleCreate))
	apiRouter.Handle("POST /api/rules/preview", applyCsrfAndAuth(ruleHandler.HandlePreview))
	apiRouter.Handle("PUT /api/rules/order", applyCsrfAndAuth(ruleHandler.HandleReorder))
	apiRouter.Handle("GET /api/rules/{id}", applyCsrfAndAuth(ruleHandler.HandleGet))
	apiRouter.Handle("PUT /api/rules/{id}", applyCsrfAndAuth(ruleHandler.HandleUpdate))
	apiRouter.Handle("DELETE /api/rules/{id}", applyCsrfAndAuth(ruleHandler.HandleDelete))
	apiRouter.Handle("POST /api/rules/{id}/toggle-active", applyCsrfAndAuth(ruleHandler.HandleToggleActive))
	apiRouter.Handle("GET /api/rules/{id}/transactions", applyCsrfAndAuth(ruleHandler.HandleAppliedTransactions))

	apiRouter.Handle("GET /api/alerts", applyCsrfAndAuth(alertHandler.HandleList))
	apiRouter.Handle("POST /api/alerts/read-all", applyCsrfAndAuth(alertHandler.HandleMarkAllRead))
	apiRouter.Handle("POST /api/alerts/{id}/read", applyCsrfAndAuth(alertHandler.HandleMarkRead))
	apiRouter.Handle("DELETE /api/alerts/{id}", applyCsrfAndAuth(alertHandler.HandleDelete))

	apiRouter.Handle("GET /api/notifications", applyCsrfAndAuth(notificationHandler.HandleList))
	apiRouter.Handle("POST /api/notifications/read-all", applyCsrfAndAuth(notificationHandler.HandleMarkAllRead))
	apiRouter.Handle("POST /api/notifications/{id}/read", applyCsrfAndAuth(notificationHandler.HandleMarkRead))
	apiRouter.Handle("DELETE /api/notifications/{id}", applyCsrfAndAuth(notificationHandler.HandleDelete))
	apiRouter.Handle("GET /api/notification-preferences", applyCsrfAndAuth(notificationHandler.HandleGetPreferences))
	apiRouter.Handle("PUT /api/notification-preferences", applyCsrfAndAuth(notificationHandler.HandleUpdatePreferences))

	apiRouter.Handle("GET /api/analytics/indicators", applyCsrfAndAuth(analyticsHandler.HandleIndicators))
	apiRouter.Handle("GET /api/analytics/expenses-by-category", applyCsrfAndAuth(analyticsHandler.HandleExpensesByCategory))
	apiRouter.Handle("GET /api/analytics/daily-flow", applyCsrfAndAuth(analyticsHandler.HandleDailyFlow))
	apiRouter.Handle("GET /api/analytics/period-comparison", applyCsrfAndAuth(analyticsHandler.HandlePeriodComparison))

	apiRouter.Handle("POST /api/tasks/run-reminder-scan", applyCsrfAndAuth(taskHandler.HandleRunReminderScan))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Finanzas Backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Starting reminder scan loop", "interval", config.Cfg.ReminderScanInterval.String())
	go func() {
		reminderService.Scan()
		ticker := time.NewTicker(config.Cfg.ReminderScanInterval)
		defer ticker.Stop()
		for range ticker.C {
			reminderService.Scan()
		}
	}()

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
