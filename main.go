package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hossamsharif/shopledger/backend/src/config"
	"github.com/hossamsharif/shopledger/backend/src/database"
	"github.com/hossamsharif/shopledger/backend/src/handlers"
	"github.com/hossamsharif/shopledger/backend/src/logger"
	"github.com/hossamsharif/shopledger/backend/src/security"
	"github.com/hossamsharif/shopledger/backend/src/services"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

func rateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == config.Cfg.FrontendBaseURL {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("ShopLedger backend server starting...")

	if len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	reportCache := cache.New(config.Cfg.ProfitCacheExpiry, 2*config.Cfg.ProfitCacheExpiry)

	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)

	profitService := services.NewProfitService(reportCache)
	yearService := services.NewFinancialYearService(profitService)
	transactionService := services.NewTransactionService(yearService, profitService)
	accountService := services.NewAccountService(config.Cfg.MaxAccountDepth)
	categoryService := services.NewCategoryService(config.Cfg.MaxAccountDepth)
	balanceService := services.NewBalanceService()
	shopService := services.NewShopService()

	shopHandler := handlers.NewShopHandler(shopService, accountService)
	accountHandler := handlers.NewAccountHandler(accountService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	balanceHandler := handlers.NewBalanceHandler(balanceService)
	yearHandler := handlers.NewFinancialYearHandler(yearService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	profitHandler := handlers.NewProfitHandler(profitService)

	authMiddleware := handlers.NewAuthMiddleware(authService)
	limiter := rate.NewLimiter(rate.Every(config.Cfg.RateLimitInterval), config.Cfg.RateLimitBurst)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware(limiter))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "ShopLedger Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Post("/shops", shopHandler.HandleCreateShop)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)

			r.Get("/shop", shopHandler.HandleGetShop)

			r.Post("/accounts", accountHandler.HandleCreateAccount)
			r.Get("/accounts", accountHandler.HandleListAccounts)
			r.Get("/accounts/tree", accountHandler.HandleAccountTree)
			r.Get("/accounts/validate", accountHandler.HandleValidateHierarchy)
			r.Get("/accounts/{id}", accountHandler.HandleGetAccount)
			r.Put("/accounts/{id}", accountHandler.HandleUpdateAccount)
			r.Delete("/accounts/{id}", accountHandler.HandleDeleteAccount)

			r.Post("/categories", categoryHandler.HandleCreateCategory)
			r.Get("/categories", categoryHandler.HandleListCategories)
			r.Get("/categories/tree", categoryHandler.HandleCategoryTree)
			r.Post("/categories/bulk-import", categoryHandler.HandleBulkImport)
			r.Put("/categories/{id}", categoryHandler.HandleUpdateCategory)
			r.Delete("/categories/{id}", categoryHandler.HandleDeleteCategory)
			r.Post("/categories/{id}/accounts", categoryHandler.HandleAssignAccount)
			r.Get("/categories/{id}/accounts", categoryHandler.HandleListAssignments)
			r.Delete("/categories/{id}/accounts/{accountID}", categoryHandler.HandleUnassignAccount)

			r.Post("/balances/cash", balanceHandler.HandleCreateCashAccount)
			r.Get("/balances/cash", balanceHandler.HandleListCashAccounts)
			r.Post("/balances/bank", balanceHandler.HandleCreateBankAccount)
			r.Get("/balances/bank", balanceHandler.HandleListBankAccounts)
			r.Put("/balances/{id}", balanceHandler.HandleUpdateBalance)
			r.Post("/balances/{id}/default", balanceHandler.HandleSetDefault)
			r.Get("/balances/history", balanceHandler.HandleListBalanceHistory)

			r.Post("/years", yearHandler.HandleCreateYear)
			r.Get("/years", yearHandler.HandleListYears)
			r.Get("/years/{id}", yearHandler.HandleGetYear)
			r.Put("/years/{id}", yearHandler.HandleUpdateYear)
			r.Post("/years/{id}/current", yearHandler.HandleSetCurrentYear)
			r.Put("/years/{id}/opening-stock", yearHandler.HandleUpdateOpeningStock)
			r.Put("/years/{id}/closing-stock", yearHandler.HandleUpdateClosingStock)
			r.Put("/years/stock-values", yearHandler.HandleBulkUpdateStockValues)
			r.Post("/years/{id}/close", yearHandler.HandleCloseYear)
			r.Delete("/years/{id}", yearHandler.HandleDeleteYear)
			r.Get("/years/{id}/stock-history", yearHandler.HandleListStockValueHistory)

			r.Post("/transactions", transactionHandler.HandleCreateTransaction)
			r.Get("/transactions", transactionHandler.HandleListTransactions)
			r.Get("/transactions/{id}", transactionHandler.HandleGetTransaction)
			r.Delete("/transactions/{id}", transactionHandler.HandleDeleteTransaction)

			r.Get("/profit/years/{yearID}", profitHandler.HandleYearProfit)
			r.Get("/profit/summary", profitHandler.HandleShopProfits)
			r.Get("/profit/compare/{currentYearID}/{previousYearID}", profitHandler.HandleCompareProfits)
			r.Post("/profit/years/{yearID}/validate-closure", profitHandler.HandleValidateClosure)
			r.Get("/profit/trends", profitHandler.HandleProfitTrends)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
