package main

import (
	"fmt"
	"myfund/internal/codec"
	"myfund/internal/config"
	"myfund/internal/database"
	"myfund/internal/handlers"
	"myfund/internal/logger"
	"myfund/internal/middleware"
	"myfund/internal/services"
	"myfund/internal/validator"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           MyFund API
// @version         1.0
// @description     MyFund is a personal finance application for tracking budgets, expenses, and incomes, with bank statement imports.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Configure at-rest encryption of free-text columns
	if err := codec.Init(appConfig.FieldKey); err != nil {
		return fmt.Errorf("failed to configure field encryption: %w", err)
	}
	if !codec.Enabled() {
		log.Warn("FIELD_ENCRYPTION_KEY not set; names are stored as plaintext")
	}

	// Register custom binding validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	categoryService := services.NewCategoryService(db)
	budgetService := services.NewBudgetService(db, categoryService)
	userService := services.NewUserService(db, budgetService)
	statementService := services.NewStatementService(budgetService)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, statementService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	transactionHandler := handlers.NewTransactionHandler(budgetService, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Budget routes
	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.POST("/:id/statements", budgetHandler.ImportStatement)

	// Transactions within a budget
	budgets.POST("/:id/expenses", transactionHandler.CreateExpense)
	budgets.GET("/:id/expenses", transactionHandler.GetExpenses)
	budgets.POST("/:id/incomes", transactionHandler.CreateIncome)
	budgets.GET("/:id/incomes", transactionHandler.GetIncomes)

	// Aggregates
	budgets.GET("/:id/expenses/summary", budgetHandler.GetExpensesSummary)
	budgets.GET("/:id/expenses/categories/:category_id/total", budgetHandler.GetExpensesByCategory)
	budgets.GET("/:id/expenses/subcategories/:subcategory_id/total", budgetHandler.GetExpensesBySubCategory)
	budgets.GET("/:id/incomes/categories/:category_id/total", budgetHandler.GetIncomesByCategory)
	budgets.GET("/:id/incomes/subcategories/:subcategory_id/total", budgetHandler.GetIncomesBySubCategory)

	// Transaction routes
	expenses := protected.Group("/expenses")
	expenses.PUT("/:id", transactionHandler.UpdateExpense)
	expenses.DELETE("/:id", transactionHandler.DeleteExpense)

	incomes := protected.Group("/incomes")
	incomes.PUT("/:id", transactionHandler.UpdateIncome)
	incomes.DELETE("/:id", transactionHandler.DeleteIncome)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)
	categories.DELETE("/:id/subcategories/:subcategory_id", categoryHandler.DeleteSubCategory)

	log.Infof("Starting MyFund backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
