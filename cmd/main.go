package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/keremmican/zara-bot/internal/bot"
	"github.com/keremmican/zara-bot/internal/controller"
	"github.com/keremmican/zara-bot/internal/model"
	"github.com/keremmican/zara-bot/internal/repository"
	"github.com/keremmican/zara-bot/internal/router"
	"github.com/keremmican/zara-bot/internal/service"
	"github.com/keremmican/zara-bot/internal/task"
	"github.com/keremmican/zara-bot/pkg/database"
	"github.com/keremmican/zara-bot/pkg/zara"
)

func main() {
	// 1. Load environment
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on process environment")
	}

	log.Printf("starting %s", getEnv("BOT_NAME", "zara-bot"))

	// 2. Initialize database
	db := initDatabase()

	// 3. Initialize dependencies
	deps := initDependencies(db)

	// 4. Start scheduled tasks
	initTasks(deps)

	// 5. Start the Telegram bot
	botCtx, botCancel := context.WithCancel(context.Background())
	go deps.Bot.Start(botCtx)

	// 6. Initialize routes and serve
	r := gin.Default()
	router.InitRoutes(r, deps.Controllers.Catalog, deps.Controllers.Product, deps.Controllers.Subscription)
	startServer(r)

	botCancel()
	deps.Tasks.Catalog.Stop()
	deps.Tasks.Subscription.Stop()
}

// ==================== Dependency container ====================

type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *Controllers
	Tasks       *Tasks
	Bot         *bot.Bot
}

type Repositories struct {
	Category     repository.CategoryRepository
	Product      repository.ProductRepository
	Subscription repository.SubscriptionRepository
}

type Services struct {
	Catalog      *service.CatalogService
	Product      *service.ProductService
	Subscription *service.SubscriptionService
}

type Controllers struct {
	Catalog      *controller.CatalogController
	Product      *controller.ProductController
	Subscription *controller.SubscriptionController
}

type Tasks struct {
	Catalog      *task.CatalogSyncTask
	Subscription *task.SubscriptionTask
}

// ==================== Initialization ====================

func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_DSN",
		"host=localhost user=postgres password=postgres dbname=zara_bot port=5432 sslmode=disable")
	return database.InitDB(dsn,
		// Catalog
		&model.Category{}, &model.Product{}, &model.Size{},
		// Subscriptions
		&model.Subscription{},
	)
}

func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repository layer --------
	repos := &Repositories{
		Category:     repository.NewCategoryRepository(db),
		Product:      repository.NewProductRepository(db),
		Subscription: repository.NewSubscriptionRepository(db),
	}

	// -------- Remote client --------
	client := zara.NewClient(getEnv("ZARA_BASE_URL", zara.DefaultBaseURL))

	// -------- Telegram --------
	api, err := tgbotapi.NewBotAPI(mustGetEnv("BOT_TOKEN"))
	if err != nil {
		log.Fatalf("telegram authorization failed: %v", err)
	}
	notifier := bot.NewNotifier(api)

	// -------- Business services --------
	productService := service.NewProductService(client, repos.Product)
	catalogService := service.NewCatalogService(client, repos.Category, productService)
	subscriptionService := service.NewSubscriptionService(repos.Subscription, productService, notifier)

	services := &Services{
		Catalog:      catalogService,
		Product:      productService,
		Subscription: subscriptionService,
	}

	// -------- Tasks --------
	tasks := &Tasks{
		Catalog:      task.NewCatalogSyncTask(catalogService),
		Subscription: task.NewSubscriptionTask(subscriptionService),
	}

	// -------- Controller layer --------
	controllers := &Controllers{
		Catalog:      controller.NewCatalogController(tasks.Catalog),
		Product:      controller.NewProductController(productService),
		Subscription: controller.NewSubscriptionController(subscriptionService, tasks.Subscription),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
		Tasks:       tasks,
		Bot:         bot.NewBot(api, notifier, productService, subscriptionService),
	}
}

// ==================== Scheduled tasks ====================

func initTasks(deps *Dependencies) {
	if err := deps.Tasks.Catalog.Start(); err != nil {
		log.Fatalf("catalog task failed to start: %v", err)
	}
	if err := deps.Tasks.Subscription.Start(); err != nil {
		log.Fatalf("subscription task failed to start: %v", err)
	}
	log.Println("scheduled tasks started")
}

// ==================== Server ====================

func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server exited")
}

// ==================== Helpers ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("missing required environment variable %s", key)
	}
	return value
}
