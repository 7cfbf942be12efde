package routes

import (
	"os"
	"time"

	adminapi "coachmarket/internal/api/admin"
	authapi "coachmarket/internal/api/auth"
	"coachmarket/internal/api/billing"
	freezeapi "coachmarket/internal/api/freeze"
	packagesapi "coachmarket/internal/api/packages"
	stripewebhooks "coachmarket/internal/api/stripewebhook"
	trainersapi "coachmarket/internal/api/trainers"
	"coachmarket/internal/api/users"
	"coachmarket/internal/app/http/middleware"

	"coachmarket/config"
	"coachmarket/database"
	"coachmarket/internal/billing/dunning"
	billingfreeze "coachmarket/internal/billing/freeze"
	"coachmarket/internal/infra/accesscache"
	"coachmarket/internal/infra/email"
	"coachmarket/internal/infra/stripeapi"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func RegisterRoutes(r *gin.Engine) {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	stripeClient := stripeapi.NewClient()
	mailer := email.NewSMTPMailer()

	dunningManager := dunning.NewManager(database.DB, mailer, dunning.Config{
		GracePeriod:      config.GracePeriod(),
		MaxRetries:       config.MAX_PAYMENT_RETRIES,
		UpdatePaymentURL: config.APP_URL + "/account/billing",
	}, log.With().Str("component", "dunning").Logger())

	freezeService := billingfreeze.NewService(database.DB, stripeClient, billingfreeze.Config{
		MinDaysPerPause: config.MIN_DAYS_PER_PAUSE,
		MaxDaysPerPause: config.MAX_DAYS_PER_PAUSE,
		MaxDaysPerYear:  config.MAX_DAYS_PER_YEAR,
		FirstMonthDays:  config.FIRST_MONTH_DAYS,
	}, log.With().Str("component", "freeze").Logger())

	webhookHandler := stripewebhooks.NewHandler(database.DB, stripeClient, dunningManager,
		log.With().Str("component", "webhook").Logger())
	freezeHandler := freezeapi.NewHandler(freezeService)

	trainersapi.AccessCache = accesscache.New(
		config.REDIS_ADDR, config.REDIS_PASSWORD, 5*time.Minute,
		log.With().Str("component", "accesscache").Logger())

	r.POST("/webhook", webhookHandler.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.POST("/register", authapi.Register)
	public.POST("/login", authapi.Login)
	public.GET("/packages", packagesapi.ListPackages)
	public.GET("/verify", users.VerifyEmail)
	public.POST("/resend-verification", authapi.ResendVerification)
	public.POST("/request-password-reset", authapi.RequestPasswordReset)
	public.POST("/reset-password", authapi.ResetPassword)

	public.GET("/auth/google", authapi.GoogleStart)
	public.GET("/auth/google/callback", authapi.GoogleCallback)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware())
	auth.GET("/me", users.GetCurrentUser)
	auth.GET("/payments", billing.GetPaymentHistory)
	auth.POST("/create-checkout-session", billing.CreateCheckoutSession)
	auth.POST("/billing-portal", billing.CreateBillingPortal)
	auth.POST("/cancel-subscription", billing.CancelSubscription)
	auth.POST("/change-password", authapi.ChangePassword)

	// Subscribed users
	subscribed := auth.Group("/")
	subscribed.Use(middleware.RequireActiveSubscription())
	subscribed.GET("/freeze/eligibility", freezeHandler.GetEligibility)
	subscribed.POST("/freeze", freezeHandler.Pause)
	subscribed.POST("/freeze/resume", freezeHandler.Resume)

	// Trainer routes
	trainer := r.Group("/trainer")
	trainer.Use(middleware.AuthMiddleware(), middleware.RequireRole(trainerRole))
	trainer.GET("/payout-destination", trainersapi.GetPayoutDestination)
	trainer.GET("/clients", trainersapi.ListClients)
	trainer.GET("/clients/:id", trainersapi.GetClient)
	trainer.POST("/clients", trainersapi.AddClient)
	trainer.DELETE("/clients/:id", trainersapi.RemoveClient)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin"))
	admin.GET("/dashboard", adminapi.AdminDashboard)
	admin.GET("/users", adminapi.ListAllUsers)
	admin.GET("/payments", adminapi.ListAllPayments)
	admin.GET("/subscriptions", adminapi.ListAllSubscriptions)
	admin.POST("/sync-packages", packagesapi.SyncPackagesFromStripe)
}

const trainerRole = "trainer"
