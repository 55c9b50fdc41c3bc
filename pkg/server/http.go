package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Depado/ginprom"
	"github.com/chatdesk/app/api/routes"
	"github.com/chatdesk/pkg/config"
	"github.com/chatdesk/pkg/domains/auth"
	"github.com/chatdesk/pkg/domains/campaign"
	"github.com/chatdesk/pkg/domains/chat"
	"github.com/chatdesk/pkg/domains/messaging"
	"github.com/chatdesk/pkg/domains/receipt"
	"github.com/chatdesk/pkg/domains/tenant"
	"github.com/chatdesk/pkg/middleware"
	"github.com/chatdesk/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Auth      auth.Service
	Tenants   tenant.Service
	Chats     chat.Service
	Messaging messaging.Service
	Campaigns campaign.Service
	Receipts  receipt.Service
}

func NewRouter(cfg *config.Config, s Services, log zerolog.Logger) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		utils.RegisterOn(v)
	}

	app := gin.New()
	app.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	app.Use(gin.Recovery())
	app.Use(otelgin.Middleware(cfg.App.Name))
	app.Use(middleware.RequestID())
	app.Use(middleware.ClaimIp())
	app.Use(middleware.AccessLog(log))
	app.Use(cors.New(corsConfig(cfg.Allows)))

	p := ginprom.New(
		ginprom.Engine(app),
		ginprom.Subsystem("gin"),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/docs/*any"),
	)
	app.Use(p.Instrument())

	app.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := app.Group("/api/v1")
	routes.AuthRoutes(api.Group("/auth"), s.Auth)
	// Meta calls the webhook without a bearer token.
	routes.WebhookRoutes(api.Group("/webhook"), s.Messaging, cfg.WhatsApp)

	protected := api.Group("", middleware.CheckAuth(cfg.App.JWTSecret))
	routes.WhatsAppRoutes(protected.Group("/whatsapp"), s.Tenants, s.Messaging)
	routes.ChatRoutes(protected.Group("/chats"), s.Chats, s.Messaging)
	routes.CampaignRoutes(protected.Group("/campaigns"), s.Campaigns)
	routes.ReceiptRoutes(protected.Group("/receipts"), s.Receipts)

	return app
}

func corsConfig(allows config.Allows) cors.Config {
	c := cors.Config{
		AllowMethods:     allows.Methods,
		AllowHeaders:     allows.Headers,
		AllowOrigins:     allows.Origins,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(c.AllowMethods) == 0 {
		c.AllowMethods = []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete, http.MethodOptions}
	}
	if len(c.AllowHeaders) == 0 {
		c.AllowHeaders = []string{"Content-Type", "Authorization", "X-Requested-With", "Origin", "Accept", middleware.RequestIDHeader}
	}
	if len(c.AllowOrigins) == 0 {
		c.AllowOrigins = []string{"*"}
	}
	return c
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, appc config.App, handler http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(appc.Host, appc.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
