package connection

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"projectboard/config"
	authController "projectboard/controller/auth"
	projectController "projectboard/controller/project"
	taskController "projectboard/controller/task"
	userController "projectboard/controller/user"
	"projectboard/logging"
	"projectboard/services"
)

const shutdownTimeout = 10 * time.Second

type Deps struct {
	Config   *config.Config
	Session  *services.Session
	Projects *services.ProjectService
	Users    *services.UserService
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logging.RequestLogger())
	router.Use(cors.New(corsConfig(d.Config.CORSAllowedOrigins)))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Api is running!"})
	})

	authController.AuthController(router, d.Session)
	userController.UserController(router, d.Session, d.Users)
	projectController.ProjectController(router, d.Session, d.Projects)
	taskController.TaskController(router, d.Session, d.Projects)
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Build wires the store, identity provider and services from cfg. The
// returned cleanup releases every client.
func Build(ctx context.Context, cfg *config.Config) (Deps, func(), error) {
	fb, err := FBConnection(ctx, cfg, cfg.StoreDriver == config.DriverFirestore)
	if err != nil {
		return Deps{}, nil, err
	}
	store, err := OpenStore(ctx, cfg, fb)
	if err != nil {
		return Deps{}, nil, err
	}

	var captcha services.CaptchaVerifier
	if cfg.CaptchaEnabled() {
		verifier, err := services.NewRecaptchaVerifier(ctx, services.RecaptchaConfig{
			ProjectID:       cfg.RecaptchaProjectID,
			SiteKey:         cfg.RecaptchaSiteKey,
			CredentialsFile: cfg.RecaptchaCredentialsFile,
			MinScore:        cfg.RecaptchaMinScore,
		})
		if err != nil {
			_ = store.Close(context.Background())
			return Deps{}, nil, err
		}
		captcha = verifier
	}

	tokens := services.NewTokenService(services.TokenConfig{
		AccessSecret:  []byte(cfg.JWTSecret),
		RefreshSecret: []byte(cfg.JWTRefreshSecret),
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	session := services.NewSession(services.NewFirebaseVerifier(fb.Auth), store, captcha, tokens)

	deps := Deps{
		Config:   cfg,
		Session:  session,
		Projects: services.NewProjectService(store, nil),
		Users:    services.NewUserService(store),
	}
	cleanup := func() {
		if err := session.Close(); err != nil {
			logging.Logger.Warnf("Event ID: CAPTCHA_CLOSE_FAILED, Description: %v", err)
		}
		if err := store.Close(context.Background()); err != nil {
			logging.Logger.Warnf("Event ID: STORE_CLOSE_FAILED, Description: %v", err)
		}
	}
	return deps, cleanup, nil
}

// StartServer serves until ctx is cancelled, then drains connections.
func StartServer(ctx context.Context, cfg *config.Config) error {
	gin.SetMode(cfg.GinMode)

	deps, cleanup, err := Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// Live streams hang off base and end when shutdown starts.
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	srv.RegisterOnShutdown(cancelBase)

	errCh := make(chan error, 1)
	go func() {
		logging.Logger.Infof("Event ID: SERVER_STARTED, Description: Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Logger.Info("Event ID: SERVER_SHUTDOWN, Description: Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
