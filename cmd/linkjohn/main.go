package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/linkjohn/internal/cache"
	"github.com/dropDatabas3/linkjohn/internal/config"
	"github.com/dropDatabas3/linkjohn/internal/domain"
	"github.com/dropDatabas3/linkjohn/internal/domain/repository"
	"github.com/dropDatabas3/linkjohn/internal/email"
	httpserver "github.com/dropDatabas3/linkjohn/internal/http"
	healthctl "github.com/dropDatabas3/linkjohn/internal/http/controllers/health"
	reconcilectl "github.com/dropDatabas3/linkjohn/internal/http/controllers/reconcile"
	idpmemory "github.com/dropDatabas3/linkjohn/internal/idp/memory"
	idprest "github.com/dropDatabas3/linkjohn/internal/idp/rest"
	"github.com/dropDatabas3/linkjohn/internal/observability/logger"
	"github.com/dropDatabas3/linkjohn/internal/profile"
	profilememory "github.com/dropDatabas3/linkjohn/internal/profile/memory"
	profilepg "github.com/dropDatabas3/linkjohn/internal/profile/pg"
	"github.com/dropDatabas3/linkjohn/internal/providers"
	"github.com/dropDatabas3/linkjohn/internal/providers/apple"
	"github.com/dropDatabas3/linkjohn/internal/providers/facebook"
	"github.com/dropDatabas3/linkjohn/internal/providers/google"
	"github.com/dropDatabas3/linkjohn/internal/providers/microsoft"
	"github.com/dropDatabas3/linkjohn/internal/reconcile"
	"github.com/dropDatabas3/linkjohn/internal/verification"
)

// version se inyecta en build con -ldflags.
var version = "dev"

func main() {
	_ = godotenv.Load(".env")

	var cfgPath string

	root := &cobra.Command{
		Use:   "linkjohn",
		Short: "Servicio de reconciliación de identidades de cuenta",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", envOr("LINKJOHN_CONFIG", "config.yaml"), "ruta del config YAML")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfgPath)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Imprime la versión",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	root.AddCommand(serveCmd, versionCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		// tolerar config ausente: los defaults + env alcanzan en dev
		if os.IsNotExist(err) {
			cfg, err = config.Load("")
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	logEnv := "dev"
	if cfg.IsProd() || cfg.Log.Format == "json" {
		logEnv = "prod"
	}
	logger.Init(logger.Config{
		Env:         logEnv,
		Level:       cfg.Log.Level,
		ServiceName: "linkjohn",
	})
	defer func() { _ = logger.Sync() }()

	log := logger.Named("main")
	log.Info("starting",
		logger.String("version", version),
		logger.String("idp_mode", cfg.IdP.Mode),
		logger.String("profile_driver", cfg.Profile.Driver),
		logger.String("cache_driver", cfg.Cache.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// cache (backing del code store)
	kv, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Driver,
		Host:     cfg.Cache.Host,
		Port:     cfg.Cache.Port,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
		Prefix:   cfg.Cache.Prefix,
	})
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	defer func() { _ = kv.Close() }()

	codes := verification.NewStore(kv, verification.WithTTL(cfg.Verification.TTL))

	// IdP backend
	var idp repository.IdPBackend
	switch cfg.IdP.Mode {
	case "rest":
		idp, err = idprest.New(idprest.Config{
			BaseURL: cfg.IdP.BaseURL,
			APIKey:  cfg.IdP.APIKey,
			Timeout: cfg.IdP.Timeout,
		})
		if err != nil {
			return fmt.Errorf("init idp client: %w", err)
		}
	default:
		log.Warn("using in-memory idp backend, accounts are volatile")
		idp = idpmemory.New()
	}

	// profile mirror
	var (
		profileRepo repository.ProfileRepository
		pgRepo      *profilepg.Repo
	)
	switch cfg.Profile.Driver {
	case "pg":
		pgRepo, err = profilepg.New(ctx, cfg.Profile.DSN, profilepg.Config{
			MaxConns:        cfg.Profile.Pg.MaxConns,
			MinConns:        cfg.Profile.Pg.MinConns,
			ConnMaxLifetime: cfg.Profile.Pg.ConnMaxLifetime,
		})
		if err != nil {
			return fmt.Errorf("init profile pg: %w", err)
		}
		defer pgRepo.Close()
		profileRepo = pgRepo
	default:
		profileRepo = profilememory.New()
	}
	profiles := profile.NewService(profileRepo)

	// provider verifiers
	reg := providers.NewRegistry()
	reg.RegisterFactory(domain.ProviderGoogle, google.Factory)
	reg.RegisterFactory(domain.ProviderFacebook, facebook.Factory)
	reg.RegisterFactory(domain.ProviderMicrosoft, microsoft.Factory)
	reg.RegisterFactory(domain.ProviderApple, apple.Factory)

	enabled := make(map[domain.ProviderKind]providers.Config)
	for kind, pc := range map[domain.ProviderKind]config.ProviderConfig{
		domain.ProviderGoogle:    cfg.Providers.Google,
		domain.ProviderFacebook:  cfg.Providers.Facebook,
		domain.ProviderMicrosoft: cfg.Providers.Microsoft,
		domain.ProviderApple:     cfg.Providers.Apple,
	} {
		if pc.Enabled {
			enabled[kind] = providers.Config{Endpoint: pc.Endpoint, Timeout: pc.Timeout}
		}
	}
	verifiers := providers.NewSet(reg, enabled)

	// email
	var sender email.Sender = email.NopSender{}
	if cfg.SMTP.Host != "" {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			Username:           cfg.SMTP.Username,
			Password:           cfg.SMTP.Password,
			From:               cfg.SMTP.From,
			TLSMode:            cfg.SMTP.TLS,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		})
	} else {
		log.Warn("smtp not configured, verification codes are not delivered")
	}

	// core
	lookup := reconcile.NewLookup(idp, cfg.IdP.ScanPageSize, cfg.IdP.ScanPageLimit)
	merger := reconcile.NewExecutor(idp)
	service := reconcile.NewService(idp, lookup, merger, codes, profiles, sender, verifiers)

	// HTTP
	metricsHandler, err := httpserver.RegisterMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	health := healthctl.NewHealthController(version)
	health.AddComponent("cache", kv)
	if pgRepo != nil {
		health.AddComponent("profile_pg", pgRepo)
	}

	router := httpserver.NewRouter(httpserver.Controllers{
		Check:        reconcilectl.NewCheckController(service),
		Exchange:     reconcilectl.NewExchangeController(service),
		Verification: reconcilectl.NewVerificationController(service),
		Health:       health,
		Metrics:      metricsHandler,
	})
	srv := httpserver.NewServer(cfg.Server.Addr, router, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", logger.String("addr", cfg.Server.Addr))
		return srv.Start()
	})

	g.Go(func() error {
		return codes.Run(gctx, cfg.Verification.SweepInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("stopped")
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
