package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"bankfsm.org/internal/account"
	"bankfsm.org/internal/auth"
	"bankfsm.org/internal/config"
	"bankfsm.org/internal/httpapi"
	"bankfsm.org/internal/journal"
	"bankfsm.org/internal/migrate"
	"bankfsm.org/internal/obs"
	"bankfsm.org/internal/store/pg"
	"bankfsm.org/internal/stream"
	"bankfsm.org/internal/teller"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	log := obs.Logger()
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}
	if err := obs.SetLevel(cfg.LogLevel); err != nil {
		log.Fatal("log level", zap.String("level", cfg.LogLevel), zap.Error(err))
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Журнал: PostgreSQL, если задан DSN, иначе в памяти.
	var (
		jr    journal.Journal = journal.NewInMemory()
		probe httpapi.ReadyProbe
		store *pg.Store
	)
	if cfg.DatabaseURL != "" {
		store, err = pg.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("open db", zap.Error(err))
		}
		mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		applied, err := migrate.NewManager(store.DB(), pg.Migrations, migrate.WithDir("migrations")).Up(mctx)
		cancel()
		if err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
		if len(applied) > 0 {
			log.Info("migrations applied", zap.Strings("names", applied))
		}
		jr = store
		probe = httpapi.ReadyProbe{DB: store.DB()}
	}

	var (
		tokens *auth.Tokens
		creds  *auth.Credentials
	)
	if cfg.AuthEnabled() {
		tokens, err = auth.NewTokens(cfg.AuthSecret)
		if err != nil {
			log.Fatal("auth", zap.Error(err))
		}
		creds, err = auth.NewCredentials(cfg.AdminUser, cfg.AdminPassHash)
		if err != nil {
			log.Fatal("admin credentials", zap.Error(err))
		}
	} else {
		log.Warn("BANK_AUTH_SECRET is empty; account actions are not authenticated")
	}

	events := stream.New()
	opts := []teller.Option{teller.WithLogger(log), teller.WithPublisher(events)}
	if cfg.EnforceLimits {
		opts = append(opts, teller.WithLimits(account.DefaultLimits()))
	}
	tl := teller.New(jr, opts...)

	api := httpapi.New(probe, version, tl, events, tokens)
	api.SetCredentials(creds)
	api.SetRateLimit(cfg.RateBurst, cfg.RatePerSec)

	httpSrv := httpapi.NewServer(cfg.HTTPAddr, api.Handler())

	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(httpapi.UnaryLogger, httpapi.UnaryAuth(tokens)))
	httpapi.NewGRPCServer(probe, version, tl).Register(grpcSrv)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatal("grpc listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	log.Info("starting bankfsm-api",
		zap.String("version", version),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("grpc_addr", cfg.GRPCAddr),
		zap.Bool("postgres", store != nil),
		zap.Bool("auth", tokens != nil),
		zap.Bool("limits", cfg.EnforceLimits),
	)
	obs.SetReady(true)

	errc := make(chan error, 2)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	go func() {
		if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		log.Error("server failed", zap.Error(err))
	}

	log.Info("shutting down")
	obs.SetReady(false)

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	grpcSrv.GracefulStop()
	if store != nil {
		_ = store.Close()
	}
	log.Info("stopped")
}
