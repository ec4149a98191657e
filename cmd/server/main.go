// server runs the onboarding HTTP API and the gRPC health endpoint.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"linkerai/backend/internal/audit"
	auditrepo "linkerai/backend/internal/audit/repository"
	"linkerai/backend/internal/config"
	"linkerai/backend/internal/db"
	healthhandler "linkerai/backend/internal/health/handler"
	"linkerai/backend/internal/identity"
	"linkerai/backend/internal/identity/firebase"
	identityrepo "linkerai/backend/internal/identity/repository"
	"linkerai/backend/internal/invalidation"
	"linkerai/backend/internal/logger"
	"linkerai/backend/internal/policy/engine"
	profilehandler "linkerai/backend/internal/profile/handler"
	profilerepo "linkerai/backend/internal/profile/repository"
	"linkerai/backend/internal/profile/service"
	"linkerai/backend/internal/security"
	"linkerai/backend/internal/server"
	"linkerai/backend/internal/telemetry"
	otelsetup "linkerai/backend/internal/telemetry/otel"
	"linkerai/backend/internal/telemetry/producer"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.Must(cfg.LogLevel, cfg.IsDevelopment())
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer conn.Close()

	providers, err := otelsetup.NewProviders(ctx, otelsetup.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()

	module, err := engine.LoadPolicyFile(cfg.PolicyFile)
	if err != nil {
		return err
	}
	policy, err := engine.NewOPAEvaluator(ctx, module)
	if err != nil {
		return err
	}

	source, authn, err := identityProvider(ctx, cfg, conn)
	if err != nil {
		return err
	}
	log.Info("identity provider ready", zap.String("provider", cfg.IdentityProvider))

	auditRepo := auditrepo.NewPostgresRepository(conn)
	auditLogger := audit.NewLogger(auditRepo, server.ClientIP, log)

	publisher, closePublisher := invalidationPublisher(cfg, log)
	defer closePublisher()

	kafkaTelemetry, err := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.TelemetryTopic)
	if err != nil {
		return fmt.Errorf("telemetry producer: %w", err)
	}
	emitter := telemetry.MultiEmitter{otelsetup.NewEventEmitter(providers.LoggerProvider)}
	if kafkaTelemetry != nil {
		emitter = append(emitter, kafkaTelemetry)
		defer kafkaTelemetry.Close()
	}

	deps := service.Deps{
		Profiles:   profilerepo.NewPostgresRepository(conn),
		Identities: source,
		Policy:     policy,
		Audit:      auditLogger,
		Publisher:  publisher,
		Telemetry:  emitter,
		Activity:   auditRepo,
		Logger:     log,
	}
	onboarding := profilehandler.New(service.NewResolver(deps), service.NewWriter(deps), service.NewReader(deps), log)
	health := healthhandler.NewServer(conn, policy)

	httpSrv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: server.NewRouter(server.Deps{
			Onboarding:     onboarding,
			Authenticator:  authn,
			Health:         health,
			Audit:          auditLogger,
			Telemetry:      emitter,
			AllowedOrigins: cfg.AllowedOrigins(),
			Timeout:        cfg.Timeout(),
			Logger:         log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	var grpcSrv *grpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcSrv = server.NewGRPCServer(health, log)
		go func() {
			log.Info("grpc health server listening", zap.String("addr", cfg.GRPCAddr))
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case runErr = <-errCh:
		log.Error("server failed, shutting down", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	// In-flight async telemetry emits finish before the providers flush.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn("otel shutdown", zap.Error(err))
	}
	log.Info("server stopped")
	return runErr
}

// identityProvider returns the identity source and authenticator selected by IDENTITY_PROVIDER.
func identityProvider(ctx context.Context, cfg *config.Config, conn *sql.DB) (identity.Source, identity.Authenticator, error) {
	if cfg.IdentityProvider == config.IdentityProviderFirebase {
		client, err := firebase.NewAuthClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsJSON)
		if err != nil {
			return nil, nil, err
		}
		p := firebase.NewProvider(client)
		return p, p, nil
	}
	tokens, err := security.LoadTokenProvider(cfg.JWTPrivateKey, cfg.JWTPublicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	if err != nil {
		return nil, nil, fmt.Errorf("local identity provider needs JWT_PUBLIC_KEY: %w", err)
	}
	return identity.NewLocalSource(identityrepo.NewPostgresRepository(conn)), identity.NewTokenAuthenticator(tokens), nil
}

// invalidationPublisher fans signals out to Redis and Kafka when configured.
func invalidationPublisher(cfg *config.Config, log *zap.Logger) (invalidation.Publisher, func()) {
	var (
		fanout  invalidation.Fanout
		closers []func() error
	)
	if addrs := cfg.RedisAddrs(); len(addrs) > 0 {
		client := invalidation.NewRedisClient(addrs, cfg.RedisPassword)
		fanout = append(fanout, invalidation.NewRedisPublisher(client, cfg.CacheKeyPrefix))
		closers = append(closers, client.Close)
		log.Info("redis view invalidation enabled", zap.Strings("addrs", addrs))
	}
	if kp := invalidation.NewKafkaPublisher(cfg.KafkaBrokersList(), cfg.ProfileEventsTopic); kp != nil {
		fanout = append(fanout, kp)
		closers = append(closers, kp.Close)
		log.Info("kafka profile events enabled", zap.String("topic", cfg.ProfileEventsTopic))
	}
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn("close invalidation publisher", zap.Error(err))
			}
		}
	}
	if len(fanout) == 0 {
		return invalidation.Noop{}, closeAll
	}
	return fanout, closeAll
}
