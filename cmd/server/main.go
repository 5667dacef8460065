package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"solcred/internal/account"
	"solcred/internal/audit"
	"solcred/internal/credential"
	"solcred/internal/did"
	"solcred/internal/jwtoken"
	"solcred/internal/platform/config"
	"solcred/internal/platform/httpserver"
	"solcred/internal/platform/kafka"
	"solcred/internal/platform/logger"
	"solcred/internal/platform/metrics"
	"solcred/internal/platform/postgres"
	"solcred/internal/platform/redis"
	"solcred/internal/platform/tracer"
	"solcred/internal/proofreq"
	httptransport "solcred/internal/transport/http"
	"solcred/internal/verification"
)

const auditDrainInterval = 5 * time.Second

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	trc := tracer.NewOTel()

	// Stores: postgres when configured, in-memory otherwise (dev mode).
	var (
		db        *sql.DB
		accountSt account.Store
		credSt    credential.Store
		proofSt   proofreq.Store
		verifySt  verification.Store
		auditSt   audit.Store
	)
	if cfg.PostgresURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		accountSt = account.NewPostgresStore(db)
		credSt = credential.NewPostgresStore(db)
		proofSt = proofreq.NewPostgresStore(db)
		verifySt = verification.NewPostgresStore(db)
		auditSt = audit.NewPostgresStore(db)
	} else {
		log.Warn("no postgres url configured, using in-memory stores")
		accountSt = account.NewInMemoryStore()
		credSt = credential.NewInMemoryStore()
		proofSt = proofreq.NewInMemoryStore()
		verifySt = verification.NewInMemoryStore()
		auditSt = audit.NewInMemoryStore()
	}

	auditor := audit.NewPublisher(auditSt, log)

	accounts := account.NewService(accountSt,
		account.WithLogger(log),
		account.WithMetrics(m),
		account.WithAuditPublisher(auditor),
	)
	credentials := credential.NewService(credSt, accounts,
		credential.WithLogger(log),
		credential.WithMetrics(m),
		credential.WithAuditPublisher(auditor),
		credential.WithTracer(trc),
	)
	requests := proofreq.NewService(proofSt, accounts, credentials,
		proofreq.WithLogger(log),
		proofreq.WithMetrics(m),
		proofreq.WithAuditPublisher(auditor),
		proofreq.WithTracer(trc),
	)
	verifications := verification.NewService(verifySt, accounts, credentials,
		verification.WithLogger(log),
		verification.WithMetrics(m),
		verification.WithAuditPublisher(auditor),
		verification.WithTracer(trc),
	)

	resolverOpts := []did.ResolverOption{did.WithMetrics(m), did.WithTracer(trc)}
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		if cache := did.NewRedisCache(redisClient, cfg.DIDCacheTTL, log); cache != nil {
			resolverOpts = append(resolverOpts, did.WithCache(cache))
		}
	}
	resolver := did.NewResolver(accounts, log, resolverOpts...)

	tokens := jwtoken.NewService(cfg.JWTSigningKey, "solcred")

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		Metrics:        m,
		TokenValidator: tokens,
		RequestTimeout: 30 * time.Second,
		Accounts:       httptransport.NewAccountHandler(accounts, tokens, resolver, cfg.TokenTTL),
		Credentials:    httptransport.NewCredentialHandler(credentials),
		ProofRequests:  httptransport.NewProofRequestHandler(requests),
		Verifications:  httptransport.NewVerificationHandler(verifications),
		Health: func() error {
			if db != nil {
				return db.Ping()
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting credential trust engine", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := kafka.NewPublisher(ctx, cfg.Kafka)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		if publisher != nil {
			defer publisher.Close()
			worker := audit.NewWorker(auditSt, publisher, log, auditDrainInterval)
			group.Go(func() error {
				log.Info("starting audit outbox worker", "topic", cfg.Kafka.AuditTopic)
				if err := worker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		}
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
