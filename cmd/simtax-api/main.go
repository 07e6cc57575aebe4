package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"simtax-adapter/internal/assessments"
	"simtax-adapter/internal/config"
	"simtax-adapter/internal/httpapi"
	"simtax-adapter/internal/jsonl"
	"simtax-adapter/internal/kstream"
	"simtax-adapter/internal/logger"
	"simtax-adapter/internal/metrics"
	"simtax-adapter/internal/projections"
	"simtax-adapter/internal/rejections"
	"simtax-adapter/internal/simtax"
	"simtax-adapter/internal/storage"
	"simtax-adapter/internal/syncstore"
)

// claimTTL bounds a claim left behind by a request that died between
// claiming and linking.
const claimTTL = 10 * time.Minute

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Env)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis not reachable at startup", "addr", cfg.RedisAddr, "error", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	fresh := projections.NewFreshness(rdb, cfg.SyncFreshness)
	projector := projections.NewProjector(rdb, fresh)
	readModel := assessments.NewStore(rdb, cfg.AssessmentSchema)

	syncWriter := kstream.KafkaWriter(cfg.KafkaBroker, kstream.TopicSyncRequests)
	defer syncWriter.Close()
	eventWriter := kstream.KafkaWriter(cfg.KafkaBroker, kstream.TopicObjections)
	defer eventWriter.Close()

	svc := simtax.NewService(simtax.Config{
		SourceRef:        cfg.SourceRef,
		AssessmentSchema: cfg.AssessmentSchema,
		ObjectionSchema:  cfg.ObjectionSchema,
		SyncRequired:     cfg.SyncRequired,
	}, simtax.Deps{
		Search:     readModel,
		Lookup:     readModel,
		Sync:       kstream.NewSyncRequester(syncWriter, fresh),
		Links:      syncstore.New(rdb, claimTTL),
		Store:      storage.NewObjectionStore(cfg.DataDir),
		Events:     kstream.NewEventPublisher(eventWriter),
		Rejections: rejections.NewStore(cfg.DataDir),
		Logger:     log,
		Metrics:    m,
	})

	// Start the assessment-sync consumer in the background.
	go func() {
		reader := kstream.KafkaReader(cfg.KafkaBroker, kstream.TopicAssessmentsSynced, "simtax-projections")
		defer reader.Close()

		log.Info("projections: consuming", "topic", kstream.TopicAssessmentsSynced)
		if err := kstream.Consume(ctx, reader, projector.HandleMessage, log.With("component", "projections")); err != nil {
			log.Error("projections consumer stopped", "error", err)
		}
	}()

	r := mux.NewRouter()
	httpapi.New(svc, log, cfg.MaxBodyBytes, nil).RegisterRoutes(r)
	readModel.RegisterRoutes(r)
	jsonl.NewQueryService(cfg.DataDir).RegisterRoutes(r, log)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
		defer done()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("simtax adapter listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
