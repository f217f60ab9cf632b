package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pawcare/vetsched/libs/config"
	"github.com/pawcare/vetsched/libs/db"
	"github.com/pawcare/vetsched/libs/httpx"
	"github.com/pawcare/vetsched/libs/kafkax"
	otelx "github.com/pawcare/vetsched/libs/otel"
	"github.com/pawcare/vetsched/libs/runtime"
	"github.com/pawcare/vetsched/services/schedule-service/internal/consumer"
	"github.com/pawcare/vetsched/services/schedule-service/internal/handlers"
	"github.com/pawcare/vetsched/services/schedule-service/internal/inbox"
	"github.com/pawcare/vetsched/services/schedule-service/internal/model"
	"github.com/pawcare/vetsched/services/schedule-service/internal/outbox"
	"github.com/pawcare/vetsched/services/schedule-service/internal/schedule"
	"github.com/pawcare/vetsched/services/schedule-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func main() {
	service := config.String("SERVICE_NAME", "schedule-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	clinicTZ := config.String("CLINIC_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(clinicTZ)
	if err != nil {
		logger.Error("invalid clinic timezone, falling back to UTC", "tz", clinicTZ, "err", err)
		loc = time.UTC
	}

	outboxRepo := outbox.NewRepository(pool)
	repo := storage.NewRepository(pool, outboxRepo)
	svc := schedule.NewService(repo, loc, logger)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	inboxRepo := inbox.NewRepository(pool)
	registeredTopic := config.String("KAFKA_VET_REGISTERED_TOPIC", "clinic.vet.registered.v1")
	deactivatedTopic := config.String("KAFKA_VET_DEACTIVATED_TOPIC", "clinic.vet.deactivated.v1")
	startConsumer := func(topic string) {
		if strings.TrimSpace(topic) == "" {
			return
		}
		consumerCfg := consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "schedule-service"),
			Topic:   topic,
		}
		eventConsumer := consumer.New(logger, inboxRepo, consumerCfg, func(ctx context.Context, msg kafka.Message) error {
			// The vet directory is a read model fed from clinic events; schedule
			// validation only needs identity and the active flag.
			var payload struct {
				VetUserID      string `json:"vet_user_id"`
				DisplayName    string `json:"display_name"`
				Email          string `json:"email"`
				Specialisation string `json:"specialisation"`
			}
			if err := json.Unmarshal(msg.Value, &payload); err != nil {
				logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
				return nil
			}
			if payload.VetUserID == "" {
				logger.Error("missing vet_user_id in event", "topic", msg.Topic)
				return nil
			}
			if msg.Topic == deactivatedTopic {
				return repo.SetVetActive(ctx, payload.VetUserID, false)
			}
			return repo.UpsertVet(ctx, model.Vet{
				VetUserID:      payload.VetUserID,
				DisplayName:    payload.DisplayName,
				Email:          payload.Email,
				Specialisation: payload.Specialisation,
				IsActive:       true,
			})
		})
		go eventConsumer.Run(ctx)
	}
	startConsumer(registeredTopic)
	startConsumer(deactivatedTopic)

	scheduleHandler := handlers.NewScheduleHandler(svc, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	scheduleHandler.Register(mux)

	bodyLimit := int64(1 << 20)
	if v, err := strconv.Atoi(config.String("BODY_LIMIT_BYTES", "")); err == nil && v > 0 {
		bodyLimit = int64(v)
	}
	requestTimeout := 10 * time.Second
	if v, err := strconv.Atoi(config.String("REQUEST_TIMEOUT_SECONDS", "10")); err == nil && v > 0 {
		requestTimeout = time.Duration(v) * time.Second
	}
	limitPerMinute := 120
	if v, err := strconv.Atoi(config.String("RATE_LIMIT_PER_MINUTE", "120")); err == nil && v > 0 {
		limitPerMinute = v
	}

	var rateLimitMW httpx.Middleware
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		redisDB := 0
		if v, err := strconv.Atoi(config.String("REDIS_DB", "0")); err == nil && v >= 0 {
			redisDB = v
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       redisDB,
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimitMW = rl.Middleware(logger, isTruthy(config.String("RATE_LIMIT_FAIL_OPEN", "true")))
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: parseList(config.String("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS")),
			AllowedHeaders: parseList(config.String("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id")),
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(bodyLimit),
		httpx.WithTimeout(requestTimeout),
		rateLimitMW,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "schedule")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "clinic_tz", loc.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
