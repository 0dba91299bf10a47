package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dkijas/EMPA-CELA-sub000/common/database"
	"github.com/Dkijas/EMPA-CELA-sub000/common/logger"
	commonmqtt "github.com/Dkijas/EMPA-CELA-sub000/common/mqtt"
	commonredis "github.com/Dkijas/EMPA-CELA-sub000/common/redis"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/catalog"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/config"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/events"
	httpapi "github.com/Dkijas/EMPA-CELA-sub000/internal/http"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/repository"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/scoring"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/service"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "empa-cela")
	if err != nil {
		log = zap.NewExample()
		log.Warn("logger init failed, using example logger", zap.Error(err))
	}
	defer log.Sync()

	cat, err := catalog.Default()
	if err != nil {
		log.Fatal("load area catalog", zap.Error(err))
	}
	q, err := scoring.DefaultQuestionnaire()
	if err != nil {
		log.Fatal("load questionnaire", zap.Error(err))
	}
	scheme, err := scoring.SchemeByName(cfg.Scoring.Scheme)
	if err != nil {
		log.Warn("unknown scoring scheme, using default",
			zap.String("scheme", cfg.Scoring.Scheme),
			zap.String("default", scoring.DefaultScheme),
		)
		scheme, _ = scoring.SchemeByName(scoring.DefaultScheme)
	}
	scorer, err := scoring.NewScorer(q, scheme)
	if err != nil {
		log.Fatal("build scorer", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 区域选择存储：Redis 不可用时回退内存（重启后丢失）
	var redisClient *redis.Client
	var kv store.KV = store.NewMemoryKV()
	if cfg.StoreBackend == config.StoreRedis {
		rc := commonredis.NewRedisClient(&cfg.Redis)
		if err := commonredis.Ping(ctx, rc, 3*time.Second); err != nil {
			log.Warn("redis unavailable, falling back to memory store", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = rc.Close()
		} else {
			redisClient = rc
			kv = store.NewRedisKV(rc)
			log.Info("redis store enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 评估与进展历史：DB 未就绪时使用内存 repo
	var db *sql.DB
	var assessments repository.AssessmentsRepository = repository.NewMemoryAssessmentsRepo()
	var history repository.ProgressionRepository = repository.NewMemoryProgressionRepo()
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(ctx, &cfg.Database); err != nil {
			log.Warn("DB enabled but connection failed, falling back to memory", zap.Error(err))
		} else if err := repository.EnsureSchema(ctx, d); err != nil {
			log.Warn("DB schema bootstrap failed, falling back to memory", zap.Error(err))
			_ = database.Close(d)
		} else {
			db = d
			assessments = repository.NewPostgresAssessmentsRepository(db)
			history = repository.NewPostgresProgressionRepository(db)
			log.Info("DB enabled for empa-cela")
		}
	}

	var publishers events.Multi
	if redisClient != nil && cfg.Events.Stream != "" {
		publishers = append(publishers, events.NewStreamPublisher(redisClient, cfg.Events.Stream, cfg.Events.StreamMaxLen))
	}
	var mqttClient *commonmqtt.Client
	if cfg.MQTTEnabled {
		if c, err := commonmqtt.NewClient(&cfg.MQTT); err != nil {
			log.Warn("MQTT enabled but connection failed, events will not be sent to broker", zap.Error(err))
		} else {
			mqttClient = c
			publishers = append(publishers, events.NewMQTTPublisher(c, cfg.MQTT.TopicPrefix))
		}
	}
	var publisher events.Publisher = events.Nop{}
	if len(publishers) > 0 {
		publisher = events.NewLogged(publishers, log)
	}

	svc := service.NewAssessmentService(service.Deps{
		Catalog:     cat,
		Scorer:      scorer,
		Selections:  store.NewSelectionStore(kv),
		Assessments: assessments,
		History:     history,
		Publisher:   publisher,
		Logger:      log,
		Location:    cfg.Location(),
	})

	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes(func() error {
		hctx, hcancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer hcancel()
		if redisClient != nil {
			if err := commonredis.Ping(hctx, redisClient, 2*time.Second); err != nil {
				return err
			}
		}
		if db != nil {
			return db.PingContext(hctx)
		}
		return nil
	})
	router.RegisterAssessmentRoutes(httpapi.NewAssessmentHandler(svc, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server stopped", zap.Error(err))
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if mqttClient != nil {
		mqttClient.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = database.Close(db)
	}
}
