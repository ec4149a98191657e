// Worker consumes the onboarding Kafka topics: profile-change signals are applied to the Redis view
// cache and telemetry events are pushed to Loki. Set KAFKA_BROKERS, plus REDIS_ADDR and/or LOKI_URL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"linkerai/backend/internal/config"
	"linkerai/backend/internal/invalidation"
	"linkerai/backend/internal/logger"
	"linkerai/backend/internal/telemetry/loki"
)

// handleTimeout bounds the processing of one message.
const handleTimeout = 10 * time.Second

type handlerFunc func(ctx context.Context, raw []byte) error

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.Must(cfg.LogLevel, cfg.IsDevelopment())
	defer func() { _ = log.Sync() }()

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumers := map[string]handlerFunc{}
	if addrs := cfg.RedisAddrs(); len(addrs) > 0 {
		client := invalidation.NewRedisClient(addrs, cfg.RedisPassword)
		defer client.Close()
		consumers[cfg.ProfileEventsTopic] = invalidation.NewRedisPublisher(client, cfg.CacheKeyPrefix).HandleMessage
	}
	if cfg.LokiURL != "" {
		lc, err := loki.NewClient(cfg.LokiURL, cfg.ServiceName, nil)
		if err != nil {
			log.Fatal("worker: loki client", zap.Error(err))
		}
		consumers[cfg.TelemetryTopic] = lc.PushEventJSON
	}
	if len(consumers) == 0 {
		log.Fatal("worker: nothing to do; set REDIS_ADDR and/or LOKI_URL")
	}

	var wg sync.WaitGroup
	for topic, handle := range consumers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			consume(ctx, brokers, topic, cfg.KafkaGroupID, handle, log)
		}()
	}
	wg.Wait()
	log.Info("worker: stopped")
}

func consume(ctx context.Context, brokers []string, topic, groupID string, handle handlerFunc, log *zap.Logger) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID + "-" + topic,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	log = log.With(zap.String("topic", topic))
	log.Info("worker: consuming", zap.String("group", groupID+"-"+topic))

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("worker: kafka read error", zap.Error(err))
			continue
		}
		hctx, cancel := context.WithTimeout(ctx, handleTimeout)
		if err := handle(hctx, msg.Value); err != nil {
			log.Warn("worker: handle message failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
		cancel()
	}
}
