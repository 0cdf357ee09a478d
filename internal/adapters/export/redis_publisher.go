package export

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/bowers/nest-simulator/internal/domain"
	"github.com/bowers/nest-simulator/internal/ports"
)

const historyLimit = 1000

// RedisPublisher pushes materialized datasets to a Redis pub/sub channel and
// keeps a capped per-device history list as a backup for late consumers.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	log     *logrus.Logger
}

func NewRedisPublisher(addr, password, channel string, db int, log *logrus.Logger) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	if log == nil {
		log = logrus.New()
	}
	log.WithField("addr", addr).Info("redis connected")

	return &RedisPublisher{client: client, channel: channel, log: log}, nil
}

func (p *RedisPublisher) Name() string { return "redis" }

func (p *RedisPublisher) Export(ds *domain.Dataset) error {
	if ds == nil {
		return nil
	}

	payload, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}

	ctx := context.Background()
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish dataset: %w", err)
	}

	listKey := fmt.Sprintf("probe:%s:datasets", ds.DeviceID)
	if err := p.client.LPush(ctx, listKey, payload).Err(); err != nil {
		p.log.WithError(err).Warn("dataset history push failed")
		return nil
	}
	if err := p.client.LTrim(ctx, listKey, 0, historyLimit-1).Err(); err != nil {
		p.log.WithError(err).Warn("dataset history trim failed")
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

var _ ports.Exporter = (*RedisPublisher)(nil)
