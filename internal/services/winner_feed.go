package services

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"

	"luckydraw/internal/datastore/redis_store"
	"luckydraw/internal/models"
)

// ServiceWinnerFeed keeps the public list of recent wins. Without a redis
// client the feed is disabled and reads return nothing.
type ServiceWinnerFeed struct {
	container *do.Injector
	redisDB   redis.UniversalClient
}

func NewServiceWinnerFeed(container *do.Injector) (*ServiceWinnerFeed, error) {
	db, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	return &ServiceWinnerFeed{container, db}, nil
}

func (service *ServiceWinnerFeed) Publish(ctx context.Context, user *models.User, prize *models.Prize) error {
	if service.redisDB == nil {
		return nil
	}

	return redis_store.PushWinner(ctx, service.redisDB, &models.WinnerFeedItem{
		DisplayName: MaskName(user.DisplayName),
		Tier:        prize.Tier,
		PrizeName:   prize.PrizeName,
		WonAt:       prize.CreatedAt,
	})
}

func (service *ServiceWinnerFeed) Recent(ctx context.Context, num int) ([]*models.WinnerFeedItem, error) {
	if service.redisDB == nil {
		return []*models.WinnerFeedItem{}, nil
	}
	return redis_store.GetWinners(ctx, service.redisDB, num)
}

// MaskName keeps the first rune and hides the rest.
func MaskName(name string) string {
	runes := []rune(name)
	if len(runes) == 0 {
		return "***"
	}
	return string(runes[0]) + "***"
}
