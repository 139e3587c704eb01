package redis_store

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"luckydraw/internal/models"
)

const WINNER_FEED_SIZE = 50

func dbKeyWinnerFeed() string {
	return "draw:winner_feed"
}

func PushWinner(ctx context.Context, cmd redis.Cmdable, v *models.WinnerFeedItem) error {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}

	_, err = cmd.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, dbKeyWinnerFeed(), b)
		pipe.LTrim(ctx, dbKeyWinnerFeed(), 0, WINNER_FEED_SIZE-1)
		return nil
	})
	return err
}

func GetWinners(ctx context.Context, cmd redis.Cmdable, num int) ([]*models.WinnerFeedItem, error) {
	if num <= 0 || num > WINNER_FEED_SIZE {
		num = WINNER_FEED_SIZE
	}

	items, err := cmd.LRange(ctx, dbKeyWinnerFeed(), 0, int64(num-1)).Result()
	if err != nil {
		return nil, err
	}

	results := make([]*models.WinnerFeedItem, 0, len(items))
	for _, item := range items {
		var v models.WinnerFeedItem
		if err := msgpack.Unmarshal([]byte(item), &v); err != nil {
			// skip entries written by an older layout
			continue
		}
		results = append(results, &v)
	}

	return results, nil
}
