package models

import (
	"time"

	"github.com/uptrace/bun"

	"luckydraw/internal/pkg/calendar"
)

type Prize struct {
	bun.BaseModel  `bun:"table:prize,alias:p"`
	ID             int64        `bun:"id,pk,autoincrement" json:"id"`
	UserID         int64        `bun:"user_id,notnull" json:"user_id"`
	ExternalUserID string       `bun:"external_user_id,notnull" json:"external_user_id"`
	Tier           string       `bun:"tier,notnull" json:"tier"`
	PrizeName      string       `bun:"prize_name" json:"prize_name"`
	CouponCode     string       `bun:"coupon_code,notnull" json:"coupon_code"`
	PrizeDate      calendar.Day `bun:"prize_date,type:varchar(10),notnull" json:"prize_date"`
	CreatedAt      time.Time    `bun:"created_at,notnull" json:"created_at"`
	ExpiresAt      time.Time    `bun:"expires_at,notnull" json:"expires_at"`
	IsUsed         bool         `bun:"is_used,notnull,default:false" json:"is_used"`
	IsCopied       bool         `bun:"is_copied,notnull,default:false" json:"is_copied"`
}

type TierCount struct {
	Tier  string `bun:"tier" json:"tier"`
	Count int    `bun:"count" json:"count"`
}

type PrizeStats struct {
	TotalUsers  int         `json:"total_users"`
	TotalDraws  int         `json:"total_draws"`
	TotalPrizes int         `json:"total_prizes"`
	ByTier      []TierCount `json:"by_tier"`
}

// WinnerFeedItem is what the public recent-winners list shows.
type WinnerFeedItem struct {
	DisplayName string    `msgpack:"n" json:"display_name"`
	Tier        string    `msgpack:"t" json:"tier"`
	PrizeName   string    `msgpack:"p" json:"prize_name"`
	WonAt       time.Time `msgpack:"w" json:"won_at"`
}
