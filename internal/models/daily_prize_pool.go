package models

import (
	"time"

	"github.com/uptrace/bun"

	"luckydraw/internal/pkg/calendar"
)

type DailyPrizePool struct {
	bun.BaseModel `bun:"table:daily_prize_pool,alias:dpp"`
	ID            int64        `bun:"id,pk,autoincrement" json:"id"`
	PrizeDate     calendar.Day `bun:"prize_date,type:varchar(10),notnull" json:"prize_date"`
	Tier          string       `bun:"tier,notnull" json:"tier"`
	TotalCount    int          `bun:"total_count,notnull,default:0" json:"total_count"`
	Remaining     int          `bun:"remaining,notnull,default:0" json:"remaining"`
	WonCount      int          `bun:"won_count,notnull,default:0" json:"won_count"`
	CreatedAt     time.Time    `bun:"created_at,default:current_timestamp" json:"created_at"`
}
