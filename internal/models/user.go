package models

import (
	"time"

	"github.com/uptrace/bun"

	"luckydraw/internal/pkg/calendar"
)

type User struct {
	bun.BaseModel `bun:"table:lottery_user,alias:u"`
	ID            int64        `bun:"id,pk,autoincrement" json:"id"`
	ExternalID    string       `bun:"external_id,notnull" json:"external_id"`
	DisplayName   string       `bun:"display_name" json:"display_name"`
	DrawChances   int          `bun:"draw_chances,notnull,default:0" json:"draw_chances"`
	DailyDraws    int          `bun:"daily_draws,notnull,default:0" json:"daily_draws"`
	DailyEarned   int          `bun:"daily_earned,notnull,default:0" json:"daily_earned"`
	TotalDraws    int          `bun:"total_draws,notnull,default:0" json:"total_draws"`
	LastDrawDate  calendar.Day `bun:"last_draw_date,type:varchar(10),nullzero" json:"last_draw_date"`
	HasPurchased  bool         `bun:"has_purchased,notnull,default:false" json:"has_purchased"`
	CreatedAt     time.Time    `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time    `bun:"updated_at,default:current_timestamp" json:"updated_at"`
}

// UserFromAuth only use in middleware
type UserFromAuth struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

func (u *UserFromAuth) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type UserStats struct {
	User       *User `json:"user"`
	PrizeCount int   `json:"prize_count"`
	WorkCount  int   `json:"work_count"`
}
