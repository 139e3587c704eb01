package models

import "time"

type DrawResultType string

const (
	DrawNoChance   DrawResultType = "NO_CHANCE"
	DrawDailyLimit DrawResultType = "DAILY_LIMIT"
	DrawNoWin      DrawResultType = "NO_WIN"
	DrawWin        DrawResultType = "WIN"
)

// DrawResult is the outcome of one completed draw. Prize is set only when
// Type is DrawWin. A draw that could not be processed returns an error
// instead of a DrawResult.
type DrawResult struct {
	Type  DrawResultType `json:"type"`
	Prize *PrizeWin      `json:"prize,omitempty"`
}

type PrizeWin struct {
	ID         int64     `json:"id"`
	Tier       string    `json:"tier"`
	Name       string    `json:"name"`
	CouponCode string    `json:"coupon_code"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (r DrawResult) Won() bool {
	return r.Type == DrawWin && r.Prize != nil
}
