package services

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"luckydraw/internal/models"
)

var prizeCSVHeader = []string{
	"id", "external_user_id", "tier", "prize_name", "coupon_code",
	"prize_date", "created_at", "expires_at", "is_used", "is_copied",
}

// WritePrizesCSV writes one row per prize after a header row.
func WritePrizesCSV(w io.Writer, prizes []*models.Prize) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(prizeCSVHeader); err != nil {
		return err
	}

	for _, prize := range prizes {
		err := writer.Write([]string{
			strconv.FormatInt(prize.ID, 10),
			prize.ExternalUserID,
			prize.Tier,
			prize.PrizeName,
			prize.CouponCode,
			prize.PrizeDate.String(),
			prize.CreatedAt.Format(time.RFC3339),
			prize.ExpiresAt.Format(time.RFC3339),
			strconv.FormatBool(prize.IsUsed),
			strconv.FormatBool(prize.IsCopied),
		})
		if err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
