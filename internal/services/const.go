package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrDrawInProgress = errors.New("another draw is in progress")
var ErrNotAdmin = errors.New("admin permission required")
var ErrDailyResetLock = errors.New("daily reset locked")
var ErrUnknownTier = errors.New("unknown prize tier")

// errPoolExhausted rolls back an award whose stock ran out.
var errPoolExhausted = errors.New("pool exhausted")

const (
	CONFIG_WIN_PROBABILITY     = "win_probability"
	CONFIG_MAX_DAILY_DRAWS     = "max_daily_draws"
	CONFIG_MAX_USER_DAILY_WINS = "max_user_daily_wins"
	CONFIG_MAX_DAILY_EARN      = "max_daily_earn"
	CONFIG_FIRST_PRIZE_ENABLED = "first_prize_enabled"

	CACHE_TTL_5_SECONDS  = 5 * time.Second
	CACHE_TTL_15_SECONDS = 15 * time.Second
	CACHE_TTL_1_MIN      = 1 * time.Minute

	EXPORT_DEFAULT_LIMIT = 50
	EXPORT_MAX_LIMIT     = 1000

	USER_PRIZE_LIST_LIMIT = 100
	USER_WORK_LIST_LIMIT  = 20

	ADD_CHANCE_MAX_ATTEMPTS = 3
	AWARD_MAX_ATTEMPTS      = 3

	WORK_UID_LENGTH = 12
)

func LockKeyUserDraw(externalID string) string {
	return fmt.Sprintf("lock:user-draw:%s", externalID)
}

func LockKeyDailyReset() string {
	return "lock:daily-reset"
}

func LimitKeyUserDraw(externalID string) string {
	return fmt.Sprintf("limit:user-draw:%s", externalID)
}

func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", strings.ToLower(key))
}
