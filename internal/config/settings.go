package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"luckydraw/internal/models"
)

// Settings holds every runtime parameter. It is built once at startup and
// handed to services through the container.
type Settings struct {
	APIMode    string   `mapstructure:"api_mode"`
	APIOrigins []string `mapstructure:"api_origins"`

	Timezone             string   `mapstructure:"timezone"`
	WinProbability       float64  `mapstructure:"win_probability"`
	MaxDailyDraws        int      `mapstructure:"max_daily_draws"`
	MaxUserDailyWins     int      `mapstructure:"max_user_daily_wins"`
	MaxDailyEarn         int      `mapstructure:"max_daily_earn"`
	StartingChances      int      `mapstructure:"starting_chances"`
	PurchaseBonusChances int      `mapstructure:"purchase_bonus_chances"`
	CouponValidityMonths int      `mapstructure:"coupon_validity_months"`
	EntryTier            string   `mapstructure:"entry_tier"`
	AdminIDs             []string `mapstructure:"admin_ids"`

	DrawRateLimitPerMinute int    `mapstructure:"draw_rate_limit_per_minute"`
	DailyResetCron         string `mapstructure:"daily_reset_cron"`
	WebDomain              string `mapstructure:"web_domain"`

	Tiers models.Tiers `mapstructure:"tiers"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_mode", "production")
	v.SetDefault("api_origins", []string{"*"})

	v.SetDefault("timezone", "America/New_York")
	v.SetDefault("win_probability", 0.01)
	v.SetDefault("max_daily_draws", 50)
	v.SetDefault("max_user_daily_wins", 5)
	v.SetDefault("max_daily_earn", 50)
	v.SetDefault("starting_chances", 5)
	v.SetDefault("purchase_bonus_chances", 10)
	v.SetDefault("coupon_validity_months", 1)
	v.SetDefault("entry_tier", "discount_90")
	v.SetDefault("admin_ids", []string{})

	v.SetDefault("draw_rate_limit_per_minute", 30)
	v.SetDefault("daily_reset_cron", "0 0 * * *")
	v.SetDefault("web_domain", "")
}

// Load reads defaults, then the optional config.yaml, then the environment.
func Load(paths ...string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, err
		}
	}

	return decode(v)
}

// Default returns the compiled-in settings, ignoring files and environment.
func Default() Settings {
	v := viper.New()
	setDefaults(v)
	s, err := decode(v)
	if err != nil {
		panic(err)
	}
	return s
}

func decode(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, err
	}

	s.AdminIDs = cleanList(s.AdminIDs)
	s.APIOrigins = cleanList(s.APIOrigins)
	if len(s.Tiers) == 0 {
		s.Tiers = append(models.Tiers(nil), models.DefaultTiers...)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	if s.WinProbability < 0 || s.WinProbability > 1 {
		return fmt.Errorf("win_probability must be within [0, 1], got %v", s.WinProbability)
	}
	if s.MaxDailyDraws < 0 || s.MaxUserDailyWins < 0 || s.MaxDailyEarn < 0 {
		return errors.New("daily limits must not be negative")
	}
	entry, ok := s.Tiers.Get(s.EntryTier)
	if !ok {
		return fmt.Errorf("entry tier %q is not in the tier table", s.EntryTier)
	}
	// first draws are awarded without stock, so the entry tier must never run out
	if entry.Kind != models.TierKindDiscount || entry.HasLifetimeCap() {
		return fmt.Errorf("entry tier %q must be a discount tier without a lifetime cap", s.EntryTier)
	}

	seen := map[string]bool{}
	for _, t := range s.Tiers {
		if seen[t.Key] {
			return fmt.Errorf("duplicate tier %q", t.Key)
		}
		seen[t.Key] = true

		switch t.Kind {
		case models.TierKindGrand, models.TierKindRanked, models.TierKindDiscount:
		default:
			return fmt.Errorf("tier %q has unknown kind %q", t.Key, t.Kind)
		}
		if t.Prefix == "" {
			return fmt.Errorf("tier %q has no coupon prefix", t.Key)
		}
	}
	return nil
}

func (s Settings) IsAdmin(id string) bool {
	for _, admin := range s.AdminIDs {
		if admin == id {
			return true
		}
	}
	return false
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
