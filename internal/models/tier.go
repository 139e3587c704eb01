package models

const (
	TierKindGrand    = "grand"
	TierKindRanked   = "ranked"
	TierKindDiscount = "discount"

	// Unlimited marks a lifetime cap or daily quota without a bound.
	Unlimited = -1
	// UnlimitedDailyQuota is the pool size written for an unlimited daily quota.
	UnlimitedDailyQuota = 999
)

type Tier struct {
	Key         string `mapstructure:"key" json:"key"`
	Kind        string `mapstructure:"kind" json:"kind"`
	Name        string `mapstructure:"name" json:"name"`
	Prefix      string `mapstructure:"prefix" json:"prefix"`
	LifetimeCap int    `mapstructure:"lifetime_cap" json:"lifetime_cap"`
	DailyQuota  int    `mapstructure:"daily_quota" json:"daily_quota"`
	Weight      int    `mapstructure:"weight" json:"weight"`
}

func (t Tier) HasLifetimeCap() bool {
	return t.LifetimeCap != Unlimited
}

// PoolQuota is the daily quota before rollover.
func (t Tier) PoolQuota() int {
	if t.DailyQuota == Unlimited {
		return UnlimitedDailyQuota
	}
	return t.DailyQuota
}

// DrawWeight never returns less than 1 so an eligible tier stays drawable.
func (t Tier) DrawWeight() int {
	if t.Weight <= 0 {
		return 1
	}
	return t.Weight
}

var DefaultTiers = Tiers{
	{Key: "first", Kind: TierKindGrand, Name: "Grand Prize - 2g Gold Monster ($400)", Prefix: "JJMG1", LifetimeCap: 1, DailyQuota: 0, Weight: 0},
	{Key: "second", Kind: TierKindRanked, Name: "2nd Prize - JuJuBit Gift Box ($100)", Prefix: "JJMG2", LifetimeCap: 10, DailyQuota: 1, Weight: 5},
	{Key: "third", Kind: TierKindRanked, Name: "3rd Prize - 4cm Model Coupon ($25)", Prefix: "JJMG3", LifetimeCap: 100, DailyQuota: 3, Weight: 15},
	{Key: "discount_90", Kind: TierKindDiscount, Name: "10% Off Coupon", Prefix: "JJM90", LifetimeCap: Unlimited, DailyQuota: Unlimited, Weight: 40},
	{Key: "discount_80", Kind: TierKindDiscount, Name: "20% Off Coupon", Prefix: "JJM80", LifetimeCap: 1000, DailyQuota: 30, Weight: 25},
	{Key: "discount_70", Kind: TierKindDiscount, Name: "30% Off Coupon", Prefix: "JJM70", LifetimeCap: 500, DailyQuota: 15, Weight: 15},
}

type Tiers []Tier

func (tiers Tiers) Get(key string) (Tier, bool) {
	for _, t := range tiers {
		if t.Key == key {
			return t, true
		}
	}
	return Tier{}, false
}

func (tiers Tiers) ByKind(kind string) Tiers {
	out := make(Tiers, 0, len(tiers))
	for _, t := range tiers {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// Grand returns the admin-gated top tier, if one is configured.
func (tiers Tiers) Grand() (Tier, bool) {
	grand := tiers.ByKind(TierKindGrand)
	if len(grand) == 0 {
		return Tier{}, false
	}
	return grand[0], true
}

// Pooled returns every tier that the daily rollover creates rows for.
func (tiers Tiers) Pooled() Tiers {
	out := make(Tiers, 0, len(tiers))
	for _, t := range tiers {
		if t.Kind != TierKindGrand {
			out = append(out, t)
		}
	}
	return out
}

func (tiers Tiers) Keys() []string {
	keys := make([]string, 0, len(tiers))
	for _, t := range tiers {
		keys = append(keys, t.Key)
	}
	return keys
}
