package services

import (
	"sort"

	"auction-bidding/internal/config"

	"github.com/shopspring/decimal"
)

var defaultStep = decimal.NewFromInt(5)

type incrementTier struct {
	below     decimal.Decimal
	unbounded bool
	step      decimal.Decimal
}

// IncrementSchedule picks the default step for a new auction from its base
// price. Tiers are matched on "base price < below"; a tier with below = 0 is
// the catch-all.
type IncrementSchedule struct {
	tiers []incrementTier
}

func NewIncrementSchedule(tiers []config.IncrementTier) *IncrementSchedule {
	s := &IncrementSchedule{}
	for _, t := range tiers {
		if t.Step <= 0 {
			continue
		}
		s.tiers = append(s.tiers, incrementTier{
			below:     decimal.NewFromFloat(t.Below),
			unbounded: t.Below <= 0,
			step:      decimal.NewFromFloat(t.Step),
		})
	}

	sort.SliceStable(s.tiers, func(i, j int) bool {
		if s.tiers[i].unbounded != s.tiers[j].unbounded {
			return !s.tiers[i].unbounded
		}
		return s.tiers[i].below.LessThan(s.tiers[j].below)
	})
	return s
}

func (s *IncrementSchedule) StepFor(amount decimal.Decimal) decimal.Decimal {
	for _, t := range s.tiers {
		if t.unbounded || amount.LessThan(t.below) {
			return t.step
		}
	}
	return defaultStep
}
