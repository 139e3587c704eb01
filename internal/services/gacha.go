package services

import (
	"errors"

	"github.com/mroth/weightedrand/v2"

	"luckydraw/internal/models"
)

type ServiceGacha[T any] struct {
	chooser *weightedrand.Chooser[T, int]
}

func NewServiceGacha[T any](choices []weightedrand.Choice[T, int]) (*ServiceGacha[T], error) {
	chooser, err := weightedrand.NewChooser(choices...)
	if err != nil {
		return nil, err
	}

	return &ServiceGacha[T]{chooser}, nil
}

func (service *ServiceGacha[T]) Pick() T {
	return service.chooser.Pick()
}

// NewTierGacha weighs each candidate tier by its draw weight.
func NewTierGacha(candidates models.Tiers) (*ServiceGacha[models.Tier], error) {
	if len(candidates) == 0 {
		return nil, errors.New("no candidate tiers")
	}

	choices := make([]weightedrand.Choice[models.Tier, int], 0, len(candidates))
	for _, tier := range candidates {
		choices = append(choices, weightedrand.NewChoice(tier, tier.DrawWeight()))
	}
	return NewServiceGacha(choices)
}
