package simulator

import (
	"math/rand"
	"time"

	"github.com/BearBump/TrackSim/internal/models"
)

type Rand interface {
	Intn(n int) int
}

type PlannerConfig struct {
	BaseProbability float64 // default: 30
	AgeBonus        float64 // added once past each threshold, default: 20
	AgeThresholds   []time.Duration

	MinProbability int // default: 10
	MaxProbability int // default: 100

	Multipliers map[models.Status]float64
}

func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		BaseProbability: 30,
		AgeBonus:        20,
		AgeThresholds:   []time.Duration{24 * time.Hour, 48 * time.Hour},
		MinProbability:  10,
		MaxProbability:  100,
		Multipliers: map[models.Status]float64{
			models.StatusProcessing:     1.5,
			models.StatusConfirmed:      1.3,
			models.StatusPacked:         1.2,
			models.StatusShipped:        1.0,
			models.StatusInTransit:      0.8,
			models.StatusOutForDelivery: 1.1,
		},
	}
}

// Planner decides whether an open order moves on during a tick.
type Planner struct {
	cfg PlannerConfig
	r   Rand
}

func NewPlanner(cfg PlannerConfig, r Rand) *Planner {
	def := DefaultPlannerConfig()
	if cfg.BaseProbability <= 0 {
		cfg.BaseProbability = def.BaseProbability
	}
	if cfg.AgeBonus <= 0 {
		cfg.AgeBonus = def.AgeBonus
	}
	if cfg.AgeThresholds == nil {
		cfg.AgeThresholds = def.AgeThresholds
	}
	if cfg.MinProbability <= 0 {
		cfg.MinProbability = def.MinProbability
	}
	if cfg.MaxProbability <= 0 || cfg.MaxProbability > 100 {
		cfg.MaxProbability = def.MaxProbability
	}
	if cfg.MaxProbability < cfg.MinProbability {
		cfg.MaxProbability = cfg.MinProbability
	}
	if cfg.Multipliers == nil {
		cfg.Multipliers = def.Multipliers
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Planner{cfg: cfg, r: r}
}

// Probability is the chance in percent, clamped to [MinProbability, MaxProbability].
func (p *Planner) Probability(age time.Duration, st models.Status) int {
	base := p.cfg.BaseProbability
	for _, th := range p.cfg.AgeThresholds {
		if age > th {
			base += p.cfg.AgeBonus
		}
	}
	mult, ok := p.cfg.Multipliers[st]
	if !ok {
		mult = 1
	}
	prob := int(base * mult)
	return min(max(prob, p.cfg.MinProbability), p.cfg.MaxProbability)
}

// ShouldAdvance draws a number in [1,100] and compares it with Probability.
func (p *Planner) ShouldAdvance(age time.Duration, st models.Status) (bool, int) {
	prob := p.Probability(age, st)
	draw := 1 + p.r.Intn(100)
	return draw <= prob, prob
}
