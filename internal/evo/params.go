package evo

import (
	"fmt"
	"strings"

	"genevo/internal/config"
)

// ConfigFromParams maps the recognized parameter keys onto a Config. Missing keys
// keep their defaults; malformed or out-of-range values are errors.
func ConfigFromParams(p config.Params) (Config, error) {
	cfg := DefaultConfig()
	var err error

	if cfg.PopulationSize, err = p.Int("SimplePopulation.size", cfg.PopulationSize); err != nil {
		return cfg, err
	}
	if cfg.Elites, err = p.Int("EAStrategy.elites", int(float64(cfg.PopulationSize)*0.1)); err != nil {
		return cfg, err
	}
	if cfg.Silent, err = p.Bool("EAStrategy.silent", false); err != nil {
		return cfg, err
	}
	if cfg.MinSimilarity, err = p.Float("EAStrategy.minSimilarity", 0); err != nil {
		return cfg, err
	}
	if cfg.ReevaluateElite, err = p.Bool("EAStrategy.reevaluateElite", cfg.ReevaluateElite); err != nil {
		return cfg, err
	}

	r := &cfg.Rates
	if r.Binary, err = p.Float("Population.boolRate", r.Binary); err != nil {
		return cfg, err
	}
	if r.Int, err = p.Float("Population.intRate", r.Int); err != nil {
		return cfg, err
	}
	if r.Float, err = p.Float("Population.floatRate", r.Float); err != nil {
		return cfg, err
	}
	if r.FloatVariance, err = p.Float("Population.floatVariance", r.FloatVariance); err != nil {
		return cfg, err
	}
	if r.AutoAdaptation, err = p.Bool("Population.autoAdapt", false); err != nil {
		return cfg, err
	}

	if err := selectionFromParams(p, &cfg.Selection); err != nil {
		return cfg, err
	}

	pg := &cfg.PrivateGenes
	if p.Has("Gentainer.recombFreq") {
		f, err := p.Float("Gentainer.recombFreq", 0)
		if err != nil {
			return cfg, err
		}
		pg.RecombFreq = &f
	}
	if pg.MaxPoints, err = p.Int("Gentainer.points", pg.MaxPoints); err != nil {
		return cfg, err
	}
	if pg.Uniform, err = p.Bool("Gentainer.uniform", false); err != nil {
		return cfg, err
	}
	if pg.RateLowBound, err = p.Float("MutationRate.lowBound", pg.RateLowBound); err != nil {
		return cfg, err
	}
	if cfg.GrayCoding, err = p.Bool("BitFloatGene.graycoding", cfg.GrayCoding); err != nil {
		return cfg, err
	}

	if cfg.Workers, err = p.Int("Evolution.workers", 0); err != nil {
		return cfg, err
	}
	if cfg.Seed, err = p.Int64("Evolution.seed", cfg.Seed); err != nil {
		return cfg, err
	}
	if cfg.EvaluationTimeout, err = p.Duration("Evolution.evaluationTimeout", 0); err != nil {
		return cfg, err
	}
	if cfg.RecordMutability, err = p.Bool("Evolution.recordMutability", false); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func selectionFromParams(p config.Params, s *SelectionParams) error {
	mu, err := p.Int("Selection.mu", 0)
	if err != nil {
		return err
	}
	if mu > 0 {
		if err := s.SetMu(mu); err != nil {
			return err
		}
	} else {
		part, err := p.Float("Selection.muPart", s.MuPart)
		if err != nil {
			return err
		}
		if err := s.SetMuPart(part); err != nil {
			return err
		}
	}
	q, err := p.Int("Selection.q", s.Q)
	if err != nil {
		return err
	}
	if err := s.SetQ(q); err != nil {
		return err
	}
	eta, err := p.Float("Selection.eta+", s.EtaPlus)
	if err != nil {
		return err
	}
	if err := s.SetEtaPlus(eta); err != nil {
		return err
	}

	for key, dst := range map[string]*bool{
		"Selection.adaptMu":      &s.AdaptMu,
		"Selection.adaptQ":       &s.AdaptQ,
		"Selection.adaptEta+":    &s.AdaptEtaPlus,
		"Selection.adaptWeights": &s.AdaptWeights,
	} {
		if *dst, err = p.Bool(key, false); err != nil {
			return err
		}
	}
	if s.AdaptMu && s.Mu >= 0 {
		return fmt.Errorf("Selection.adaptMu needs Selection.muPart, not Selection.mu=%d", s.Mu)
	}

	method := strings.ToLower(p.String("Selection.method", "mulambda"))
	switch method {
	case "weighted", "stochastic":
		for m := range s.Weights {
			s.Weights[m] = 1 / float64(numSelectionMethods)
		}
		s.Weighted = method == "weighted"
	default:
		m, err := ParseSelectionMethod(method)
		if err != nil {
			return err
		}
		adapt := s.AdaptWeights
		s.UseOnly(m)
		s.AdaptWeights = adapt
	}
	return nil
}
