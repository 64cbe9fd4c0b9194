package evo

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"genevo/internal/genotype"
)

type SelectionMethod int

const (
	MuLambda SelectionMethod = iota
	LinearRanking
	Proportional
	Tournament
	numSelectionMethods
)

var selectionMethodNames = [...]string{"mulambda", "ranking", "proportional", "tournament"}

func (m SelectionMethod) String() string {
	if m < 0 || m >= numSelectionMethods {
		return fmt.Sprintf("SelectionMethod(%d)", int(m))
	}
	return selectionMethodNames[m]
}

func ParseSelectionMethod(name string) (SelectionMethod, error) {
	for i, n := range selectionMethodNames {
		if strings.EqualFold(name, n) {
			return SelectionMethod(i), nil
		}
	}
	return 0, fmt.Errorf("unknown selection method %q", name)
}

// Reserved ids of the self-adaptive selection genes.
const (
	GeneMuPart  = "u%"
	GeneQ       = "q"
	GeneEtaPlus = "e+"
)

func weightGeneID(m SelectionMethod) string { return fmt.Sprintf("s%d", int(m)) }

// SelectionParams holds the parameters of the four selection methods and the
// weights used to combine them.
type SelectionParams struct {
	// Mu is the absolute parent count of (mu,+lambda) selection; negative uses MuPart.
	Mu     int
	MuPart float64
	// EtaPlus is the linear ranking skew in [1,2].
	EtaPlus float64
	// Q is the tournament size, > 1.
	Q int

	AdaptMu      bool
	AdaptEtaPlus bool
	AdaptQ       bool
	AdaptWeights bool

	// Weighted sums the weighted affinities of every method. Otherwise one
	// method is drawn per affinity with the weights as probabilities.
	Weighted bool
	Weights  [numSelectionMethods]float64
}

func DefaultSelectionParams() SelectionParams {
	p := SelectionParams{Mu: -1, MuPart: 0.2, EtaPlus: 1.2, Q: 3}
	p.UseOnly(MuLambda)
	return p
}

// UseOnly gives method m weight 1 and turns weight adaptation off.
func (p *SelectionParams) UseOnly(m SelectionMethod) {
	p.Weights = [numSelectionMethods]float64{}
	p.Weights[m] = 1
	p.AdaptWeights = false
}

func (p *SelectionParams) SetMu(mu int) error {
	if mu <= 0 {
		return fmt.Errorf("mu must be > 0: %d", mu)
	}
	p.Mu = mu
	p.MuPart = -1
	p.AdaptMu = false
	return nil
}

func (p *SelectionParams) SetMuPart(part float64) error {
	if part < 0 || part >= 1 || math.IsNaN(part) {
		return fmt.Errorf("mu part must be in [0,1): %v", part)
	}
	p.Mu = -1
	p.MuPart = part
	return nil
}

func (p *SelectionParams) SetEtaPlus(eta float64) error {
	if eta < 1 || eta > 2 || math.IsNaN(eta) {
		return fmt.Errorf("eta+ must be in [1,2]: %v", eta)
	}
	p.EtaPlus = eta
	return nil
}

func (p *SelectionParams) SetQ(q int) error {
	if q <= 1 {
		return fmt.Errorf("tournament q must be > 1: %d", q)
	}
	p.Q = q
	return nil
}

// MuFor resolves mu for a population of the given size.
func (p SelectionParams) MuFor(size int) int {
	if p.Mu >= 0 {
		return p.Mu
	}
	return int(p.MuPart*float64(size) + 0.5)
}

func (p SelectionParams) Validate() error {
	if p.Mu < 0 && (p.MuPart < 0 || p.MuPart >= 1 || math.IsNaN(p.MuPart)) {
		return fmt.Errorf("mu part must be in [0,1): %v", p.MuPart)
	}
	if p.AdaptMu && p.Mu >= 0 {
		return errors.New("self-adaptive mu requires a partial mu")
	}
	if p.EtaPlus < 1 || p.EtaPlus > 2 {
		return fmt.Errorf("eta+ must be in [1,2]: %v", p.EtaPlus)
	}
	if p.Q <= 1 {
		return fmt.Errorf("tournament q must be > 1: %d", p.Q)
	}
	sum := 0.0
	for m, w := range p.Weights {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("weight of %s must be >= 0: %v", SelectionMethod(m), w)
		}
		sum += w
	}
	if sum <= 0 {
		return errors.New("at least one selection method needs a positive weight")
	}
	return nil
}

// AddSelectionGenes appends the hidden self-adaptive selection genes. They are
// only read when the matching adaptation flag is set.
func AddSelectionGenes(g *genotype.Genome, gray bool) error {
	mu, err := genotype.NewBitFloatGene(GeneMuPart, 0.01, 0.99, 16, gray)
	if err != nil {
		return err
	}
	q, err := genotype.NewIntGene(GeneQ, 2, 10)
	if err != nil {
		return err
	}
	eta, err := genotype.NewFloatGene(GeneEtaPlus, 1, 2)
	if err != nil {
		return err
	}
	eta.SetVariance(0.2)
	nodes := []genotype.Node{mu, q, eta}
	for m := SelectionMethod(0); m < numSelectionMethods; m++ {
		w, err := genotype.NewFloatGene(weightGeneID(m), 0, 1)
		if err != nil {
			return err
		}
		w.SetVariance(0.2)
		nodes = append(nodes, w)
	}
	for _, n := range nodes {
		n.SetHidden(true)
		g.Add(n)
	}
	return nil
}

// Situation is the ranked population a selection matrix is built over.
type Situation struct {
	// Ordered holds the population by ascending fitness.
	Ordered    []*Individual
	AvgFitness float64
	Global     SelectionParams

	UseGlobalMu      bool
	UseGlobalEtaPlus bool
	UseGlobalQ       bool
}

func (s *Situation) Size() int { return len(s.Ordered) }

// Selector is the personal selection state of an individual.
type Selector struct {
	SelectionParams
}

// Read loads the self-adapted parameters from the genome.
func (s *Selector) Read(g *genotype.Genome) error {
	if s.AdaptMu {
		v, err := floatGene(g, GeneMuPart)
		if err != nil {
			return err
		}
		s.MuPart = v
	}
	if s.AdaptEtaPlus {
		v, err := floatGene(g, GeneEtaPlus)
		if err != nil {
			return err
		}
		s.EtaPlus = v
	}
	if s.AdaptQ {
		n, err := g.Gene(GeneQ)
		if err != nil {
			return err
		}
		q, ok := n.(genotype.AnyInt)
		if !ok {
			return fmt.Errorf("gene %q is %s, not an int gene", GeneQ, n.Kind())
		}
		s.Q = q.Value()
	}
	if s.AdaptWeights {
		sum := 0.0
		for m := SelectionMethod(0); m < numSelectionMethods; m++ {
			v, err := floatGene(g, weightGeneID(m))
			if err != nil {
				return err
			}
			s.Weights[m] = v
			sum += v
		}
		for m := range s.Weights {
			if sum > 0 {
				s.Weights[m] /= sum
			} else {
				s.Weights[m] = 1 / float64(numSelectionMethods)
			}
		}
	}
	return nil
}

func floatGene(g *genotype.Genome, id string) (float64, error) {
	n, err := g.Gene(id)
	if err != nil {
		return 0, err
	}
	f, ok := n.(genotype.AnyFloat)
	if !ok {
		return 0, fmt.Errorf("gene %q is %s, not a float gene", id, n.Kind())
	}
	return f.Value(), nil
}

// Affinity is the willingness of this selector to mate with the individual
// ranked j (0-based) in the situation.
func (s *Selector) Affinity(rng *rand.Rand, sit *Situation, j int) float64 {
	if s.Weighted {
		love := 0.0
		for m, w := range s.Weights {
			if w != 0 {
				love += w * s.methodAffinity(sit, SelectionMethod(m), j)
			}
		}
		return love
	}
	p := rng.Float64()
	last := MuLambda
	for m, w := range s.Weights {
		if w <= 0 {
			continue
		}
		if p <= w {
			return s.methodAffinity(sit, SelectionMethod(m), j)
		}
		p -= w
		last = SelectionMethod(m)
	}
	return s.methodAffinity(sit, last, j)
}

func (s *Selector) methodAffinity(sit *Situation, m SelectionMethod, j int) float64 {
	size := sit.Size()
	rank := j + 1
	switch m {
	case MuLambda:
		params := s.SelectionParams
		if sit.UseGlobalMu {
			params = sit.Global
		}
		return MuLambdaAffinity(rank, params.MuFor(size))
	case LinearRanking:
		eta := s.EtaPlus
		if sit.UseGlobalEtaPlus {
			eta = sit.Global.EtaPlus
		}
		return LinearRankingAffinity(rank, size, eta)
	case Proportional:
		return ProportionalAffinity(sit.Ordered[j].fitness, sit.AvgFitness)
	case Tournament:
		q := s.Q
		if sit.UseGlobalQ {
			q = sit.Global.Q
		}
		return TournamentAffinity(rank, size, float64(q))
	}
	return 0
}

// MuLambdaAffinity accepts the mu best ranks; j is 1-based.
func MuLambdaAffinity(j, mu int) float64 {
	if j > mu {
		return 0
	}
	return 1
}

// LinearRankingAffinity falls linearly from eta at rank 1 to 2-eta at rank size.
func LinearRankingAffinity(j, size int, eta float64) float64 {
	if size <= 1 {
		return eta
	}
	return eta - (2*eta-2)*float64(j-1)/float64(size-1)
}

func ProportionalAffinity(fitness, avg float64) float64 {
	if avg == 0 {
		return 1
	}
	return fitness / avg
}

// TournamentAffinity is the probability that rank j wins a tournament of q
// entrants drawn with replacement.
func TournamentAffinity(j, size int, q float64) float64 {
	p := float64(size)
	return math.Pow(p, -q) * (math.Pow(p-float64(j)+1, q) - math.Pow(p-float64(j), q))
}
