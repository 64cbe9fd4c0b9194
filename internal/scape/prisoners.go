package scape

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strings"
	"sync"

	"genevo/internal/genotype"
	"genevo/internal/model"
)

const (
	// KindPrisonerStrategy is the serialized kind of StrategyGene.
	KindPrisonerStrategy = "prisoner_strategy"

	strategyRules  = 70
	strategyGeneID = "PS"
	decodeGeneID   = "decode"
	rulesFeature   = "PDS"
)

func init() {
	if err := genotype.RegisterKind(KindPrisonerStrategy, decodeStrategyGene); err != nil {
		panic(err)
	}
}

// StrategyGene is a container of 70 bits: a 64-entry decision table indexed by
// the last three rounds followed by a 6-bit hypothetical opening history.
// Executing it stores the rule string as the PDS feature.
type StrategyGene struct {
	*genotype.Container
}

func NewStrategyGene(id string) *StrategyGene {
	s := &StrategyGene{Container: genotype.NewContainer(id)}
	for i := 0; i < strategyRules; i++ {
		s.Add(genotype.NewBinaryGene(fmt.Sprintf("D%d", i)))
	}
	return s
}

func decodeStrategyGene(rec model.NodeRecord) (genotype.Node, error) {
	s := &StrategyGene{Container: genotype.NewContainer(rec.ID)}
	if err := genotype.DecodeInto(s.Container, rec); err != nil {
		return nil, err
	}
	if len(s.Children()) < strategyRules {
		return nil, fmt.Errorf("%w: strategy has %d genes", genotype.ErrStructureMismatch, len(s.Children()))
	}
	return s, nil
}

func (s *StrategyGene) Kind() string { return KindPrisonerStrategy }

func (s *StrategyGene) Replicate() genotype.Node {
	return &StrategyGene{Container: s.Container.Replicate().(*genotype.Container)}
}

// Rules renders the decision bits, '1' meaning defect.
func (s *StrategyGene) Rules() string {
	var b strings.Builder
	b.Grow(strategyRules)
	for _, child := range s.Children()[:strategyRules] {
		if child.(*genotype.BinaryGene).Value() {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func (s *StrategyGene) Execute(msg genotype.Message) bool {
	if msg.Receiver != s.ID() || msg.Host == nil {
		return s.Container.Execute(msg)
	}
	msg.Host.SetFeature(rulesFeature, s.Rules())
	return true
}

func (s *StrategyGene) Record() model.NodeRecord {
	rec := s.Container.Record()
	rec.Kind = KindPrisonerStrategy
	return rec
}

type pdGame struct {
	history [][2]bool
}

type pdStrategy interface {
	name() string
	reset(rng *rand.Rand)
	defect(game *pdGame, player int, rng *rand.Rand) bool
}

type tableStrategy struct {
	label string
	table [64]bool
	hypo  [6]bool
}

func parseRules(label, rules string) (*tableStrategy, error) {
	if len(rules) != strategyRules {
		return nil, fmt.Errorf("strategy needs %d decisions, got %d", strategyRules, len(rules))
	}
	s := &tableStrategy{label: label}
	for i := 0; i < strategyRules; i++ {
		d := rules[i] == '1' || rules[i] == 'D'
		if i < 64 {
			s.table[i] = d
		} else {
			s.hypo[i-64] = d
		}
	}
	return s, nil
}

func (s *tableStrategy) name() string { return s.label }

func (s *tableStrategy) reset(*rand.Rand) {}

// defect looks up the decision for the last three rounds, oldest first. Rounds
// before the first are read from the hypothetical history.
func (s *tableStrategy) defect(game *pdGame, player int, _ *rand.Rand) bool {
	n := len(game.history)
	idx := 0
	for round := n - 3; round < n; round++ {
		var own, other bool
		if round >= 0 {
			own, other = game.history[round][player], game.history[round][1-player]
		} else {
			k := (round + 3) * 2
			own, other = s.hypo[k+player], s.hypo[k+1-player]
		}
		idx = idx*4 + b2i(own) + 2*b2i(other)
	}
	return s.table[idx]
}

type randomRuleStrategy struct {
	tableStrategy
}

func (s *randomRuleStrategy) reset(rng *rand.Rand) {
	for i := range s.table {
		s.table[i] = rng.Float64() > 0.5
	}
	for i := range s.hypo {
		s.hypo[i] = rng.Float64() > 0.5
	}
}

type fixedStrategy struct {
	label  string
	decide func(rng *rand.Rand) bool
}

func (s fixedStrategy) name() string { return s.label }

func (s fixedStrategy) reset(*rand.Rand) {}

func (s fixedStrategy) defect(_ *pdGame, _ int, rng *rand.Rand) bool { return s.decide(rng) }

const titForTatRules = "0011001100110011001100110011001100110011001100110011001100110011000000"

func league(rules string) ([]pdStrategy, error) {
	evolved, err := parseRules("Evolved", rules)
	if err != nil {
		return nil, err
	}
	tft, err := parseRules("Tit4Tat", titForTatRules)
	if err != nil {
		return nil, err
	}
	return []pdStrategy{
		evolved,
		tft,
		&randomRuleStrategy{tableStrategy{label: "RandomRule"}},
		fixedStrategy{label: "Random", decide: func(rng *rand.Rand) bool { return rng.Float64() > 0.5 }},
		fixedStrategy{label: "Cooperating", decide: func(*rand.Rand) bool { return false }},
		fixedStrategy{label: "Defecting", decide: func(*rand.Rand) bool { return true }},
	}, nil
}

// years is the prison sentence of a player; lower is better.
func years(defect, otherDefects bool) float64 {
	switch {
	case defect && otherDefects:
		return 3
	case !defect && otherDefects:
		return 5
	case defect && !otherDefects:
		return 0
	default:
		return 1
	}
}

// playMatch returns the average sentence per round of each player.
func playMatch(p0, p1 pdStrategy, rounds int, rng *rand.Rand) (float64, float64) {
	game := &pdGame{history: make([][2]bool, 0, rounds)}
	var s0, s1 float64
	for r := 0; r < rounds; r++ {
		d0 := p0.defect(game, 0, rng)
		d1 := p1.defect(game, 1, rng)
		s0 += years(d0, d1)
		s1 += years(d1, d0)
		game.history = append(game.history, [2]bool{d0, d1})
	}
	return s0 / float64(rounds), s1 / float64(rounds)
}

// leagueScore is the mean sentence of strategy i against every league member.
func leagueScore(strategies []pdStrategy, i, trials, rounds int, rng *rand.Rand) []float64 {
	scores := make([]float64, len(strategies))
	for j := range strategies {
		total := 0.0
		for t := 0; t < trials; t++ {
			strategies[i].reset(rng)
			strategies[j].reset(rng)
			s0, s1 := playMatch(strategies[i], strategies[j], rounds, rng)
			if i == j {
				s0 = (s0 + s1) / 2
			}
			total += s0
		}
		scores[j] = total / float64(trials)
	}
	return scores
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// PrisonersScape scores evolved iterated prisoner's dilemma strategies by the
// mean sentence they receive in a round-robin league.
type PrisonersScape struct {
	Trials int
	Rounds int

	mu        sync.Mutex
	seeds     *rand.Rand
	bestScore float64
	bestRules string
}

func NewPrisonersScape(trials, rounds int, seed int64) (*PrisonersScape, error) {
	if trials < 1 || rounds < 1 {
		return nil, fmt.Errorf("prisoners needs trials and rounds >= 1: %d/%d", trials, rounds)
	}
	return &PrisonersScape{Trials: trials, Rounds: rounds, seeds: rand.New(rand.NewSource(seed)), bestScore: math.Inf(1)}, nil
}

func (*PrisonersScape) Name() string { return "prisoners" }

// AddFeaturesTo places the decoding indirection before the strategy container so
// crossover can cut in front of the strategy and blend it.
func (*PrisonersScape) AddFeaturesTo(g *genotype.Genome) error {
	g.Add(genotype.NewIndirectionGene(decodeGeneID, strategyGeneID))
	g.Add(NewStrategyGene(strategyGeneID))
	return nil
}

func (s *PrisonersScape) rng() *rand.Rand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rand.New(rand.NewSource(s.seeds.Int63()))
}

func (s *PrisonersScape) Evaluate(ctx context.Context, agent Agent) (Fitness, Trace, error) {
	if !agent.Decode(decodeGeneID) {
		return 0, nil, fmt.Errorf("agent %s has no %q gene", agent.ID(), decodeGeneID)
	}
	v, ok := agent.Feature(rulesFeature)
	if !ok {
		return 0, nil, fmt.Errorf("agent %s did not decode a strategy", agent.ID())
	}
	rules, _ := v.(string)
	strategies, err := league(rules)
	if err != nil {
		return 0, nil, err
	}
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	score := mean(leagueScore(strategies, 0, s.Trials, s.Rounds, s.rng()))

	s.mu.Lock()
	if score < s.bestScore {
		s.bestScore, s.bestRules = score, rules
	}
	s.mu.Unlock()
	return Fitness(score), Trace{"rules": rules}, nil
}

func (s *PrisonersScape) InitCycle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bestScore, s.bestRules = math.Inf(1), ""
}

// CycleReport prints the full league table for the best strategy of the cycle.
func (s *PrisonersScape) CycleReport(log, out io.Writer) error {
	s.mu.Lock()
	rules := s.bestRules
	s.mu.Unlock()
	if rules == "" {
		return nil
	}
	strategies, err := league(rules)
	if err != nil {
		return err
	}
	rng := s.rng()
	for i, st := range strategies {
		scores := leagueScore(strategies, i, s.Trials, s.Rounds, rng)
		if _, err := fmt.Fprintf(out, "%d(%12s):", i, st.name()); err != nil {
			return err
		}
		for _, v := range scores {
			fmt.Fprintf(out, " %6.3f", v)
		}
		fmt.Fprintf(out, "  total=%.3f\n", mean(scores))
		if i == 0 {
			fmt.Fprintf(log, "score=%f rules=%s\n", mean(scores), rules)
		}
	}
	return nil
}
