// Package mcts implements the PUCT-based Monte-Carlo tree search engine
// of spec.md §4.5: an arena of nodes referenced by index (Design Note 9,
// "Tree as arena + index"), selection via the PUCT formula, expansion by
// querying a model.Model, backup with alternating perspective, and
// improved-policy extraction by visit count. Grounded throughout on the
// teacher's mcts package (Config/Node/Tree/Search split, the PUCT formula
// in Node.Select, and the +1/-1 virtual loss magnitude), generalized from
// Go-the-board-game specifics to any game.Game.
package mcts

// Config configures one Search call, mirroring the teacher's mcts.Config
// (PUCT, Budget, ...) narrowed to the knobs spec.md §4.5 names.
type Config struct {
	// Power is the total number of simulations run from the root.
	Power int
	// Exploration is c_PUCT, the weight of the exploration term in
	// selection.
	Exploration float32
	// Dilution mixes the root prior with a uniform distribution:
	// P_root = (1-Dilution)*P + Dilution*Uniform(legal). 0 disables it.
	Dilution float32
	// Temperature softens (>1), sharpens (<1, >0) or (0) hardens the
	// visit-count distribution used to extract the improved policy.
	Temperature float32
}

// DefaultConfig returns sane defaults grounded on the teacher's
// mcts.DefaultConfig (PUCT 1.0, no dilution, temperature 1, i.e. a policy
// proportional to root visit counts).
func DefaultConfig() Config {
	return Config{
		Power:       800,
		Exploration: 1.0,
		Dilution:    0,
		Temperature: 1,
	}
}

func (c Config) IsValid() bool {
	return c.Power > 0 && c.Exploration > 0 && c.Dilution >= 0 && c.Dilution <= 1 && c.Temperature >= 0
}
