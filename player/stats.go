package player

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/cortexo/zerocore/game"
)

// Stats accumulates win/loss/draw tallies across a series of pvp.Play
// matches, keyed by Player.Name(). It generalizes the teacher's
// Statistics (statistics.go), which keyed its tallies by an *Agent's NN
// pointer identity; here any two players sharing a Name() share a tally,
// which is what a tournament between named strategies (not named network
// instances) wants.
type Stats struct {
	wins, losses, draws map[string]int
	seen                map[string]bool
	order               []string
}

// NewStats returns an empty tally.
func NewStats() *Stats {
	return &Stats{
		wins: map[string]int{}, losses: map[string]int{}, draws: map[string]int{},
		seen: map[string]bool{},
	}
}

// Record folds one match's outcome into the tally. status must not be
// game.Undecided.
func (s *Stats) Record(positiveName, negativeName string, status game.Status) {
	s.ensure(positiveName)
	s.ensure(negativeName)

	switch status {
	case game.Draw:
		s.draws[positiveName]++
		s.draws[negativeName]++
	case game.WinPositive:
		s.wins[positiveName]++
		s.losses[negativeName]++
	case game.WinNegative:
		s.wins[negativeName]++
		s.losses[positiveName]++
	}
}

func (s *Stats) ensure(name string) {
	if !s.seen[name] {
		s.seen[name] = true
		s.order = append(s.order, name)
	}
}

// WinRate returns name's wins / (wins+losses+draws), or 0 if name has no
// recorded matches.
func (s *Stats) WinRate(name string) float32 {
	w, l, d := s.wins[name], s.losses[name], s.draws[name]
	total := w + l + d
	if total == 0 {
		return 0
	}
	return float32(w) / float32(total)
}

// Dump writes one CSV row per player seen by Record, in first-seen order:
// name, wins, losses, draws, win_rate. It mirrors the teacher's
// Statistics.Dump, but emits a header row and one well-formed row per
// player instead of one sparse row per observation.
func (s *Stats) Dump(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"player", "wins", "losses", "draws", "win_rate"}); err != nil {
		return err
	}
	for _, name := range s.order {
		row := []string{
			name,
			strconv.Itoa(s.wins[name]),
			strconv.Itoa(s.losses[name]),
			strconv.Itoa(s.draws[name]),
			strconv.FormatFloat(float64(s.WinRate(name)), 'f', 3, 32),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
