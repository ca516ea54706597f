package stats

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoStats is returned when a legacy export holds no recognizable stats
var ErrNoStats = errors.New("no stats found")

// legacyDefaults is a key/value dump of the old settings store, where the
// high score and the stats blob were kept under separate keys.
type legacyDefaults struct {
	HighScore *int   `json:"SnakeHighScore"`
	Stats     *Stats `json:"SnakeStats"`
}

// DecodeLegacy reads either a bare stats object or a settings dump with
// SnakeHighScore and SnakeStats keys. In a dump the separate high score wins
// when it is larger.
func DecodeLegacy(data []byte) (Stats, error) {
	var dump legacyDefaults
	if err := json.Unmarshal(data, &dump); err != nil {
		return Stats{}, fmt.Errorf("decode legacy stats: %w", err)
	}
	if dump.HighScore != nil || dump.Stats != nil {
		var st Stats
		if dump.Stats != nil {
			st = *dump.Stats
		}
		if dump.HighScore != nil && *dump.HighScore > st.HighScore {
			st.HighScore = *dump.HighScore
		}
		return st, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Stats{}, fmt.Errorf("decode legacy stats: %w", err)
	}
	if _, ok := fields["totalGamesPlayed"]; !ok {
		return Stats{}, ErrNoStats
	}
	var st Stats
	if err := json.Unmarshal(data, &st); err != nil {
		return Stats{}, fmt.Errorf("decode legacy stats: %w", err)
	}
	return st, nil
}

// Merge adds the counters of b to a and keeps the larger high score.
// CurrentScore is taken from a.
func Merge(a, b Stats) Stats {
	out := a
	out.TotalGamesPlayed += b.TotalGamesPlayed
	out.AIGamesPlayed += b.AIGamesPlayed
	out.TotalPlaytime += b.TotalPlaytime
	if b.HighScore > out.HighScore {
		out.HighScore = b.HighScore
	}
	return out
}
