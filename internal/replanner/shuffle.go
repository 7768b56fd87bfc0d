package replanner

import (
	"math/rand"

	"github.com/baumann-freiburg/mapf-core/internal/planmodel"
)

type shuffler struct {
	rng *rand.Rand
}

func newDeterministicShuffler(seed int64) *shuffler {
	return &shuffler{rng: rand.New(rand.NewSource(seed))}
}

func (s *shuffler) shuffle(order []planmodel.AgentID) {
	s.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
}
