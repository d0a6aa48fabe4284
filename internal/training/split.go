package training

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// MinTestRows is the smallest test partition that yields a defined R².
const MinTestRows = 2

// Partition lists the row indices of a train/test split.
type Partition struct {
	Train []int
	Test  []int
}

// Split shuffles n row indices with a PCG generator seeded by seed and
// assigns ceil(n·testFraction) of them to the test partition. The same n,
// fraction and seed always produce the same partition.
func Split(n int, testFraction float64, seed uint64) (Partition, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return Partition{}, fmt.Errorf("test fraction %v outside (0, 1)", testFraction)
	}
	// The epsilon keeps 15·0.2 from rounding up to 4.
	nTest := int(math.Ceil(float64(n)*testFraction - 1e-9))
	nTrain := n - nTest
	if nTest < MinTestRows || nTrain < 1 {
		return Partition{}, fmt.Errorf("%w: %d rows gives %d train / %d test, need >=1 / >=%d",
			domain.ErrTooFewRows, n, nTrain, nTest, MinTestRows)
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(n)
	return Partition{Test: perm[:nTest], Train: perm[nTest:]}, nil
}
