package ranking

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	model "github.com/okian/stride/internal/domain/model"
)

// Seeder builds the initial ranking when none is stored.
type Seeder interface {
	Seed(user model.User) []model.RankingEntry
}

const (
	seedStepsMin = 7000
	seedStepsMax = 10000
	peerStepsMin = 3000
	peerStepsMax = 15000
)

var peerNames = []string{
	"Alex Rivera", "Sam Okafor", "Mia Chen", "Jonas Berg", "Priya Nair",
	"Leo Martins", "Hana Sato", "Omar Haddad", "Zoe Novak", "Ivan Petrov",
}

type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newLockedRand(seed int64) *lockedRand {
	return &lockedRand{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // seed data only
}

func (r *lockedRand) between(lo, hi int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo + r.rng.Intn(hi-lo)
}

func userEntry(user model.User, rng *lockedRand) model.RankingEntry {
	var steps int
	if user.Steps != nil && *user.Steps > 0 {
		steps = *user.Steps
	} else {
		steps = rng.between(seedStepsMin, seedStepsMax)
	}
	return model.RankingEntry{
		ID:           user.ID,
		Name:         user.Name,
		Steps:        steps,
		ProfileImage: user.ProfileImage,
	}
}

// CurrentUserOnly seeds a one-entry ranking with the current user. Users
// without recorded steps get a random count in [7000, 10000).
type CurrentUserOnly struct {
	rng *lockedRand
}

// NewCurrentUserOnly creates the default seeder.
func NewCurrentUserOnly() *CurrentUserOnly {
	return &CurrentUserOnly{rng: newLockedRand(time.Now().UnixNano())}
}

// Seed implements Seeder.
func (s *CurrentUserOnly) Seed(user model.User) []model.RankingEntry {
	return []model.RankingEntry{userEntry(user, s.rng)}
}

// DemoPeers seeds the current user plus a fixed number of made-up peers.
type DemoPeers struct {
	peers int
	rng   *lockedRand
}

// NewDemoPeers creates a seeder adding peers synthetic users. seed fixes the
// generated step counts; 0 picks a time-based seed.
func NewDemoPeers(peers int, seed int64) *DemoPeers {
	if peers < 0 {
		peers = 0
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &DemoPeers{peers: peers, rng: newLockedRand(seed)}
}

// Seed implements Seeder.
func (s *DemoPeers) Seed(user model.User) []model.RankingEntry {
	out := make([]model.RankingEntry, 0, s.peers+1)
	out = append(out, userEntry(user, s.rng))
	for i := 0; i < s.peers; i++ {
		out = append(out, model.RankingEntry{
			ID:    uuid.NewString(),
			Name:  peerNames[i%len(peerNames)],
			Steps: s.rng.between(peerStepsMin, peerStepsMax),
		})
	}
	return out
}
