package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gma-backend/internal/domain/screening"
)

// Scorer produces the two sub-scores for one video.
type Scorer interface {
	Score(ctx context.Context, videoID uuid.UUID, filename string) (screening.SubScores, error)
}

// Bounds of the placeholder sub-scores.
const (
	RandomScoreMin = 30
	RandomScoreMax = 95
)

// RandomScorer stands in for the real classifiers: each sub-score is a
// uniform integer in [RandomScoreMin, RandomScoreMax]. The zero value is
// ready to use with a time-based seed.
type RandomScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomScorer(seed int64) *RandomScorer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomScorer{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandomScorer) Score(ctx context.Context, _ uuid.UUID, _ string) (screening.SubScores, error) {
	if err := ctx.Err(); err != nil {
		return screening.SubScores{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	span := RandomScoreMax - RandomScoreMin + 1
	return screening.SubScores{
		Math: RandomScoreMin + r.rng.Intn(span),
		DL:   RandomScoreMin + r.rng.Intn(span),
	}, nil
}
