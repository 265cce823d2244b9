package question

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/samber/lo"

	"github.com/quizpot/quizpot/internal/domain"
)

// Provider supplies the ordered question set a room snapshots at start time.
// The room treats the result as already resolved: no retries, no caching.
type Provider interface {
	Questions(ctx context.Context, difficulty string, count int, category string) ([]domain.Question, error)
}

// StaticProvider serves questions from a fixed in-memory bank. It is the
// default provider for development and tests; production deployments plug in
// their own question service behind the Provider interface.
type StaticProvider struct {
	mu   sync.Mutex
	bank []domain.Question
	rng  *rand.Rand
}

// NewStaticProvider builds a provider over the given bank. The seed makes
// question selection reproducible.
func NewStaticProvider(bank []domain.Question, seed int64) *StaticProvider {
	return &StaticProvider{
		bank: bank,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (p *StaticProvider) Questions(_ context.Context, difficulty string, count int, category string) ([]domain.Question, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool := lo.Filter(p.bank, func(q domain.Question, _ int) bool {
		if difficulty != "" && q.Difficulty != difficulty {
			return false
		}
		if category != "" && q.Category != category {
			return false
		}
		return true
	})

	if len(pool) < count {
		return nil, fmt.Errorf("question: bank has %d questions matching difficulty=%q category=%q, need %d",
			len(pool), difficulty, category, count)
	}

	p.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	return pool[:count], nil
}

// DefaultBank is a small built-in question set so a fresh deployment can run
// games without an external question service.
func DefaultBank() []domain.Question {
	return []domain.Question{
		{QuestionID: "q-001", Text: "Which planet has the most moons?", Options: []string{"Earth", "Saturn", "Mars", "Venus"}, CorrectIndex: 1, Difficulty: "easy", Category: "science"},
		{QuestionID: "q-002", Text: "What is the chemical symbol for gold?", Options: []string{"Go", "Gd", "Au", "Ag"}, CorrectIndex: 2, Difficulty: "easy", Category: "science"},
		{QuestionID: "q-003", Text: "How many bits are in a byte?", Options: []string{"4", "8", "16", "32"}, CorrectIndex: 1, Difficulty: "easy", Category: "tech"},
		{QuestionID: "q-004", Text: "Which ocean is the largest?", Options: []string{"Atlantic", "Indian", "Arctic", "Pacific"}, CorrectIndex: 3, Difficulty: "easy", Category: "geography"},
		{QuestionID: "q-005", Text: "In what year did the first moon landing take place?", Options: []string{"1965", "1969", "1972", "1959"}, CorrectIndex: 1, Difficulty: "medium", Category: "history"},
		{QuestionID: "q-006", Text: "At which company was the Go language designed?", Options: []string{"Microsoft", "Google", "Bell Labs", "Mozilla"}, CorrectIndex: 1, Difficulty: "medium", Category: "tech"},
		{QuestionID: "q-007", Text: "What is the capital of Australia?", Options: []string{"Sydney", "Melbourne", "Canberra", "Perth"}, CorrectIndex: 2, Difficulty: "medium", Category: "geography"},
		{QuestionID: "q-008", Text: "Which element has atomic number 1?", Options: []string{"Helium", "Oxygen", "Hydrogen", "Carbon"}, CorrectIndex: 2, Difficulty: "easy", Category: "science"},
		{QuestionID: "q-009", Text: "Who painted the ceiling of the Sistine Chapel?", Options: []string{"Raphael", "Michelangelo", "Leonardo da Vinci", "Donatello"}, CorrectIndex: 1, Difficulty: "medium", Category: "history"},
		{QuestionID: "q-010", Text: "What does TCP stand for?", Options: []string{"Transfer Control Protocol", "Transmission Control Protocol", "Transport Connection Protocol", "Timed Connection Packet"}, CorrectIndex: 1, Difficulty: "medium", Category: "tech"},
		{QuestionID: "q-011", Text: "Which country has the longest coastline?", Options: []string{"Russia", "Australia", "Canada", "Norway"}, CorrectIndex: 2, Difficulty: "hard", Category: "geography"},
		{QuestionID: "q-012", Text: "What is the smallest prime number greater than 100?", Options: []string{"101", "103", "107", "109"}, CorrectIndex: 0, Difficulty: "hard", Category: "science"},
	}
}
