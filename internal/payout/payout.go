package payout

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/quizpot/quizpot/internal/domain"
)

// Entrant is one participant as seen by the payout computation: a score and
// a join order for deterministic tie-breaking.
type Entrant struct {
	PlayerID  string
	Score     int64
	JoinOrder int
}

// top3 shares in percent, applied with floor division. The flooring remainder
// goes to rank 1 so the shares always sum to the pool.
var top3Shares = []int64{60, 30, 10}

// Rank sorts entrants by score descending, join order ascending, and returns
// them in final-position order (index 0 is rank 1). The input is not modified.
func Rank(entrants []Entrant) []Entrant {
	ranked := make([]Entrant, len(entrants))
	copy(ranked, entrants)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].JoinOrder < ranked[j].JoinOrder
	})

	return ranked
}

// Distribute computes how pool splits among entrants under the given rule.
// It performs no ledger writes; the caller applies the resulting credits.
// The returned winnings always sum to exactly pool.
func Distribute(entrants []Entrant, pool int64, rule domain.DistributionRule) (map[string]int64, error) {
	if len(entrants) == 0 {
		return nil, fmt.Errorf("payout: no entrants")
	}
	if pool < 0 {
		return nil, fmt.Errorf("payout: negative pool %d", pool)
	}

	ranked := Rank(entrants)

	var winnings map[string]int64
	switch rule {
	case domain.DistributionWinnerTakeAll:
		winnings = winnerTakeAll(ranked, pool)
	case domain.DistributionTop3:
		winnings = top3(ranked, pool)
	case domain.DistributionProportional:
		winnings = proportional(ranked, pool)
	default:
		return nil, fmt.Errorf("payout: unknown distribution rule %q", rule)
	}

	var sum int64
	for _, w := range winnings {
		sum += w
	}
	if sum != pool {
		return nil, fmt.Errorf("payout: conservation violated: sum %d != pool %d, rule %s", sum, pool, rule)
	}

	return winnings, nil
}

func winnerTakeAll(ranked []Entrant, pool int64) map[string]int64 {
	winnings := zeroed(ranked)
	winnings[ranked[0].PlayerID] = pool
	return winnings
}

func top3(ranked []Entrant, pool int64) map[string]int64 {
	winnings := zeroed(ranked)

	var paid int64
	for i, share := range top3Shares {
		if i >= len(ranked) {
			break
		}
		w := pool * share / 100
		winnings[ranked[i].PlayerID] = w
		paid += w
	}

	// Flooring remainder, and the shares of absent ranks when fewer than
	// three entrants, both go to rank 1.
	winnings[ranked[0].PlayerID] += pool - paid

	return winnings
}

func proportional(ranked []Entrant, pool int64) map[string]int64 {
	var totalScore int64
	for _, e := range ranked {
		totalScore += e.Score
	}

	// Nobody scored: defined fallback is winner-take-all to the earliest
	// joiner, which Rank already placed first.
	if totalScore == 0 {
		return winnerTakeAll(ranked, pool)
	}

	winnings := zeroed(ranked)
	dPool := decimal.NewFromInt(pool)
	dTotal := decimal.NewFromInt(totalScore)

	var paid int64
	for _, e := range ranked {
		w := dPool.Mul(decimal.NewFromInt(e.Score)).Div(dTotal).Floor().IntPart()
		winnings[e.PlayerID] = w
		paid += w
	}

	// Leftover from flooring goes to the highest scorer.
	winnings[ranked[0].PlayerID] += pool - paid

	return winnings
}

func zeroed(entrants []Entrant) map[string]int64 {
	m := make(map[string]int64, len(entrants))
	for _, e := range entrants {
		m[e.PlayerID] = 0
	}
	return m
}
