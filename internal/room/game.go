package room

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/quizpot/quizpot/internal/domain"
	"github.com/quizpot/quizpot/internal/errors"
	"github.com/quizpot/quizpot/internal/payout"
	"github.com/quizpot/quizpot/internal/telemetry"
)

// startQuestion opens question idx and arms its deadline. Runs on the actor.
func (r *Room) startQuestion(idx int) {
	if r.state != domain.RoomStateActive || idx != r.qIdx+1 {
		return
	}

	r.qIdx = idx
	r.qClosed = false
	r.qStartedAt = time.Now()
	r.qDeadline = r.qStartedAt.Add(r.settings.QuestionTime)

	q := r.questions[idx]
	r.publish(context.Background(), domain.EventQuestionStarted{
		RoomID:        r.cfg.ID,
		QuestionIndex: idx,
		QuestionID:    q.QuestionID,
		Text:          q.Text,
		Options:       append([]string(nil), q.Options...),
		Deadline:      r.qDeadline,
	})

	r.after(r.settings.QuestionTime, func() error {
		r.closeQuestion(idx)
		return nil
	})
}

// SubmitAnswer scores one submission for the current question. Duplicates are
// rejected, never overwritten; answers for any other index are rejected.
func (r *Room) SubmitAnswer(ctx context.Context, playerID string, questionIndex, answerIndex int, elapsedSeconds float64) error {
	return r.do(ctx, func() error {
		if r.halted {
			return errors.Internal(fmt.Errorf("room %s is halted", r.cfg.ID))
		}
		if r.state != domain.RoomStateActive {
			return errors.NewReason(errors.ReasonInvalidTransition,
				errors.WithMessagef("cannot answer in a %s room", r.state))
		}

		p := r.find(playerID)
		if p == nil {
			return errors.New(errors.CodeNotFound,
				errors.WithMessagef("player %s not in room %s", playerID, r.cfg.ID))
		}
		if questionIndex != r.qIdx || r.qClosed {
			return errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("question %d is not open, current is %d", questionIndex, r.qIdx))
		}
		if r.answered(p, questionIndex) {
			return errors.NewReason(errors.ReasonDuplicateAnswer,
				errors.WithMessagef("player %s already answered question %d", playerID, questionIndex))
		}

		q := r.questions[questionIndex]
		if answerIndex < 0 || answerIndex >= len(q.Options) {
			return errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("answer index %d out of range", answerIndex))
		}

		maxElapsed := r.settings.QuestionTime.Seconds()
		elapsed := min(max(elapsedSeconds, 0), maxElapsed)

		correct := answerIndex == q.CorrectIndex
		points := r.score(correct, elapsed)

		p.Answers = append(p.Answers, domain.Answer{
			QuestionID:     q.QuestionID,
			QuestionIndex:  questionIndex,
			AnswerIndex:    answerIndex,
			Correct:        correct,
			ElapsedSeconds: elapsed,
			Points:         points,
		})
		p.Score += points

		if r.allAnswered(questionIndex) {
			r.closeQuestion(questionIndex)
		}
		return nil
	})
}

// score implements the monotonically decreasing time bonus.
func (r *Room) score(correct bool, elapsedSeconds float64) int64 {
	if !correct {
		return 0
	}

	points := r.cfg.Scoring.BasePoints - int64(elapsedSeconds*float64(r.cfg.Scoring.DecayPerSecond))
	return max(points, r.cfg.Scoring.MinPoints)
}

// allAnswered reports whether every connected participant submitted for idx.
// Disconnected players never will; the question deadline covers them.
func (r *Room) allAnswered(idx int) bool {
	connected := 0
	for _, p := range r.participants {
		if !p.Connected {
			continue
		}
		connected++
		if !r.answered(p, idx) {
			return false
		}
	}
	return connected > 0
}

func (r *Room) answered(p *participant, idx int) bool {
	return lo.ContainsBy(p.Answers, func(a domain.Answer) bool { return a.QuestionIndex == idx })
}

// closeQuestion ends the answer window for idx exactly once, broadcasts the
// result and advances, completing the room after the last question.
func (r *Room) closeQuestion(idx int) {
	if r.state != domain.RoomStateActive || idx != r.qIdx || r.qClosed {
		return
	}
	r.qClosed = true

	q := r.questions[idx]
	points := make(map[string]int64, len(r.participants))
	for _, p := range r.participants {
		points[p.PlayerID] = 0
		for _, a := range p.Answers {
			if a.QuestionIndex == idx {
				points[p.PlayerID] = a.Points
			}
		}
	}

	r.publish(context.Background(), domain.EventQuestionResult{
		RoomID:        r.cfg.ID,
		QuestionIndex: idx,
		CorrectIndex:  q.CorrectIndex,
		Points:        points,
	})

	if idx == len(r.questions)-1 {
		if err := r.complete(context.Background()); err != nil {
			r.log.Error("room: completion failed", "error", err)
		}
		return
	}

	next := idx + 1
	r.after(r.cfg.Timing.QuestionGap, func() error {
		r.startQuestion(next)
		return nil
	})
}

// ForceComplete ends an active game immediately and settles it. Regular games
// complete on their own when the last question's window closes; this is the
// operator escape hatch, and settlement stays exactly-once either way.
func (r *Room) ForceComplete(ctx context.Context) error {
	return r.do(ctx, func() error {
		if r.state != domain.RoomStateActive && r.state != domain.RoomStateCompleted {
			return errors.NewReason(errors.ReasonInvalidTransition,
				errors.WithMessagef("cannot complete a %s room", r.state))
		}
		return r.complete(ctx)
	})
}

// complete settles the room: final positions, payout computation, and either
// the winning credits or a pending double-down offer. Guarded so settlement
// runs exactly once.
func (r *Room) complete(ctx context.Context) error {
	if r.settled {
		return errors.NewReason(errors.ReasonSettlementAlreadyPerformed,
			errors.WithMessagef("room %s already settled", r.cfg.ID))
	}
	r.settled = true

	r.state = domain.RoomStateCompleted
	now := time.Now()
	r.endedAt = &now

	entrants := lo.Map(r.participants, func(p *participant, i int) payout.Entrant {
		return payout.Entrant{PlayerID: p.PlayerID, Score: p.Score, JoinOrder: i}
	})

	ranked := payout.Rank(entrants)
	byPlayer := make(map[string]*participant, len(r.participants))
	for _, p := range r.participants {
		byPlayer[p.PlayerID] = p
	}
	for pos, e := range ranked {
		byPlayer[e.PlayerID].Position = pos + 1
	}

	winnings, err := payout.Distribute(entrants, r.prizePool, r.settings.Distribution)
	if err != nil {
		// Conservation failure is a bug, not a condition to paper over.
		r.halt(err.Error())
		return errors.Internal(err)
	}

	for id, w := range winnings {
		amount := w
		byPlayer[id].Winnings = &amount
	}

	winner := byPlayer[ranked[0].PlayerID]

	telemetry.RoomsCompletedTotal.Inc()

	offerDoubleDown := r.settings.AllowDoubleDown && r.cfg.Chain != nil && *winner.Winnings > 0

	// Credit everyone except a winner who is about to be offered a chained
	// rematch; their winnings stay held until they respond or the window
	// expires.
	for id, w := range winnings {
		if w == 0 || (offerDoubleDown && id == winner.PlayerID) {
			continue
		}
		if _, err := r.cfg.Ledger.Credit(ctx, id, w, domain.TransactionWinning, r.cfg.ID); err != nil {
			r.halt(fmt.Sprintf("credit winnings for %s: %v", id, err))
			return errors.Internal(err)
		}
	}

	r.publish(ctx, domain.EventGameCompleted{
		RoomID:    r.cfg.ID,
		Standings: r.standings(ranked),
		PrizePool: r.prizePool,
	})

	if offerDoubleDown {
		r.openOffer(ctx, winner.PlayerID, *winner.Winnings)
	}

	r.publishUpdated(ctx)

	if r.cfg.OnTerminal != nil {
		id := r.cfg.ID
		time.AfterFunc(r.cfg.Timing.Retention, func() { r.cfg.OnTerminal(id) })
	}
	return nil
}

func (r *Room) standings(ranked []payout.Entrant) []domain.Standing {
	return lo.Map(ranked, func(e payout.Entrant, i int) domain.Standing {
		p := r.find(e.PlayerID)
		var w int64
		if p.Winnings != nil {
			w = *p.Winnings
		}
		return domain.Standing{PlayerID: e.PlayerID, Position: i + 1, Score: e.Score, Winnings: w}
	})
}

// openOffer publishes the double-down offer and arms its expiry. Runs on the
// actor during settlement.
func (r *Room) openOffer(ctx context.Context, winnerID string, amount int64) {
	r.offer = &pendingOffer{
		winnerID:  winnerID,
		amount:    amount,
		expiresAt: time.Now().Add(r.cfg.Timing.OfferWindow),
	}

	r.publish(ctx, domain.EventDoubleDownOffer{
		RoomID:    r.cfg.ID,
		WinnerID:  winnerID,
		Amount:    amount,
		ExpiresAt: r.offer.expiresAt,
	})

	r.after(r.cfg.Timing.OfferWindow, func() error {
		if r.offer == nil {
			return nil
		}
		// No response within the window counts as a decline.
		return r.settleOffer(context.Background(), r.offer.winnerID, false)
	})
}

// DoubleDownResponse resolves the winner's chained-rematch offer. Only the
// top-ranked participant may respond, and only while the offer is open.
func (r *Room) DoubleDownResponse(ctx context.Context, playerID string, accept bool) error {
	return r.do(ctx, func() error {
		if r.halted {
			return errors.Internal(fmt.Errorf("room %s is halted", r.cfg.ID))
		}
		if r.state != domain.RoomStateCompleted || r.offer == nil {
			return errors.NewReason(errors.ReasonInvalidTransition,
				errors.WithMessagef("no double-down offer open in room %s", r.cfg.ID))
		}
		if playerID != r.offer.winnerID {
			return errors.NewReason(errors.ReasonNotAuthorized,
				errors.WithMessagef("player %s is not the winner of room %s", playerID, r.cfg.ID))
		}

		return r.settleOffer(ctx, playerID, accept)
	})
}

func (r *Room) settleOffer(ctx context.Context, winnerID string, accept bool) error {
	amount := r.offer.amount

	if accept {
		// The chain creates the rematch room and records the single
		// double_down re-stake; the winnings never touch the balance.
		if _, err := r.cfg.Chain(ctx, winnerID, amount, r.cfg.ID, r.settings); err != nil {
			// Offer stays open; the expiry will credit normally if the
			// winner never gets a rematch.
			return err
		}
		r.offer = nil
		r.publishUpdated(ctx)
		return nil
	}

	if _, err := r.cfg.Ledger.Credit(ctx, winnerID, amount, domain.TransactionWinning, r.cfg.ID); err != nil {
		return err
	}
	r.offer = nil
	r.publishUpdated(ctx)
	return nil
}
