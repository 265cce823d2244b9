package question_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quizpot/quizpot/internal/question"
)

func TestStaticProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("filters by difficulty and category", func(t *testing.T) {
		p := question.NewStaticProvider(question.DefaultBank(), 1)

		qs, err := p.Questions(ctx, "easy", 3, "science")
		require.NoError(t, err)
		require.Len(t, qs, 3)
		for _, q := range qs {
			require.Equal(t, "easy", q.Difficulty)
			require.Equal(t, "science", q.Category)
		}
	})

	t.Run("empty filters match the whole bank", func(t *testing.T) {
		p := question.NewStaticProvider(question.DefaultBank(), 1)

		qs, err := p.Questions(ctx, "", len(question.DefaultBank()), "")
		require.NoError(t, err)
		require.Len(t, qs, len(question.DefaultBank()))
	})

	t.Run("fails when the bank cannot cover the count", func(t *testing.T) {
		p := question.NewStaticProvider(question.DefaultBank(), 1)

		_, err := p.Questions(ctx, "hard", 10, "")
		require.Error(t, err)
	})

	t.Run("selection is reproducible per seed", func(t *testing.T) {
		a, err := question.NewStaticProvider(question.DefaultBank(), 42).Questions(ctx, "", 5, "")
		require.NoError(t, err)
		b, err := question.NewStaticProvider(question.DefaultBank(), 42).Questions(ctx, "", 5, "")
		require.NoError(t, err)

		require.Equal(t, a, b)
	})

	t.Run("questions have answerable options", func(t *testing.T) {
		for _, q := range question.DefaultBank() {
			require.NotEmpty(t, q.Options, q.QuestionID)
			require.GreaterOrEqual(t, q.CorrectIndex, 0, q.QuestionID)
			require.Less(t, q.CorrectIndex, len(q.Options), q.QuestionID)
		}
	})
}
