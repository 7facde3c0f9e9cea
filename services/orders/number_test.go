package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mostafa20220/mini-erp/services/common"
)

type stubNumberRepo struct {
	last string
	err  error
}

func (s *stubNumberRepo) LastNumberForPrefix(ctx context.Context, tx common.Tx, prefix string) (string, error) {
	return s.last, s.err
}

func fixedClock() time.Time {
	return time.Date(2026, 8, 28, 15, 4, 5, 0, time.UTC)
}

func TestNumberGenerator_FirstOfTheDay(t *testing.T) {
	g := NewNumberGenerator(&stubNumberRepo{last: ""})
	g.now = fixedClock

	number, err := g.Next(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, "ORD-20260828-0001", number)
}

func TestNumberGenerator_Increments(t *testing.T) {
	g := NewNumberGenerator(&stubNumberRepo{last: "ORD-20260828-0041"})
	g.now = fixedClock

	number, err := g.Next(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, "ORD-20260828-0042", number)
}

func TestNumberGenerator_ZeroPadding(t *testing.T) {
	g := NewNumberGenerator(&stubNumberRepo{last: "ORD-20260828-0999"})
	g.now = fixedClock

	number, err := g.Next(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, "ORD-20260828-1000", number)
}

func TestNumberGenerator_SequenceExhausted(t *testing.T) {
	g := NewNumberGenerator(&stubNumberRepo{last: "ORD-20260828-9999"})
	g.now = fixedClock

	_, err := g.Next(context.Background(), nil)

	var capacity *common.CapacityError
	require.ErrorAs(t, err, &capacity)
	assert.Contains(t, capacity.Msg, "ORD-20260828")
}

func TestNumberGenerator_MalformedLastNumber(t *testing.T) {
	g := NewNumberGenerator(&stubNumberRepo{last: "ORD-20260828-XYZ"})
	g.now = fixedClock

	_, err := g.Next(context.Background(), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed order number")
}

func TestNumberGenerator_RepositoryError(t *testing.T) {
	g := NewNumberGenerator(&stubNumberRepo{err: errors.New("connection reset")})
	g.now = fixedClock

	_, err := g.Next(context.Background(), nil)

	require.Error(t, err)
}

func TestNumberGenerator_StrictlyIncreasing(t *testing.T) {
	repo := &stubNumberRepo{}
	g := NewNumberGenerator(repo)
	g.now = fixedClock

	var previous string
	for i := 1; i <= 50; i++ {
		number, err := g.Next(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("ORD-20260828-%04d", i), number)
		assert.Greater(t, number, previous)
		previous = number
		repo.last = number
	}
}
