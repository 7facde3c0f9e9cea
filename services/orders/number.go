package orders

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mostafa20220/mini-erp/services/common"
)

const (
	orderNumberPrefix = "ORD"
	maxDailySequence  = 9999
)

// NumberRepository is the slice of storage the generator needs.
type NumberRepository interface {
	// LastNumberForPrefix returns the highest order number starting with
	// prefix, or "" when none exists.
	LastNumberForPrefix(ctx context.Context, tx common.Tx, prefix string) (string, error)
}

// NumberGenerator produces date-scoped sequential order numbers of the
// form ORD-YYYYMMDD-NNNN. Uniqueness is ultimately guaranteed by the
// constraint on orders.order_number; callers retry once on conflict.
type NumberGenerator struct {
	repo NumberRepository
	now  func() time.Time
}

func NewNumberGenerator(repo NumberRepository) *NumberGenerator {
	return &NumberGenerator{repo: repo, now: time.Now}
}

func (g *NumberGenerator) Next(ctx context.Context, tx common.Tx) (string, error) {
	prefix := fmt.Sprintf("%s-%s", orderNumberPrefix, g.now().Format("20060102"))

	last, err := g.repo.LastNumberForPrefix(ctx, tx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to read last order number: %w", err)
	}

	sequence := 1
	if last != "" {
		parts := strings.Split(last, "-")
		n, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			return "", fmt.Errorf("malformed order number %q: %w", last, err)
		}
		sequence = n + 1
	}

	if sequence > maxDailySequence {
		return "", &common.CapacityError{
			Msg: fmt.Sprintf("order number sequence exhausted for %s", prefix),
		}
	}

	return fmt.Sprintf("%s-%04d", prefix, sequence), nil
}
