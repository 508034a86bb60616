package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	regSequenceDigits = 3
	regSequenceMax    = 999
)

type regNumberRepository interface {
	MaxRegNumberWithPrefix(ctx context.Context, prefix string) (string, error)
}

// NextRegistrationNumber derives the successor of currentMax within year. It never fails:
// no current value, a suffix that is not three digits, or a sequence past 999 all restart
// at <year>001. The restart can collide with an existing number; the unique constraint on
// students.reg_number rejects that collision at insert time.
func NextRegistrationNumber(year, currentMax string) string {
	first := year + fmt.Sprintf("%0*d", regSequenceDigits, 1)
	if currentMax == "" || !strings.HasPrefix(currentMax, year) {
		return first
	}
	suffix := strings.TrimPrefix(currentMax, year)
	if len(suffix) != regSequenceDigits || strings.Trim(suffix, "0123456789") != "" {
		return first
	}
	seq, err := strconv.Atoi(suffix)
	if err != nil || seq >= regSequenceMax {
		return first
	}
	return year + fmt.Sprintf("%0*d", regSequenceDigits, seq+1)
}

// RegistrationNumberGenerator proposes the next sequential registration number.
type RegistrationNumberGenerator struct {
	repo    regNumberRepository
	logger  *zap.Logger
	metrics *MetricsService
}

// NewRegistrationNumberGenerator constructs a generator.
func NewRegistrationNumberGenerator(repo regNumberRepository, logger *zap.Logger, metrics *MetricsService) *RegistrationNumberGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationNumberGenerator{repo: repo, logger: logger, metrics: metrics}
}

// Next reads the current maximum for year and returns its successor.
func (g *RegistrationNumberGenerator) Next(ctx context.Context, year string) (string, error) {
	year = strings.TrimSpace(year)
	if len(year) != 4 {
		return "", validationFailure(nil, "year must have four digits")
	}
	if strings.Trim(year, "0123456789") != "" {
		return "", validationFailure(nil, "year must be numeric")
	}

	current, err := g.repo.MaxRegNumberWithPrefix(ctx, year)
	if err != nil {
		return "", storeFailure(g.logger, g.metrics, "read registration numbers", err, zap.String("year", year))
	}

	next := NextRegistrationNumber(year, current)
	if current != "" && next == year+"001" {
		g.logger.Error("registration sequence restarted", zap.String("year", year), zap.String("current_max", current))
	}
	return next, nil
}
