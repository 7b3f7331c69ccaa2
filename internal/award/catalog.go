package award

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/awardly/compliance-engine/internal"
)

// Repository defines the data access methods for the award catalog. Soft
// deleted rows are filtered at the repository level and never surface here.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Award, error)
	GetByType(ctx context.Context, awardType Type) (*Award, error)
	GetAll(ctx context.Context) ([]*Award, error)
	GetLevels(ctx context.Context, awardID uuid.UUID, levelNumber int) ([]*Level, error)
	GetAllLevels(ctx context.Context, awardID uuid.UUID) ([]*Level, error)
}

// Catalog is the read side of the award data: every rate and rule parameter
// the validation pipelines consume goes through here.
type Catalog struct {
	repo   Repository
	logger *slog.Logger
}

func NewCatalog(repo Repository, logger *slog.Logger) *Catalog {
	return &Catalog{repo: repo, logger: logger}
}

// ResolveAward returns the rule snapshot for an award type. The asOf date is
// recorded for logging only; award scalar rules are not effective-dated, the
// levels underneath are.
func (c *Catalog) ResolveAward(ctx context.Context, awardType Type, asOf time.Time) (*RuleSet, error) {
	if !awardType.Valid() {
		return nil, internal.NewValidationError(fmt.Sprintf("unknown award type %q", awardType), internal.ErrCodeValidationFailed)
	}

	a, err := c.repo.GetByType(ctx, awardType)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("award resolved",
		"award_type", awardType,
		"award_code", a.AwardCode,
		"as_of", asOf.Format("2006-01-02"))

	return NewRuleSet(a), nil
}

// ResolveAwardByID is the variant used when the employee record carries an
// award ID rather than a type.
func (c *Catalog) ResolveAwardByID(ctx context.Context, id uuid.UUID) (*RuleSet, error) {
	a, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewRuleSet(a), nil
}

// ResolveLevel picks the pay level row effective on asOf. Among rows whose
// window contains the date, the one with the latest effective_from wins; an
// exact effective_from tie is broken by is_active. Anything still ambiguous is
// a data error, never a guess.
func (c *Catalog) ResolveLevel(ctx context.Context, awardID uuid.UUID, levelNumber int, asOf time.Time) (*Level, error) {
	levels, err := c.repo.GetLevels(ctx, awardID, levelNumber)
	if err != nil {
		return nil, err
	}

	covering := make([]*Level, 0, len(levels))
	for _, l := range levels {
		if l.Covers(asOf) {
			covering = append(covering, l)
		}
	}
	if len(covering) == 0 {
		c.logger.Warn("no award level effective for date",
			"award_id", awardID,
			"level_number", levelNumber,
			"as_of", asOf.Format("2006-01-02"))
		return nil, internal.ErrAwardLevelNotFound
	}

	sort.SliceStable(covering, func(i, j int) bool {
		if !covering[i].EffectiveFrom.Equal(covering[j].EffectiveFrom) {
			return covering[i].EffectiveFrom.After(covering[j].EffectiveFrom)
		}
		return covering[i].IsActive && !covering[j].IsActive
	})

	best := covering[0]
	if len(covering) > 1 {
		next := covering[1]
		if next.EffectiveFrom.Equal(best.EffectiveFrom) && next.IsActive == best.IsActive {
			return nil, internal.NewDataError(
				fmt.Sprintf("ambiguous award level rates for level %d effective %s", levelNumber, asOf.Format("2006-01-02")), nil)
		}
	}
	return best, nil
}

// ResolveLevelRate returns the hourly rate for the employment type at asOf.
func (c *Catalog) ResolveLevelRate(ctx context.Context, awardID uuid.UUID, levelNumber int, et EmploymentType, asOf time.Time) (decimal.Decimal, error) {
	l, err := c.ResolveLevel(ctx, awardID, levelNumber, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return l.Rate(et), nil
}

// ListAwards returns the live catalog for the API.
func (c *Catalog) ListAwards(ctx context.Context) ([]*Award, error) {
	return c.repo.GetAll(ctx)
}

func (c *Catalog) GetAward(ctx context.Context, id uuid.UUID) (*Award, error) {
	return c.repo.GetByID(ctx, id)
}

// ListLevels returns every level row for an award, historical windows
// included, for the API.
func (c *Catalog) ListLevels(ctx context.Context, awardID uuid.UUID) ([]*Level, error) {
	if _, err := c.repo.GetByID(ctx, awardID); err != nil {
		return nil, err
	}
	return c.repo.GetAllLevels(ctx, awardID)
}
