package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/splitledger/internal/domain"
)

// SettlementUseCase handles recording and listing settlements.
type SettlementUseCase struct {
	groups      GroupGateway
	settlements SettlementGateway
	cache       Cache
	guard       SubmissionGuard
	idGen       IDGenerator
	timing      Timing
	now         func() time.Time
	logger      zerolog.Logger
}

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(
	groups GroupGateway,
	settlements SettlementGateway,
	cache Cache,
	guard SubmissionGuard,
	idGen IDGenerator,
	timing Timing,
) *SettlementUseCase {
	return &SettlementUseCase{
		groups:      groups,
		settlements: settlements,
		cache:       cache,
		guard:       guard,
		idGen:       idGen,
		timing:      timing.withDefaults(),
		now:         time.Now,
		logger:      zerolog.Nop(),
	}
}

// SetClock overrides the time source used for default dates and expiry checks.
func (uc *SettlementUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// SetLogger sets the logger used for cache and guard failures.
func (uc *SettlementUseCase) SetLogger(logger zerolog.Logger) {
	uc.logger = logger
}

// RecordSettlementInput represents input for recording a payment between members.
type RecordSettlementInput struct {
	GroupID string
	PayerID string
	PayeeID string
	Amount  decimal.Decimal

	// Date defaults to now when zero.
	Date time.Time
}

// Record validates and submits a settlement, then returns the group's refreshed settlements.
func (uc *SettlementUseCase) Record(ctx context.Context, session *domain.Session, input RecordSettlementInput) ([]domain.Settlement, error) {
	if err := checkSession(session, uc.now()); err != nil {
		return nil, err
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if input.PayerID != "" && input.PayerID == input.PayeeID {
		return nil, domain.ErrSamePayerPayee
	}

	group, err := findGroup(ctx, uc.groups, session, input.GroupID)
	if err != nil {
		return nil, err
	}

	accepted := group.AcceptedMembers()

	payer, ok := domain.FindMember(accepted, input.PayerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPayerNotMember, input.PayerID)
	}
	payee, ok := domain.FindMember(accepted, input.PayeeID)
	if !ok {
		return nil, fmt.Errorf("%w: %w %s", domain.ErrInvalidInput, domain.ErrUnknownMember, input.PayeeID)
	}

	date := input.Date
	if date.IsZero() {
		date = uc.now().UTC()
	}

	settlement := &domain.Settlement{
		GroupID: group.ID,
		Payer:   payer,
		Payee:   payee,
		Amount:  input.Amount,
		Date:    date,
	}
	if err := settlement.Validate(); err != nil {
		return nil, err
	}

	key := fingerprint("settlement",
		session.User.ID,
		settlement.GroupID,
		payer.ID,
		payee.ID,
		settlement.Amount.String(),
		settlement.Date.UTC().Format(time.DateOnly),
	)
	acquired, err := uc.guard.Acquire(ctx, key, uc.timing.DuplicateWindow)
	if err == nil && !acquired {
		return nil, domain.ErrDuplicateSubmission
	}

	if err := uc.settlements.Create(ctx, session, settlement, uc.idGen.Generate()); err != nil {
		if relErr := uc.guard.Release(ctx, key); relErr != nil {
			// the key stays held until the duplicate window expires
			uc.logger.Warn().Err(relErr).Str("key", key).Msg("failed to release submission guard")
		}
		return nil, err
	}

	cacheKey := settlementsCachePrefix + settlement.GroupID
	if err := uc.cache.Delete(ctx, cacheKey); err != nil {
		uc.logger.Warn().Err(err).Str("key", cacheKey).Msg("failed to invalidate cache")
	}

	return refreshList(ctx, uc.cache, cacheKey, uc.timing.CacheTTL, func() ([]domain.Settlement, error) {
		return uc.settlements.ListByGroup(ctx, session, settlement.GroupID)
	})
}

// List returns the settlements of a group, served from cache when fresh.
func (uc *SettlementUseCase) List(ctx context.Context, session *domain.Session, groupID string) ([]domain.Settlement, error) {
	if err := checkSession(session, uc.now()); err != nil {
		return nil, err
	}
	if strings.TrimSpace(groupID) == "" {
		return nil, fmt.Errorf("%w: group id is required", domain.ErrInvalidInput)
	}
	return listSettlements(ctx, uc.cache, uc.settlements, session, groupID, uc.timing.CacheTTL)
}

func listSettlements(ctx context.Context, cache Cache, gateway SettlementGateway, session *domain.Session, groupID string, ttl time.Duration) ([]domain.Settlement, error) {
	return cachedList(ctx, cache, settlementsCachePrefix+groupID, ttl, func() ([]domain.Settlement, error) {
		return gateway.ListByGroup(ctx, session, groupID)
	})
}
