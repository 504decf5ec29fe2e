package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/ledger"
)

// ExpenseUseCase handles expense entry and listing.
type ExpenseUseCase struct {
	groups   GroupGateway
	expenses ExpenseGateway
	cache    Cache
	guard    SubmissionGuard
	idGen    IDGenerator
	timing   Timing
	now      func() time.Time
	logger   zerolog.Logger
}

// NewExpenseUseCase creates a new ExpenseUseCase.
func NewExpenseUseCase(
	groups GroupGateway,
	expenses ExpenseGateway,
	cache Cache,
	guard SubmissionGuard,
	idGen IDGenerator,
	timing Timing,
) *ExpenseUseCase {
	return &ExpenseUseCase{
		groups:   groups,
		expenses: expenses,
		cache:    cache,
		guard:    guard,
		idGen:    idGen,
		timing:   timing.withDefaults(),
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
}

// SetClock overrides the time source used for default dates and expiry checks.
func (uc *ExpenseUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// SetLogger sets the logger used for cache and guard failures.
func (uc *ExpenseUseCase) SetLogger(logger zerolog.Logger) {
	uc.logger = logger
}

// RecordExpenseInput represents input for recording an expense.
type RecordExpenseInput struct {
	GroupID     string
	PayerID     string
	Amount      decimal.Decimal
	Description string

	// Date defaults to now when zero.
	Date     time.Time
	Strategy domain.SplitStrategy

	// Participants limits the split to these member IDs. Empty means every accepted member.
	Participants []string

	// Overrides holds percentages or absolute shares, depending on Strategy.
	Overrides map[string]decimal.Decimal
}

// Preview computes the splits an expense would get without submitting it.
func (uc *ExpenseUseCase) Preview(ctx context.Context, session *domain.Session, input RecordExpenseInput) (*domain.Expense, error) {
	if err := checkSession(session, uc.now()); err != nil {
		return nil, err
	}
	return uc.plan(ctx, session, input)
}

// Record validates and submits an expense, then returns the group's refreshed expense list.
func (uc *ExpenseUseCase) Record(ctx context.Context, session *domain.Session, input RecordExpenseInput) ([]domain.Expense, error) {
	if err := checkSession(session, uc.now()); err != nil {
		return nil, err
	}

	expense, err := uc.plan(ctx, session, input)
	if err != nil {
		return nil, err
	}

	key := expenseFingerprint(session, expense)
	acquired, err := uc.guard.Acquire(ctx, key, uc.timing.DuplicateWindow)
	if err == nil && !acquired {
		return nil, domain.ErrDuplicateSubmission
	}

	if err := uc.expenses.Create(ctx, session, expense, uc.idGen.Generate()); err != nil {
		if relErr := uc.guard.Release(ctx, key); relErr != nil {
			// the key stays held until the duplicate window expires
			uc.logger.Warn().Err(relErr).Str("key", key).Msg("failed to release submission guard")
		}
		return nil, err
	}

	cacheKey := expensesCachePrefix + expense.GroupID
	if err := uc.cache.Delete(ctx, cacheKey); err != nil {
		uc.logger.Warn().Err(err).Str("key", cacheKey).Msg("failed to invalidate cache")
	}

	return refreshList(ctx, uc.cache, cacheKey, uc.timing.CacheTTL, func() ([]domain.Expense, error) {
		return uc.expenses.ListByGroup(ctx, session, expense.GroupID)
	})
}

// List returns the expenses of a group, served from cache when fresh.
func (uc *ExpenseUseCase) List(ctx context.Context, session *domain.Session, groupID string) ([]domain.Expense, error) {
	if err := checkSession(session, uc.now()); err != nil {
		return nil, err
	}
	if strings.TrimSpace(groupID) == "" {
		return nil, fmt.Errorf("%w: group id is required", domain.ErrInvalidInput)
	}
	return listExpenses(ctx, uc.cache, uc.expenses, session, groupID, uc.timing.CacheTTL)
}

// Notify asks the remote API to notify members about an expense.
func (uc *ExpenseUseCase) Notify(ctx context.Context, session *domain.Session, expenseID string) error {
	if err := checkSession(session, uc.now()); err != nil {
		return err
	}
	if strings.TrimSpace(expenseID) == "" {
		return fmt.Errorf("%w: expense id is required", domain.ErrInvalidInput)
	}
	return uc.expenses.Notify(ctx, session, expenseID)
}

func (uc *ExpenseUseCase) plan(ctx context.Context, session *domain.Session, input RecordExpenseInput) (*domain.Expense, error) {
	description := strings.TrimSpace(input.Description)
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(description); err != nil {
		return nil, err
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

	participants, err := selectParticipants(accepted, input.Participants)
	if err != nil {
		return nil, err
	}

	strategy := input.Strategy
	if strategy == "" {
		strategy = domain.SplitEqual
	}

	splits, err := ledger.ComputeSplits(input.Amount, participants, strategy, input.Overrides)
	if err != nil {
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = uc.now().UTC()
	}

	expense := &domain.Expense{
		GroupID:     group.ID,
		Amount:      input.Amount,
		Description: description,
		Date:        date,
		Payer:       payer,
		Splits:      splits,
	}

	if err := expense.Validate(); err != nil {
		return nil, err
	}

	return expense, nil
}

func selectParticipants(accepted []domain.Member, ids []string) ([]domain.Member, error) {
	if len(ids) == 0 {
		return accepted, nil
	}

	participants := make([]domain.Member, 0, len(ids))
	for _, id := range ids {
		m, ok := domain.FindMember(accepted, id)
		if !ok {
			return nil, fmt.Errorf("%w: %w %s", domain.ErrInvalidInput, domain.ErrUnknownMember, id)
		}
		participants = append(participants, m)
	}

	return participants, nil
}

func listExpenses(ctx context.Context, cache Cache, gateway ExpenseGateway, session *domain.Session, groupID string, ttl time.Duration) ([]domain.Expense, error) {
	return cachedList(ctx, cache, expensesCachePrefix+groupID, ttl, func() ([]domain.Expense, error) {
		return gateway.ListByGroup(ctx, session, groupID)
	})
}

func expenseFingerprint(session *domain.Session, e *domain.Expense) string {
	splits := make([]string, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = s.MemberID + "=" + s.Share.String()
	}
	sort.Strings(splits)

	return fingerprint("expense",
		session.User.ID,
		e.GroupID,
		e.Payer.ID,
		e.Amount.String(),
		strings.ToLower(e.Description),
		e.Date.UTC().Format(time.DateOnly),
		strings.Join(splits, ","),
	)
}
