package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/ledger"
)

// ReportUseCase builds group balances locally and fetches remote reports.
type ReportUseCase struct {
	groups      GroupGateway
	expenses    ExpenseGateway
	settlements SettlementGateway
	reports     ReportGateway
	cache       Cache
	timing      Timing
	now         func() time.Time
}

// NewReportUseCase creates a new ReportUseCase.
func NewReportUseCase(
	groups GroupGateway,
	expenses ExpenseGateway,
	settlements SettlementGateway,
	reports ReportGateway,
	cache Cache,
	timing Timing,
) *ReportUseCase {
	return &ReportUseCase{
		groups:      groups,
		expenses:    expenses,
		settlements: settlements,
		reports:     reports,
		cache:       cache,
		timing:      timing.withDefaults(),
		now:         time.Now,
	}
}

// SetClock overrides the time source.
func (uc *ReportUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// GroupBalances fetches a group with its expenses and settlements and computes
// balances, suggested settlements and an expense summary.
func (uc *ReportUseCase) GroupBalances(ctx context.Context, session *domain.Session, groupID string) (*domain.GroupReport, error) {
	if err := checkSession(session, uc.now()); err != nil {
		return nil, err
	}
	if strings.TrimSpace(groupID) == "" {
		return nil, fmt.Errorf("%w: group id is required", domain.ErrInvalidInput)
	}

	var (
		group       *domain.Group
		expenses    []domain.Expense
		settlements []domain.Settlement
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		group, err = findGroup(gctx, uc.groups, session, groupID)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = listExpenses(gctx, uc.cache, uc.expenses, session, groupID, uc.timing.CacheTTL)
		return err
	})
	g.Go(func() error {
		var err error
		settlements, err = listSettlements(gctx, uc.cache, uc.settlements, session, groupID, uc.timing.CacheTTL)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	members := group.AcceptedMembers()
	balances := ledger.ComputeBalances(expenses, settlements, members)

	everyone := make([]domain.Member, 0, len(group.Members))
	for _, gm := range group.Members {
		everyone = append(everyone, gm.Member)
	}

	return &domain.GroupReport{
		Group:       *group,
		Expenses:    expenses,
		Settlements: settlements,
		Balances:    balances,
		Suggestions: ledger.SuggestSettlements(balances),
		Summary:     ledger.Summarize(expenses, everyone),
		GeneratedAt: uc.now().UTC(),
	}, nil
}

// UserReport fetches the session user's report. Each group keeps its recent
// activity only, newest first; recent <= 0 keeps everything.
func (uc *ReportUseCase) UserReport(ctx context.Context, session *domain.Session, recent int) (*domain.UserReport, error) {
	if err := checkSession(session, uc.now()); err != nil {
		return nil, err
	}

	report, err := uc.reports.UserReport(ctx, session, session.User.ID)
	if err != nil {
		return nil, err
	}

	if recent <= 0 {
		recent = -1
	}
	for i := range report.Groups {
		report.Groups[i].Expenses = ledger.RecentExpenses(report.Groups[i].Expenses, recent)
		report.Groups[i].Settlements = ledger.RecentSettlements(report.Groups[i].Settlements, recent)
	}

	return report, nil
}

// Export downloads a group report produced by the remote API. The artifact keeps
// the filename the server suggests, falling back to ExportFilename.
func (uc *ReportUseCase) Export(ctx context.Context, session *domain.Session, groupID string, format domain.ExportFormat) (*domain.Artifact, error) {
	if err := checkSession(session, uc.now()); err != nil {
		return nil, err
	}

	group, err := findGroup(ctx, uc.groups, session, groupID)
	if err != nil {
		return nil, err
	}

	artifact, err := uc.reports.Export(ctx, session, group.ID, format)
	if err != nil {
		return nil, err
	}

	artifact.Filename = baseFilename(artifact.Filename)
	if artifact.Filename == "" {
		artifact.Filename = ExportFilename(group.Name, format)
	}

	return artifact, nil
}

// baseFilename strips any directory part from a server-suggested filename.
func baseFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	switch name {
	case ".", "..", "/":
		return ""
	}
	return name
}

// ExportFilename returns "<group>_report.<ext>" with path separators replaced.
func ExportFilename(groupName string, format domain.ExportFormat) string {
	name := strings.TrimSpace(groupName)
	if name == "" {
		name = "group"
	}
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	return name + "_report." + format.Extension()
}
