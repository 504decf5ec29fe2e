package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UserReport is the remote, pre-aggregated summary for the current user.
type UserReport struct {
	TotalExpenses decimal.Decimal
	TotalPaid     decimal.Decimal
	TotalOwed     decimal.Decimal
	Balance       decimal.Decimal
	Groups        []GroupActivity
}

// GroupActivity is one group's section of a user report.
type GroupActivity struct {
	GroupID     string
	GroupName   string
	Expenses    []Expense
	Settlements []Settlement
}

// ExpenseSummary aggregates already-fetched expenses for charts.
type ExpenseSummary struct {
	TotalSpent    decimal.Decimal
	MemberCount   int
	ByDescription []Amounted
	ByMember      []Amounted
}

// Amounted is a labelled amount, sorted largest first in summaries.
type Amounted struct {
	Label  string
	Amount decimal.Decimal
}

// GroupReport is the locally computed report for one group.
type GroupReport struct {
	Group       Group
	Expenses    []Expense
	Settlements []Settlement
	Balances    Balances
	Suggestions []Transfer
	Summary     ExpenseSummary
	GeneratedAt time.Time
}

// ExportFormat selects the artifact produced by the report export endpoint.
type ExportFormat string

const (
	ExportExcel ExportFormat = "excel"
	ExportPDF   ExportFormat = "pdf"
)

// ParseExportFormat parses an export format name.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case ExportExcel:
		return ExportExcel, nil
	case ExportPDF:
		return ExportPDF, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", ErrInvalidInput, s)
	}
}

// Extension returns the file extension the remote service produces for the format.
func (f ExportFormat) Extension() string {
	if f == ExportPDF {
		return "pdf"
	}
	return "xls"
}

// Artifact is a downloaded export.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}
