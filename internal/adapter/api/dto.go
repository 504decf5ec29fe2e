package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/splitledger/internal/domain"
)

// ID is a remote identifier. The API sends numbers; the client keeps strings.
type ID string

// MarshalJSON writes numeric IDs as JSON numbers and anything else as a string.
func (id ID) MarshalJSON() ([]byte, error) {
	s := string(id)
	if s != "" && strings.Trim(s, "0123456789") == "" {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// Amount is a money value sent as a plain JSON number.
type Amount struct {
	decimal.Decimal
}

// MarshalJSON writes the amount without quotes.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	return a.Decimal.UnmarshalJSON(data)
}

func amount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// dateLayout is the calendar-day format the API uses for expense and settlement dates.
const dateLayout = time.DateOnly

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", dateLayout}

// Date is a calendar day on the wire. Timestamps are accepted when reading.
type Date struct {
	time.Time
}

// MarshalJSON writes the day as YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.UTC().Format(dateLayout))
}

// UnmarshalJSON parses a day or a timestamp.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type userDTO struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u userDTO) member() domain.Member {
	return domain.Member{ID: string(u.ID), Name: u.Name, Email: u.Email}
}

func (u userDTO) user() domain.User {
	return domain.User{ID: string(u.ID), Name: u.Name, Email: u.Email}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type memberDTO struct {
	User     userDTO `json:"user"`
	Accepted bool    `json:"accepted"`
}

type groupDTO struct {
	ID          ID          `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Members     []memberDTO `json:"members"`
}

func (g groupDTO) group() domain.Group {
	members := make([]domain.GroupMember, 0, len(g.Members))
	for _, m := range g.Members {
		members = append(members, domain.GroupMember{Member: m.User.member(), Accepted: m.Accepted})
	}
	return domain.Group{ID: string(g.ID), Name: g.Name, Description: g.Description, Members: members}
}

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type addMemberRequest struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type inviteRequest struct {
	GroupID ID     `json:"groupId"`
	Email   string `json:"email"`
}

type joinRequest struct {
	Name string `json:"name,omitempty"`
}

type splitDTO struct {
	ID    ID      `json:"id,omitempty"`
	User  userDTO `json:"user"`
	Share Amount  `json:"share"`
}

type expenseDTO struct {
	ID          ID         `json:"id"`
	GroupID     ID         `json:"groupId"`
	Amount      Amount     `json:"amount"`
	Description string     `json:"description"`
	Date        Date       `json:"date"`
	Payer       userDTO    `json:"payer"`
	Splits      []splitDTO `json:"splits"`
}

func (e expenseDTO) expense(groupID string) domain.Expense {
	gid := string(e.GroupID)
	if gid == "" {
		gid = groupID
	}

	splits := make([]domain.Split, 0, len(e.Splits))
	for _, s := range e.Splits {
		split := domain.Split{MemberID: string(s.User.ID), Share: s.Share.Decimal}
		if e.Amount.IsPositive() {
			pct := s.Share.Div(e.Amount.Decimal).Mul(decimal.NewFromInt(100)).Round(2)
			split.Percentage = &pct
		}
		splits = append(splits, split)
	}

	return domain.Expense{
		ID:          string(e.ID),
		GroupID:     gid,
		Amount:      e.Amount.Decimal,
		Description: e.Description,
		Date:        e.Date.Time,
		Payer:       e.Payer.member(),
		Splits:      splits,
	}
}

type splitRequest struct {
	UserID ID     `json:"userId"`
	Share  Amount `json:"share"`
}

type addExpenseRequest struct {
	Amount      Amount         `json:"amount"`
	Description string         `json:"description"`
	Date        Date           `json:"date"`
	PayerID     ID             `json:"payerId"`
	PayerEmail  string         `json:"payerEmail,omitempty"`
	GroupID     ID             `json:"groupId"`
	Splits      []splitRequest `json:"splits"`
}

type settlementDTO struct {
	ID      ID      `json:"id"`
	GroupID ID      `json:"groupId"`
	Payer   userDTO `json:"payer"`
	Payee   userDTO `json:"payee"`
	Amount  Amount  `json:"amount"`
	Date    Date    `json:"date"`
}

func (s settlementDTO) settlement(groupID string) domain.Settlement {
	gid := string(s.GroupID)
	if gid == "" {
		gid = groupID
	}
	return domain.Settlement{
		ID:      string(s.ID),
		GroupID: gid,
		Payer:   s.Payer.member(),
		Payee:   s.Payee.member(),
		Amount:  s.Amount.Decimal,
		Date:    s.Date.Time,
	}
}

type recordSettlementRequest struct {
	PayerID    ID     `json:"payerId"`
	PayerEmail string `json:"payerEmail,omitempty"`
	PayeeID    ID     `json:"payeeId"`
	PayeeEmail string `json:"payeeEmail,omitempty"`
	Amount     Amount `json:"amount"`
	Date       Date   `json:"date"`
	GroupID    ID     `json:"groupId"`
}

type groupActivityDTO struct {
	GroupID     ID              `json:"groupId"`
	GroupName   string          `json:"groupName"`
	Expenses    []expenseDTO    `json:"expenses"`
	Settlements []settlementDTO `json:"settlements"`
}

type userReportDTO struct {
	TotalExpenses Amount             `json:"totalExpenses"`
	TotalPaid     Amount             `json:"totalPaid"`
	TotalOwed     Amount             `json:"totalOwed"`
	Balance       Amount             `json:"balance"`
	GroupReports  []groupActivityDTO `json:"groupReports"`
}

func (r userReportDTO) report() *domain.UserReport {
	groups := make([]domain.GroupActivity, 0, len(r.GroupReports))
	for _, g := range r.GroupReports {
		activity := domain.GroupActivity{GroupID: string(g.GroupID), GroupName: g.GroupName}
		for _, e := range g.Expenses {
			activity.Expenses = append(activity.Expenses, e.expense(activity.GroupID))
		}
		for _, s := range g.Settlements {
			activity.Settlements = append(activity.Settlements, s.settlement(activity.GroupID))
		}
		groups = append(groups, activity)
	}

	return &domain.UserReport{
		TotalExpenses: r.TotalExpenses.Decimal,
		TotalPaid:     r.TotalPaid.Decimal,
		TotalOwed:     r.TotalOwed.Decimal,
		Balance:       r.Balance.Decimal,
		Groups:        groups,
	}
}
