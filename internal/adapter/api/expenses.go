package api

import (
	"context"
	"net/http"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
)

// ExpenseGateway implements usecase.ExpenseGateway.
type ExpenseGateway struct {
	client *Client
}

var _ usecase.ExpenseGateway = (*ExpenseGateway)(nil)

// NewExpenseGateway creates a new ExpenseGateway.
func NewExpenseGateway(client *Client) *ExpenseGateway {
	return &ExpenseGateway{client: client}
}

// Create submits an expense. The idempotency key lets the server drop a replayed request.
func (g *ExpenseGateway) Create(ctx context.Context, session *domain.Session, expense *domain.Expense, idempotencyKey string) error {
	splits := make([]splitRequest, 0, len(expense.Splits))
	for _, s := range expense.Splits {
		splits = append(splits, splitRequest{UserID: ID(s.MemberID), Share: amount(s.Share)})
	}

	var created expenseDTO
	err := g.client.doJSON(ctx, request{
		service:   ServiceExpenses,
		operation: "create",
		method:    http.MethodPost,
		path:      "/expenses/add",
		body: addExpenseRequest{
			Amount:      amount(expense.Amount),
			Description: expense.Description,
			Date:        Date{Time: expense.Date},
			PayerID:     ID(expense.Payer.ID),
			PayerEmail:  expense.Payer.Email,
			GroupID:     ID(expense.GroupID),
			Splits:      splits,
		},
		session:        session,
		idempotencyKey: idempotencyKey,
	}, &created)
	if err != nil {
		return err
	}

	if created.ID != "" {
		expense.ID = string(created.ID)
	}
	return nil
}

// ListByGroup lists the expenses of a group.
func (g *ExpenseGateway) ListByGroup(ctx context.Context, session *domain.Session, groupID string) ([]domain.Expense, error) {
	var dtos []expenseDTO
	err := g.client.doJSON(ctx, request{
		service:   ServiceExpenses,
		operation: "list",
		method:    http.MethodGet,
		path:      pathf("/expenses/group/%s", groupID),
		session:   session,
	}, &dtos)
	if err != nil {
		return nil, err
	}

	expenses := make([]domain.Expense, 0, len(dtos))
	for _, dto := range dtos {
		expenses = append(expenses, dto.expense(groupID))
	}
	return expenses, nil
}

// Notify asks the server to email the members of an expense.
func (g *ExpenseGateway) Notify(ctx context.Context, session *domain.Session, expenseID string) error {
	return g.client.doJSON(ctx, request{
		service:   ServiceExpenses,
		operation: "notify",
		method:    http.MethodPost,
		path:      pathf("/expenses/notify/%s", expenseID),
		session:   session,
	}, nil)
}
