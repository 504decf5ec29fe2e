package api

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/splitledger/internal/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAuthGateway_Login(t *testing.T) {
	env := newTestEnv(t)
	id := env.server.AddUser("Ann Lee", "ann@example.com", "secret1")

	session, err := NewAuthGateway(env.client).Login(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)

	assert.NotEmpty(t, session.Token)
	assert.Equal(t, id, session.User.ID)
	assert.Equal(t, "Ann Lee", session.User.Name)
	assert.Equal(t, "ann@example.com", session.User.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)
	assert.False(t, session.IssuedAt.IsZero())
}

func TestAuthGateway_LoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.server.AddUser("Ann Lee", "ann@example.com", "secret1")

	_, err := NewAuthGateway(env.client).Login(context.Background(), "ann@example.com", "wrong-password")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_credentials", apiErr.Code)
	assert.Equal(t, "invalid email or password", apiErr.Message)
}

func TestAuthGateway_RegisterAndReset(t *testing.T) {
	env := newTestEnv(t)
	gateway := NewAuthGateway(env.client)
	ctx := context.Background()

	require.NoError(t, gateway.Register(ctx, "Ann Lee", "ann@example.com", "secret1"))

	err := gateway.Register(ctx, "Ann Lee", "ann@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, gateway.ForgotPassword(ctx, "ann@example.com"))
	token := env.server.ResetToken("ann@example.com")
	require.NotEmpty(t, token)

	require.NoError(t, gateway.ResetPassword(ctx, token, "newsecret"))

	_, err = gateway.Login(ctx, "ann@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = gateway.Login(ctx, "ann@example.com", "newsecret")
	assert.NoError(t, err)

	err = gateway.ResetPassword(ctx, token, "again-secret")
	assert.ErrorIs(t, err, domain.ErrRemoteRejected)
}

func TestGroupGateway_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	ann := env.login(t, "Ann Lee", "ann@example.com")
	bob := env.login(t, "Bob Stone", "bob@example.com")
	gateway := NewGroupGateway(env.client)
	ctx := context.Background()

	group, err := gateway.Create(ctx, ann, "Trip", "Summer")
	require.NoError(t, err)
	assert.Equal(t, "Trip", group.Name)
	assert.Equal(t, "Summer", group.Description)
	assert.NotEmpty(t, group.ID)

	require.NoError(t, gateway.AddMember(ctx, ann, group.ID, ann.User.Email))
	require.NoError(t, gateway.Invite(ctx, ann, group.ID, bob.User.Email))

	pending, err := gateway.PendingInvitations(ctx, bob)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, group.ID, pending[0].ID)

	require.NoError(t, gateway.Accept(ctx, bob, group.ID))

	mine, err := gateway.ListMine(ctx, ann)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	members := mine[0].AcceptedMembers()
	require.Len(t, members, 2)
	assert.Equal(t, ann.User.ID, members[0].ID)
	assert.Equal(t, bob.User.ID, members[1].ID)
	assert.Equal(t, "Bob Stone", members[1].Name)

	require.NoError(t, gateway.RemoveMember(ctx, ann, group.ID, bob.User.Email))
	mine, err = gateway.ListMine(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, mine)

	require.NoError(t, gateway.Join(ctx, bob, group.ID))
	mine, err = gateway.ListMine(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, gateway.Delete(ctx, ann, group.ID))
	mine, err = gateway.ListMine(ctx, ann)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestGroupGateway_Decline(t *testing.T) {
	env := newTestEnv(t)
	ann := env.login(t, "Ann Lee", "ann@example.com")
	bob := env.login(t, "Bob Stone", "bob@example.com")
	gateway := NewGroupGateway(env.client)
	ctx := context.Background()

	groupID := env.server.AddGroup("Flat", "ann@example.com")
	require.NoError(t, gateway.Invite(ctx, ann, groupID, bob.User.Email))
	require.NoError(t, gateway.Decline(ctx, bob, groupID))

	pending, err := gateway.PendingInvitations(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, pending)

	err = gateway.Accept(ctx, bob, groupID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExpenseGateway_CreateAndList(t *testing.T) {
	env := newTestEnv(t)
	ann := env.login(t, "Ann Lee", "ann@example.com")
	bob := env.login(t, "Bob Stone", "bob@example.com")
	groupID := env.server.AddGroup("Trip", "ann@example.com", "bob@example.com")
	gateway := NewExpenseGateway(env.client)
	ctx := context.Background()

	expense := &domain.Expense{
		GroupID:     groupID,
		Amount:      d("90.00"),
		Description: "Dinner",
		Date:        time.Date(2024, 5, 1, 19, 30, 0, 0, time.UTC),
		Payer:       ann.User.AsMember(),
		Splits: []domain.Split{
			{MemberID: ann.User.ID, Share: d("60.00")},
			{MemberID: bob.User.ID, Share: d("30.00")},
		},
	}

	require.NoError(t, gateway.Create(ctx, ann, expense, "01HXKEY"))
	assert.NotEmpty(t, expense.ID)

	requests := env.server.Requests()
	assert.Equal(t, "01HXKEY", requests[len(requests)-1].IdempotencyKey)

	expenses, err := gateway.ListByGroup(ctx, bob, groupID)
	require.NoError(t, err)
	require.Len(t, expenses, 1)

	got := expenses[0]
	assert.Equal(t, expense.ID, got.ID)
	assert.Equal(t, groupID, got.GroupID)
	assert.True(t, d("90").Equal(got.Amount))
	assert.Equal(t, "Dinner", got.Description)
	assert.Equal(t, "2024-05-01", got.Date.Format(time.DateOnly))
	assert.Equal(t, ann.User.ID, got.Payer.ID)
	require.Len(t, got.Splits, 2)
	assert.Equal(t, bob.User.ID, got.Splits[1].MemberID)
	assert.True(t, d("30").Equal(got.Splits[1].Share))
	require.NotNil(t, got.Splits[1].Percentage)
	assert.Equal(t, "33.33", got.Splits[1].Percentage.StringFixed(2))
	assert.NoError(t, got.Validate())

	require.NoError(t, gateway.Notify(ctx, ann, expense.ID))
	assert.Equal(t, []string{expense.ID}, env.server.Notified())
}

func TestExpenseGateway_ReplayedKeyIsStoredOnce(t *testing.T) {
	env := newTestEnv(t)
	ann := env.login(t, "Ann Lee", "ann@example.com")
	groupID := env.server.AddGroup("Trip", "ann@example.com")
	gateway := NewExpenseGateway(env.client)
	ctx := context.Background()

	newExpense := func() *domain.Expense {
		return &domain.Expense{
			GroupID:     groupID,
			Amount:      d("12.50"),
			Description: "Coffee",
			Date:        time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
			Payer:       ann.User.AsMember(),
			Splits:      []domain.Split{{MemberID: ann.User.ID, Share: d("12.50")}},
		}
	}

	first, second := newExpense(), newExpense()
	require.NoError(t, gateway.Create(ctx, ann, first, "same-key"))
	require.NoError(t, gateway.Create(ctx, ann, second, "same-key"))

	assert.Equal(t, 1, env.server.ExpenseCount())
	assert.Equal(t, first.ID, second.ID)
}

func TestExpenseGateway_RemoteRejectsMismatch(t *testing.T) {
	env := newTestEnv(t)
	ann := env.login(t, "Ann Lee", "ann@example.com")
	groupID := env.server.AddGroup("Trip", "ann@example.com")

	err := NewExpenseGateway(env.client).Create(context.Background(), ann, &domain.Expense{
		GroupID:     groupID,
		Amount:      d("100"),
		Description: "Hotel",
		Payer:       ann.User.AsMember(),
		Splits:      []domain.Split{{MemberID: ann.User.ID, Share: d("99")}},
	}, "")

	assert.ErrorIs(t, err, domain.ErrRemoteRejected)
	assert.Equal(t, 0, env.server.ExpenseCount())
}

func TestSettlementGateway_CreateAndList(t *testing.T) {
	env := newTestEnv(t)
	ann := env.login(t, "Ann Lee", "ann@example.com")
	bob := env.login(t, "Bob Stone", "bob@example.com")
	groupID := env.server.AddGroup("Trip", "ann@example.com", "bob@example.com")
	gateway := NewSettlementGateway(env.client)
	ctx := context.Background()

	settlement := &domain.Settlement{
		GroupID: groupID,
		Payer:   bob.User.AsMember(),
		Payee:   ann.User.AsMember(),
		Amount:  d("30.00"),
		Date:    time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, gateway.Create(ctx, bob, settlement, "settle-1"))
	assert.NotEmpty(t, settlement.ID)

	settlements, err := gateway.ListByGroup(ctx, ann, groupID)
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	assert.Equal(t, bob.User.ID, settlements[0].Payer.ID)
	assert.Equal(t, ann.User.ID, settlements[0].Payee.ID)
	assert.True(t, d("30").Equal(settlements[0].Amount))
	assert.Equal(t, "2024-05-03", settlements[0].Date.Format(time.DateOnly))
}

func TestReportGateway_UserReport(t *testing.T) {
	env := newTestEnv(t)
	ann := env.login(t, "Ann Lee", "ann@example.com")
	bob := env.login(t, "Bob Stone", "bob@example.com")
	groupID := env.server.AddGroup("Trip", "ann@example.com", "bob@example.com")
	ctx := context.Background()

	require.NoError(t, NewExpenseGateway(env.client).Create(ctx, ann, &domain.Expense{
		GroupID:     groupID,
		Amount:      d("90"),
		Description: "Dinner",
		Date:        time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Payer:       ann.User.AsMember(),
		Splits: []domain.Split{
			{MemberID: ann.User.ID, Share: d("45")},
			{MemberID: bob.User.ID, Share: d("45")},
		},
	}, ""))

	report, err := NewReportGateway(env.client).UserReport(ctx, ann, ann.User.ID)
	require.NoError(t, err)

	assert.True(t, d("90").Equal(report.TotalExpenses))
	assert.True(t, d("90").Equal(report.TotalPaid))
	assert.True(t, d("45").Equal(report.TotalOwed))
	assert.True(t, d("45").Equal(report.Balance))
	require.Len(t, report.Groups, 1)
	assert.Equal(t, "Trip", report.Groups[0].GroupName)
	assert.Len(t, report.Groups[0].Expenses, 1)
	assert.Equal(t, groupID, report.Groups[0].Expenses[0].GroupID)
}

func TestReportGateway_Export(t *testing.T) {
	env := newTestEnv(t)
	ann := env.login(t, "Ann Lee", "ann@example.com")
	groupID := env.server.AddGroup("Trip", "ann@example.com")
	gateway := NewReportGateway(env.client)

	tests := []struct {
		format      domain.ExportFormat
		contentType string
		prefix      string
	}{
		{domain.ExportExcel, "application/vnd.ms-excel", "XLS report"},
		{domain.ExportPDF, "application/pdf", "PDF report"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			artifact, err := gateway.Export(context.Background(), ann, groupID, tt.format)
			require.NoError(t, err)

			assert.Equal(t, tt.contentType, artifact.ContentType)
			assert.Equal(t, "group-"+groupID+"."+tt.format.Extension(), artifact.Filename)
			assert.Contains(t, string(artifact.Data), tt.prefix)
		})
	}
}
