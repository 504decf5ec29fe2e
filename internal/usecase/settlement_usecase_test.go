package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
	"github.com/iho/splitledger/internal/usecase/mocks"
)

func TestSettlementUseCase_Record(t *testing.T) {
	tests := []struct {
		name        string
		input       usecase.RecordSettlementInput
		expectError error
	}{
		{
			name:  "bob pays ann",
			input: usecase.RecordSettlementInput{GroupID: "10", PayerID: bob.ID, PayeeID: ann.ID, Amount: d("30")},
		},
		{
			name:        "same payer and payee",
			input:       usecase.RecordSettlementInput{GroupID: "10", PayerID: bob.ID, PayeeID: bob.ID, Amount: d("30")},
			expectError: domain.ErrSamePayerPayee,
		},
		{
			name:        "negative amount",
			input:       usecase.RecordSettlementInput{GroupID: "10", PayerID: bob.ID, PayeeID: ann.ID, Amount: d("-1")},
			expectError: domain.ErrInvalidAmount,
		},
		{
			name:        "payer only invited",
			input:       usecase.RecordSettlementInput{GroupID: "10", PayerID: dan.ID, PayeeID: ann.ID, Amount: d("5")},
			expectError: domain.ErrPayerNotMember,
		},
		{
			name:        "payee outside the group",
			input:       usecase.RecordSettlementInput{GroupID: "10", PayerID: bob.ID, PayeeID: "42", Amount: d("5")},
			expectError: domain.ErrUnknownMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			groups := mocks.NewMockGroupGateway(ctrl)
			groups.EXPECT().ListMine(gomock.Any(), gomock.Any()).Return([]domain.Group{trip()}, nil).AnyTimes()

			settlements := mocks.NewMockSettlementGateway(ctrl)
			if tt.expectError == nil {
				settlements.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), "key-1").DoAndReturn(
					func(_ context.Context, _ *domain.Session, s *domain.Settlement, _ string) error {
						assert.Equal(t, bob.ID, s.Payer.ID)
						assert.Equal(t, ann.ID, s.Payee.ID)
						assert.Equal(t, "10", s.GroupID)
						return nil
					})
				settlements.EXPECT().ListByGroup(gomock.Any(), gomock.Any(), "10").
					Return([]domain.Settlement{{ID: "7", Payer: bob, Payee: ann, Amount: d("30")}}, nil)
			}

			uc := usecase.NewSettlementUseCase(groups, settlements, newMemoryCache(), newMemoryGuard(), &sequenceIDs{}, usecase.Timing{})
			uc.SetClock(func() time.Time { return fixedNow })

			list, err := uc.Record(context.Background(), testSession(), tt.input)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected %v, got %v", tt.expectError, err)
				}
				return
			}
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestSettlementUseCase_Record_Duplicate(t *testing.T) {
	ctrl := gomock.NewController(t)

	groups := mocks.NewMockGroupGateway(ctrl)
	groups.EXPECT().ListMine(gomock.Any(), gomock.Any()).Return([]domain.Group{trip()}, nil).AnyTimes()

	settlements := mocks.NewMockSettlementGateway(ctrl)
	settlements.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)
	settlements.EXPECT().ListByGroup(gomock.Any(), gomock.Any(), "10").Return(nil, nil)

	uc := usecase.NewSettlementUseCase(groups, settlements, newMemoryCache(), newMemoryGuard(), &sequenceIDs{}, usecase.Timing{})
	uc.SetClock(func() time.Time { return fixedNow })

	input := usecase.RecordSettlementInput{GroupID: "10", PayerID: cid.ID, PayeeID: ann.ID, Amount: d("12")}

	_, err := uc.Record(context.Background(), testSession(), input)
	require.NoError(t, err)

	_, err = uc.Record(context.Background(), testSession(), input)
	assert.ErrorIs(t, err, domain.ErrDuplicateSubmission)
}

func TestSettlementUseCase_Record_RefreshesWhenInvalidationFails(t *testing.T) {
	ctrl := gomock.NewController(t)

	groups := mocks.NewMockGroupGateway(ctrl)
	groups.EXPECT().ListMine(gomock.Any(), gomock.Any()).Return([]domain.Group{trip()}, nil).AnyTimes()

	stored := []domain.Settlement{}
	settlements := mocks.NewMockSettlementGateway(ctrl)
	settlements.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ *domain.Session, s *domain.Settlement, _ string) error {
			s.ID = "7"
			stored = append(stored, *s)
			return nil
		})
	settlements.EXPECT().ListByGroup(gomock.Any(), gomock.Any(), "10").DoAndReturn(
		func(context.Context, *domain.Session, string) ([]domain.Settlement, error) {
			return stored, nil
		}).Times(2)

	var logs bytes.Buffer
	uc := usecase.NewSettlementUseCase(groups, settlements, stuckCache{newMemoryCache()}, newMemoryGuard(), &sequenceIDs{}, usecase.Timing{})
	uc.SetClock(func() time.Time { return fixedNow })
	uc.SetLogger(zerolog.New(&logs))

	ctx := context.Background()
	session := testSession()

	before, err := uc.List(ctx, session, "10")
	require.NoError(t, err)
	assert.Empty(t, before)

	list, err := uc.Record(ctx, session, usecase.RecordSettlementInput{GroupID: "10", PayerID: bob.ID, PayeeID: ann.ID, Amount: d("30")})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "7", list[0].ID)
	assert.Contains(t, logs.String(), "failed to invalidate cache")
}
