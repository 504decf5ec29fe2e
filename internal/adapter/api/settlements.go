package api

import (
	"context"
	"net/http"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
)

// SettlementGateway implements usecase.SettlementGateway.
type SettlementGateway struct {
	client *Client
}

var _ usecase.SettlementGateway = (*SettlementGateway)(nil)

// NewSettlementGateway creates a new SettlementGateway.
func NewSettlementGateway(client *Client) *SettlementGateway {
	return &SettlementGateway{client: client}
}

// Create records a settlement.
func (g *SettlementGateway) Create(ctx context.Context, session *domain.Session, settlement *domain.Settlement, idempotencyKey string) error {
	var created settlementDTO
	err := g.client.doJSON(ctx, request{
		service:   ServiceSettlements,
		operation: "create",
		method:    http.MethodPost,
		path:      "/settlements/record",
		body: recordSettlementRequest{
			PayerID:    ID(settlement.Payer.ID),
			PayerEmail: settlement.Payer.Email,
			PayeeID:    ID(settlement.Payee.ID),
			PayeeEmail: settlement.Payee.Email,
			Amount:     amount(settlement.Amount),
			Date:       Date{Time: settlement.Date},
			GroupID:    ID(settlement.GroupID),
		},
		session:        session,
		idempotencyKey: idempotencyKey,
	}, &created)
	if err != nil {
		return err
	}

	if created.ID != "" {
		settlement.ID = string(created.ID)
	}
	return nil
}

// ListByGroup lists the settlements of a group.
func (g *SettlementGateway) ListByGroup(ctx context.Context, session *domain.Session, groupID string) ([]domain.Settlement, error) {
	var dtos []settlementDTO
	err := g.client.doJSON(ctx, request{
		service:   ServiceSettlements,
		operation: "list",
		method:    http.MethodGet,
		path:      pathf("/settlements/group/%s", groupID),
		session:   session,
	}, &dtos)
	if err != nil {
		return nil, err
	}

	settlements := make([]domain.Settlement, 0, len(dtos))
	for _, dto := range dtos {
		settlements = append(settlements, dto.settlement(groupID))
	}
	return settlements, nil
}
