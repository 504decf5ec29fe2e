package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
)

// GroupGateway implements usecase.GroupGateway.
type GroupGateway struct {
	client *Client
}

var _ usecase.GroupGateway = (*GroupGateway)(nil)

// NewGroupGateway creates a new GroupGateway.
func NewGroupGateway(client *Client) *GroupGateway {
	return &GroupGateway{client: client}
}

// ListMine lists the groups of the session user.
func (g *GroupGateway) ListMine(ctx context.Context, session *domain.Session) ([]domain.Group, error) {
	return g.list(ctx, session, "list_mine", "/groups/my-groups", url.Values{"adminEmail": {session.User.Email}})
}

// PendingInvitations lists groups the session user was invited to.
func (g *GroupGateway) PendingInvitations(ctx context.Context, session *domain.Session) ([]domain.Group, error) {
	return g.list(ctx, session, "pending_invitations", "/groups/pending-invitations", url.Values{"email": {session.User.Email}})
}

func (g *GroupGateway) list(ctx context.Context, session *domain.Session, operation, path string, query url.Values) ([]domain.Group, error) {
	var dtos []groupDTO
	err := g.client.doJSON(ctx, request{
		service:   ServiceGroups,
		operation: operation,
		method:    http.MethodGet,
		path:      path,
		query:     query,
		session:   session,
	}, &dtos)
	if err != nil {
		return nil, err
	}

	groups := make([]domain.Group, 0, len(dtos))
	for _, dto := range dtos {
		groups = append(groups, dto.group())
	}
	return groups, nil
}

// Create creates a group owned by the session user.
func (g *GroupGateway) Create(ctx context.Context, session *domain.Session, name, description string) (*domain.Group, error) {
	var dto groupDTO
	err := g.client.doJSON(ctx, request{
		service:   ServiceGroups,
		operation: "create",
		method:    http.MethodPost,
		path:      "/groups/create",
		query:     url.Values{"adminEmail": {session.User.Email}},
		body:      createGroupRequest{Name: name, Description: description},
		session:   session,
	}, &dto)
	if err != nil {
		return nil, err
	}

	group := dto.group()
	return &group, nil
}

// AddMember adds a user to a group directly.
func (g *GroupGateway) AddMember(ctx context.Context, session *domain.Session, groupID, email string) error {
	body := addMemberRequest{Email: email}
	if email == session.User.Email {
		body.Name = session.User.Name
	}

	return g.client.doJSON(ctx, request{
		service:   ServiceGroups,
		operation: "add_member",
		method:    http.MethodPost,
		path:      pathf("/groups/%s/add-member", groupID),
		body:      body,
		session:   session,
	}, nil)
}

// Invite sends a group invitation to email.
func (g *GroupGateway) Invite(ctx context.Context, session *domain.Session, groupID, email string) error {
	return g.client.doJSON(ctx, request{
		service:   ServiceGroups,
		operation: "invite",
		method:    http.MethodPost,
		path:      "/groups/invite",
		body:      inviteRequest{GroupID: ID(groupID), Email: email},
		session:   session,
	}, nil)
}

// Accept accepts the session user's invitation to a group.
func (g *GroupGateway) Accept(ctx context.Context, session *domain.Session, groupID string) error {
	return g.membership(ctx, session, "accept", http.MethodPost, pathf("/groups/%s/accept", groupID), nil)
}

// Decline declines the session user's invitation to a group.
func (g *GroupGateway) Decline(ctx context.Context, session *domain.Session, groupID string) error {
	return g.membership(ctx, session, "decline", http.MethodDelete, pathf("/groups/%s/decline", groupID), nil)
}

// Join joins a group by ID.
func (g *GroupGateway) Join(ctx context.Context, session *domain.Session, groupID string) error {
	return g.membership(ctx, session, "join", http.MethodPost, pathf("/groups/%s/join", groupID),
		joinRequest{Name: session.User.Name})
}

func (g *GroupGateway) membership(ctx context.Context, session *domain.Session, operation, method, path string, body any) error {
	return g.client.doJSON(ctx, request{
		service:   ServiceGroups,
		operation: operation,
		method:    method,
		path:      path,
		query:     url.Values{"email": {session.User.Email}},
		body:      body,
		session:   session,
	}, nil)
}

// RemoveMember removes the user with email from a group.
func (g *GroupGateway) RemoveMember(ctx context.Context, session *domain.Session, groupID, email string) error {
	return g.client.doJSON(ctx, request{
		service:   ServiceGroups,
		operation: "remove_member",
		method:    http.MethodDelete,
		path:      pathf("/groups/%s/remove", groupID),
		query:     url.Values{"userEmail": {email}},
		session:   session,
	}, nil)
}

// Delete deletes a group.
func (g *GroupGateway) Delete(ctx context.Context, session *domain.Session, groupID string) error {
	return g.client.doJSON(ctx, request{
		service:   ServiceGroups,
		operation: "delete",
		method:    http.MethodDelete,
		path:      pathf("/groups/%s", groupID),
		session:   session,
	}, nil)
}
