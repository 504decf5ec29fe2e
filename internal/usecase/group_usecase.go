package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iho/splitledger/internal/domain"
)

// GroupUseCase handles groups, invitations and memberships.
type GroupUseCase struct {
	gateway GroupGateway
	now     func() time.Time
}

// NewGroupUseCase creates a new GroupUseCase.
func NewGroupUseCase(gateway GroupGateway) *GroupUseCase {
	return &GroupUseCase{
		gateway: gateway,
		now:     time.Now,
	}
}

// ListMine returns the groups the session user belongs to.
func (uc *GroupUseCase) ListMine(ctx context.Context, session *domain.Session) ([]domain.Group, error) {
	if err := checkSession(session, uc.now()); err != nil {
		return nil, err
	}
	return uc.gateway.ListMine(ctx, session)
}

// PendingInvitations returns groups the session user was invited to but has not joined.
func (uc *GroupUseCase) PendingInvitations(ctx context.Context, session *domain.Session) ([]domain.Group, error) {
	if err := checkSession(session, uc.now()); err != nil {
		return nil, err
	}
	return uc.gateway.PendingInvitations(ctx, session)
}

// Get returns one of the session user's groups.
func (uc *GroupUseCase) Get(ctx context.Context, session *domain.Session, groupID string) (*domain.Group, error) {
	if err := checkSession(session, uc.now()); err != nil {
		return nil, err
	}
	return findGroup(ctx, uc.gateway, session, groupID)
}

// Members returns the accepted members of a group.
func (uc *GroupUseCase) Members(ctx context.Context, session *domain.Session, groupID string) ([]domain.Member, error) {
	group, err := uc.Get(ctx, session, groupID)
	if err != nil {
		return nil, err
	}
	return group.AcceptedMembers(), nil
}

// Create creates a group and adds the creator as its first accepted member.
func (uc *GroupUseCase) Create(ctx context.Context, session *domain.Session, name, description string) (*domain.Group, error) {
	if err := checkSession(session, uc.now()); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if err := domain.ValidateGroupName(name); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(description); err != nil {
		return nil, err
	}

	group, err := uc.gateway.Create(ctx, session, name, description)
	if err != nil {
		return nil, err
	}

	creator := session.User.AsMember()
	for _, gm := range group.Members {
		if gm.ID == creator.ID || strings.EqualFold(gm.Email, creator.Email) {
			return group, nil
		}
	}

	if err := uc.gateway.AddMember(ctx, session, group.ID, creator.Email); err != nil {
		return nil, fmt.Errorf("group %s created but adding creator failed: %w", group.ID, err)
	}
	group.Members = append(group.Members, domain.GroupMember{Member: creator, Accepted: true})

	return group, nil
}

// Invite invites a user by email.
func (uc *GroupUseCase) Invite(ctx context.Context, session *domain.Session, groupID, email string) error {
	if err := uc.checkGroupAction(session, groupID); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if err := domain.ValidateEmail(email); err != nil {
		return err
	}
	return uc.gateway.Invite(ctx, session, groupID, email)
}

// Accept accepts a pending invitation.
func (uc *GroupUseCase) Accept(ctx context.Context, session *domain.Session, groupID string) error {
	if err := uc.checkGroupAction(session, groupID); err != nil {
		return err
	}
	return uc.gateway.Accept(ctx, session, groupID)
}

// Decline declines a pending invitation.
func (uc *GroupUseCase) Decline(ctx context.Context, session *domain.Session, groupID string) error {
	if err := uc.checkGroupAction(session, groupID); err != nil {
		return err
	}
	return uc.gateway.Decline(ctx, session, groupID)
}

// Join joins a group by ID.
func (uc *GroupUseCase) Join(ctx context.Context, session *domain.Session, groupID string) error {
	if err := uc.checkGroupAction(session, groupID); err != nil {
		return err
	}
	return uc.gateway.Join(ctx, session, groupID)
}

// RemoveMember removes a member by email.
func (uc *GroupUseCase) RemoveMember(ctx context.Context, session *domain.Session, groupID, email string) error {
	if err := uc.checkGroupAction(session, groupID); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if err := domain.ValidateEmail(email); err != nil {
		return err
	}
	return uc.gateway.RemoveMember(ctx, session, groupID, email)
}

// Leave removes the session user from a group.
func (uc *GroupUseCase) Leave(ctx context.Context, session *domain.Session, groupID string) error {
	if err := uc.checkGroupAction(session, groupID); err != nil {
		return err
	}
	return uc.gateway.RemoveMember(ctx, session, groupID, session.User.Email)
}

// Delete deletes a group.
func (uc *GroupUseCase) Delete(ctx context.Context, session *domain.Session, groupID string) error {
	if err := uc.checkGroupAction(session, groupID); err != nil {
		return err
	}
	return uc.gateway.Delete(ctx, session, groupID)
}

func (uc *GroupUseCase) checkGroupAction(session *domain.Session, groupID string) error {
	if err := checkSession(session, uc.now()); err != nil {
		return err
	}
	if strings.TrimSpace(groupID) == "" {
		return fmt.Errorf("%w: group id is required", domain.ErrInvalidInput)
	}
	return nil
}

// findGroup looks a group up among the session user's groups.
// The remote API has no single-group endpoint.
func findGroup(ctx context.Context, gateway GroupGateway, session *domain.Session, groupID string) (*domain.Group, error) {
	if strings.TrimSpace(groupID) == "" {
		return nil, fmt.Errorf("%w: group id is required", domain.ErrInvalidInput)
	}

	groups, err := gateway.ListMine(ctx, session)
	if err != nil {
		return nil, err
	}

	for i := range groups {
		if groups[i].ID == groupID {
			return &groups[i], nil
		}
	}

	return nil, domain.ErrGroupNotFound
}
