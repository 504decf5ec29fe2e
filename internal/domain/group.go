package domain

// Group is a set of members sharing expenses.
type Group struct {
	ID          string
	Name        string
	Description string
	Members     []GroupMember
}

// GroupMember is a membership entry. Invited users stay unaccepted until they accept.
type GroupMember struct {
	Member
	Accepted bool
}

// AcceptedMembers returns the members that accepted the invitation and have an identity.
// Only accepted members can pay for or take part in expenses and settlements.
func (g *Group) AcceptedMembers() []Member {
	members := make([]Member, 0, len(g.Members))
	for _, gm := range g.Members {
		if !gm.Accepted || gm.ID == "" {
			continue
		}
		members = append(members, gm.Member)
	}
	return members
}

// HasAcceptedMember reports whether id is an accepted member of the group.
func (g *Group) HasAcceptedMember(id string) bool {
	_, ok := FindMember(g.AcceptedMembers(), id)
	return ok
}
