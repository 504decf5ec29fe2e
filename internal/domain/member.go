package domain

import "strings"

// Member is a participant of a group. ID is unique within the group.
type Member struct {
	ID    string
	Name  string
	Email string
}

// DisplayName returns the name, falling back to the email and then the ID.
func (m Member) DisplayName() string {
	if name := strings.TrimSpace(m.Name); name != "" {
		return name
	}
	if m.Email != "" {
		return m.Email
	}
	if m.ID != "" {
		return m.ID
	}
	return "Unknown User"
}

// MemberIDs returns the IDs of members in order.
func MemberIDs(members []Member) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}

// FindMember looks a member up by ID.
func FindMember(members []Member, id string) (Member, bool) {
	for _, m := range members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// FindMemberByEmail looks a member up by email, case-insensitively.
func FindMemberByEmail(members []Member, email string) (Member, bool) {
	email = strings.TrimSpace(email)
	for _, m := range members {
		if m.Email != "" && strings.EqualFold(m.Email, email) {
			return m, true
		}
	}
	return Member{}, false
}
