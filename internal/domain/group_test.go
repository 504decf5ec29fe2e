package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGroup_AcceptedMembers(t *testing.T) {
	g := &Group{
		Members: []GroupMember{
			{Member: Member{ID: "1", Name: "Ann", Email: "ann@example.com"}, Accepted: true},
			{Member: Member{ID: "2", Email: "bob@example.com"}, Accepted: false},
			{Member: Member{Email: "ghost@example.com"}, Accepted: true},
			{Member: Member{ID: "3", Name: "Cid"}, Accepted: true},
		},
	}

	members := g.AcceptedMembers()

	assert.Equal(t, []string{"1", "3"}, MemberIDs(members))
	assert.True(t, g.HasAcceptedMember("3"))
	assert.False(t, g.HasAcceptedMember("2"))
}

func TestMember_DisplayName(t *testing.T) {
	assert.Equal(t, "Ann", Member{ID: "1", Name: "Ann"}.DisplayName())
	assert.Equal(t, "bob@example.com", Member{ID: "2", Email: "bob@example.com"}.DisplayName())
	assert.Equal(t, "3", Member{ID: "3"}.DisplayName())
	assert.Equal(t, "Unknown User", Member{}.DisplayName())
}

func TestFindMemberByEmail(t *testing.T) {
	members := []Member{{ID: "1", Email: "Ann@Example.com"}, {ID: "2"}}

	m, ok := FindMemberByEmail(members, "ann@example.com")
	assert.True(t, ok)
	assert.Equal(t, "1", m.ID)

	_, ok = FindMemberByEmail(members, "")
	assert.False(t, ok)
}

func TestBalances_Status(t *testing.T) {
	b := Balances{
		"a": d("60"),
		"b": d("-30"),
		"c": d("0.004"),
		"e": d("-0.0049"),
	}

	assert.Equal(t, StatusOwed, b.Status("a"))
	assert.Equal(t, StatusOwes, b.Status("b"))
	assert.Equal(t, StatusSettled, b.Status("c"))
	assert.Equal(t, StatusSettled, b.Status("e"))
	assert.Equal(t, StatusSettled, b.Status("unknown"))

	// The label says settled but the value itself is untouched.
	assert.Equal(t, "0.00", b.Display("e"))
	assert.True(t, b.Get("e").IsNegative())
	assert.Equal(t, "60.00", b.Display("a"))
	assert.Equal(t, []string{"a", "b", "c", "e"}, b.IDs())
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	var nilSession *Session
	assert.True(t, nilSession.Expired(now))
	assert.False(t, (&Session{}).Expired(now))
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now}).Expired(now))
}

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat("PDF")
	assert.NoError(t, err)
	assert.Equal(t, ExportPDF, f)
	assert.Equal(t, "pdf", f.Extension())

	f, err = ParseExportFormat("excel")
	assert.NoError(t, err)
	assert.Equal(t, "xls", f.Extension())

	_, err = ParseExportFormat("csv")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
