package gatekeeper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/snowpost/snowpost/internal/telegram"
)

type stubMembers struct {
	status  string
	err     error
	gotChat int64
	gotUser int64
}

func (s *stubMembers) GetChatMember(_ context.Context, chatID, userID int64) (telegram.ChatMember, error) {
	s.gotChat = chatID
	s.gotUser = userID
	if s.err != nil {
		return telegram.ChatMember{}, s.err
	}
	return telegram.ChatMember{Status: s.status}, nil
}

func TestIsMember_AllowedStatuses(t *testing.T) {
	for _, status := range []string{"member", "administrator", "creator"} {
		stub := &stubMembers{status: status}
		g := New(stub, -100500)

		assert.True(t, g.IsMember(context.Background(), 42), "status %q must be allowed", status)
		assert.EqualValues(t, -100500, stub.gotChat)
		assert.EqualValues(t, 42, stub.gotUser)
	}
}

func TestIsMember_DeniedStatuses(t *testing.T) {
	for _, status := range []string{"left", "kicked", "restricted", ""} {
		g := New(&stubMembers{status: status}, -100500)
		assert.False(t, g.IsMember(context.Background(), 42), "status %q must be denied", status)
	}
}

func TestIsMember_FailClosedOnError(t *testing.T) {
	g := New(&stubMembers{err: errors.New("telegram unreachable")}, -100500)
	assert.False(t, g.IsMember(context.Background(), 42),
		"lookup errors must deny access, never admit")
}
