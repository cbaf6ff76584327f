// Package gatekeeper decides whether a participant may use gated features,
// based on membership in the configured Telegram group.
package gatekeeper

import (
	"context"
	"log/slog"

	"github.com/snowpost/snowpost/internal/metrics"
	"github.com/snowpost/snowpost/internal/telegram"
)

// ChatMemberGetter is the slice of the transport client the gatekeeper needs.
type ChatMemberGetter interface {
	GetChatMember(ctx context.Context, chatID, userID int64) (telegram.ChatMember, error)
}

// Statuses that grant access. Everything else - restricted, left, kicked -
// is denied.
var allowedStatuses = map[string]bool{
	"member":        true,
	"administrator": true,
	"creator":       true,
}

// Gatekeeper performs fail-closed membership checks against one group.
type Gatekeeper struct {
	members ChatMemberGetter
	groupID int64
}

// New creates a Gatekeeper for the given group chat id.
func New(members ChatMemberGetter, groupID int64) *Gatekeeper {
	return &Gatekeeper{members: members, groupID: groupID}
}

// IsMember reports whether the participant belongs to the group.
//
// Fail-closed: any error from the membership lookup - network fault, unknown
// user, API error - denies access rather than propagating. An unreachable
// membership service must never silently admit non-members. The error is
// logged for operators; callers only see the boolean.
func (g *Gatekeeper) IsMember(ctx context.Context, participantID int64) bool {
	member, err := g.members.GetChatMember(ctx, g.groupID, participantID)
	if err != nil {
		slog.Warn("membership check failed, denying access",
			"participant", participantID,
			"error", err,
		)
		metrics.AccessDenied.WithLabelValues("lookup_error").Inc()
		return false
	}

	if !allowedStatuses[member.Status] {
		metrics.AccessDenied.WithLabelValues("not_member").Inc()
		return false
	}

	return true
}
