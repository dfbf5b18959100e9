package app

import (
	"fmt"
	"slices"
	"strings"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
)

func (t *Transitions) postMessage(room *domain.Room, a MessageArgs) (*domain.Room, bool, error) {
	if !room.IsMember(a.User) {
		return room, false, domain.NotMember("message", a.User)
	}
	text := strings.TrimSpace(a.Text)
	if text == "" {
		return room, false, &domain.ValidationError{Op: "message", Reason: "empty message"}
	}
	if len(text) > t.rules.MaxChatLen {
		return room, false, &domain.ValidationError{Op: "message", Reason: fmt.Sprintf("message longer than %d bytes", t.rules.MaxChatLen)}
	}
	next := room.Clone()
	next.Chat = slices.Concat(room.Chat, []domain.ChatMessage{{SenderID: a.User, Text: text}})
	return next, true, nil
}
