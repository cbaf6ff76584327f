package telegram

// Wire types for the subset of the Bot API this bot uses.
// Field sets are minimal request/response shapes, not the full API surface.

// Update is one inbound event from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is an inbound or outbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

// User identifies the sender of a message.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Chat identifies where a message was sent.
// Type is "private", "group", "supergroup" or "channel".
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// IsPrivate reports whether the chat is a one-to-one conversation.
func (c Chat) IsPrivate() bool {
	return c.Type == "private"
}

// ChatMember is the result shape of getChatMember.
// Status is one of member, administrator, creator, restricted, left, kicked.
type ChatMember struct {
	Status string `json:"status"`
	User   *User  `json:"user,omitempty"`
}

// ReplyKeyboard is a one-row reply keyboard shown under the input field.
type ReplyKeyboard struct {
	Keyboard       [][]KeyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard"`
}

// KeyboardButton is a single selectable reply option.
type KeyboardButton struct {
	Text string `json:"text"`
}

// KeyboardRemove tells the client to drop the current reply keyboard.
type KeyboardRemove struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

// NewReplyKeyboard builds a single-row keyboard from button labels.
func NewReplyKeyboard(labels ...string) *ReplyKeyboard {
	row := make([]KeyboardButton, 0, len(labels))
	for _, l := range labels {
		row = append(row, KeyboardButton{Text: l})
	}
	return &ReplyKeyboard{
		Keyboard:       [][]KeyboardButton{row},
		ResizeKeyboard: true,
	}
}

// NewKeyboardRemove builds the marker that clears the reply keyboard.
func NewKeyboardRemove() *KeyboardRemove {
	return &KeyboardRemove{RemoveKeyboard: true}
}
