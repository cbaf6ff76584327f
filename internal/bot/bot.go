package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/snowpost/snowpost/internal/locale"
	"github.com/snowpost/snowpost/internal/metrics"
	"github.com/snowpost/snowpost/internal/store"
	"github.com/snowpost/snowpost/internal/telegram"
)

// DefaultMaxLetterLen is the submission length bound in characters.
const DefaultMaxLetterLen = 2000

// Sender is the slice of the transport client the controller emits through.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup any) error
}

// LetterStore is the slice of the store the controller needs.
type LetterStore interface {
	Upsert(ctx context.Context, l store.Letter) error
	Get(ctx context.Context, participantID int64) (store.Letter, error)
	Exists(ctx context.Context, participantID int64) (bool, error)
}

// MembershipChecker gates every transition that is not purely informational.
type MembershipChecker interface {
	IsMember(ctx context.Context, participantID int64) bool
}

// Bot is the conversation controller: it interprets inbound messages,
// consults the gatekeeper, reads/writes the letter store, and emits a
// response plus the derived action menu.
type Bot struct {
	sender  Sender
	letters LetterStore
	gate    MembershipChecker
	catalog *locale.Catalog

	groupID      int64 // broadcast target for the /say relay
	maxLetterLen int

	states *stateMap
}

// Option configures a Bot.
type Option func(*Bot)

// WithMaxLetterLen overrides the submission length bound.
func WithMaxLetterLen(n int) Option {
	return func(b *Bot) {
		if n > 0 {
			b.maxLetterLen = n
		}
	}
}

// New creates a controller with explicit collaborators. Every collaborator
// is an interface so tests can inject fakes.
func New(sender Sender, letters LetterStore, gate MembershipChecker, catalog *locale.Catalog, groupID int64, opts ...Option) *Bot {
	b := &Bot{
		sender:       sender,
		letters:      letters,
		gate:         gate,
		catalog:      catalog,
		groupID:      groupID,
		maxLetterLen: DefaultMaxLetterLen,
		states:       newStateMap(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HandleUpdate applies one inbound event to the participant's state machine.
// Called from the participant's dispatch worker, so events for one
// participant arrive here strictly in order.
func (b *Bot) HandleUpdate(ctx context.Context, upd telegram.Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil {
		return
	}
	// Events on group channels are out of scope for per-participant state,
	// not errors.
	if !msg.Chat.IsPrivate() {
		return
	}

	participantID := msg.From.ID
	text := msg.Text

	// A pending prompt consumes any text without an additional gate check;
	// the gate was already passed to enter this state.
	if b.states.get(participantID) == StateAwaitingLetter {
		b.handleLetter(ctx, msg)
		return
	}

	switch {
	case isCommand(text, "start"), isCommand(text, "help"):
		b.handleStart(ctx, msg)
	case isCommand(text, "say"):
		b.handleSay(ctx, msg)
	default:
		if action, ok := b.catalog.MatchAction(text); ok {
			b.handleAction(ctx, msg, action)
			return
		}
		b.handleUnrecognized(ctx, msg)
	}
}

// handleStart emits the greeting and the menu derived from whether a letter
// exists. State is left unchanged.
func (b *Bot) handleStart(ctx context.Context, msg *telegram.Message) {
	if !b.requireMember(ctx, msg) {
		return
	}

	hasLetter, err := b.letters.Exists(ctx, msg.From.ID)
	if err != nil {
		b.storageFault(ctx, msg, err)
		return
	}

	b.send(ctx, msg.Chat.ID, b.catalog.Text(locale.KeyGreeting), b.menu(hasLetter))
}

// handleSay relays the text after the command prefix to the group channel.
// A missing payload is silently ignored, as is a relay failure - malformed
// admin input must not be echoed anywhere.
func (b *Bot) handleSay(ctx context.Context, msg *telegram.Message) {
	if !b.requireMember(ctx, msg) {
		return
	}

	payload := commandPayload(msg.Text)
	if payload == "" {
		return
	}

	if err := b.sender.SendMessage(ctx, b.groupID, payload, nil); err != nil {
		slog.Warn("broadcast relay failed",
			"participant", msg.From.ID,
			"error", err,
		)
	}
}

// handleAction routes a recognized button press.
func (b *Bot) handleAction(ctx context.Context, msg *telegram.Message, action locale.Action) {
	if !b.requireMember(ctx, msg) {
		return
	}

	switch action {
	case locale.ActionWrite:
		b.send(ctx, msg.Chat.ID, b.catalog.Text(locale.KeyWritePrompt), telegram.NewKeyboardRemove())
		b.states.set(msg.From.ID, StateAwaitingLetter)

	case locale.ActionRewrite:
		// The old letter is discarded only on the next successful write.
		b.send(ctx, msg.Chat.ID, b.catalog.Text(locale.KeyRewritePrompt), telegram.NewKeyboardRemove())
		b.states.set(msg.From.ID, StateAwaitingLetter)

	case locale.ActionView:
		b.handleView(ctx, msg)
	}
}

func (b *Bot) handleView(ctx context.Context, msg *telegram.Message) {
	letter, err := b.letters.Get(ctx, msg.From.ID)
	if errors.Is(err, store.ErrNotFound) {
		b.send(ctx, msg.Chat.ID, b.catalog.Text(locale.KeyNoLetter), b.menu(false))
		return
	}
	if err != nil {
		b.storageFault(ctx, msg, err)
		return
	}

	text := b.catalog.Text(locale.KeyViewHeader) + "\n\n" + letter.Text
	b.send(ctx, msg.Chat.ID, text, b.menu(true))
}

// handleLetter takes inbound text as the submission while AwaitingLetter.
func (b *Bot) handleLetter(ctx context.Context, msg *telegram.Message) {
	letterText := norm.NFC.String(msg.Text)

	if n := utf8.RuneCountInString(letterText); n > b.maxLetterLen {
		// Reject, remain in state, submission unchanged. The participant may
		// retry immediately.
		text := fmt.Sprintf(b.catalog.Text(locale.KeyTooLong), n, b.maxLetterLen)
		b.send(ctx, msg.Chat.ID, text, nil)
		return
	}

	err := b.letters.Upsert(ctx, store.Letter{
		ParticipantID: msg.From.ID,
		Username:      msg.From.Username,
		FirstName:     msg.From.FirstName,
		LastName:      msg.From.LastName,
		Text:          letterText,
	})
	if err != nil {
		// The state machine does not advance on a failed upsert.
		b.storageFault(ctx, msg, err)
		return
	}

	metrics.LettersSaved.Inc()
	b.states.set(msg.From.ID, StateIdle)

	confirmation := b.catalog.Text(locale.KeyLetterAccepted) + "\n\n" +
		b.catalog.Text(locale.KeyViewHeader) + "\n" + letterText
	b.send(ctx, msg.Chat.ID, confirmation, b.menu(true))
}

// handleUnrecognized emits the default "use the buttons" response with the
// appropriate menu. State is left unchanged.
func (b *Bot) handleUnrecognized(ctx context.Context, msg *telegram.Message) {
	if !b.requireMember(ctx, msg) {
		return
	}

	hasLetter, err := b.letters.Exists(ctx, msg.From.ID)
	if err != nil {
		b.storageFault(ctx, msg, err)
		return
	}

	b.send(ctx, msg.Chat.ID, b.catalog.Text(locale.KeyUseButtons), b.menu(hasLetter))
}

// requireMember re-checks the gatekeeper. On denial it emits the fixed
// not-a-member response and reports false; the caller aborts its transition.
func (b *Bot) requireMember(ctx context.Context, msg *telegram.Message) bool {
	if b.gate.IsMember(ctx, msg.From.ID) {
		return true
	}
	b.send(ctx, msg.Chat.ID, b.catalog.Text(locale.KeyNotMember), nil)
	return false
}

// storageFault surfaces a store I/O failure as a generic user-visible
// message and logs it for operators. Not retried; state unchanged.
func (b *Bot) storageFault(ctx context.Context, msg *telegram.Message, err error) {
	slog.Error("store operation failed",
		"participant", msg.From.ID,
		"error", err,
	)
	b.send(ctx, msg.Chat.ID, b.catalog.Text(locale.KeySaveFailed), nil)
}

// menu derives the action set from whether a letter exists; it is never
// stored.
func (b *Bot) menu(hasLetter bool) *telegram.ReplyKeyboard {
	if !hasLetter {
		return telegram.NewReplyKeyboard(b.catalog.Button(locale.ActionWrite))
	}
	return telegram.NewReplyKeyboard(
		b.catalog.Button(locale.ActionView),
		b.catalog.Button(locale.ActionRewrite),
	)
}

// send emits one outbound response. Send failures are logged and dropped -
// they must not crash the event loop or leak into state handling.
func (b *Bot) send(ctx context.Context, chatID int64, text string, markup any) {
	if err := b.sender.SendMessage(ctx, chatID, text, markup); err != nil {
		slog.Warn("send failed", "chat", chatID, "error", err)
	}
}

// isCommand reports whether text is the given slash command, tolerating a
// @botname suffix and trailing arguments.
func isCommand(text, name string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	head := fields[0]
	if !strings.HasPrefix(head, "/") {
		return false
	}
	head = strings.TrimPrefix(head, "/")
	if at := strings.IndexByte(head, '@'); at >= 0 {
		head = head[:at]
	}
	return head == name
}

// commandPayload returns the literal text after the command word, trimmed.
func commandPayload(text string) string {
	fields := strings.SplitN(strings.TrimSpace(text), " ", 2)
	if len(fields) < 2 {
		return ""
	}
	return strings.TrimSpace(fields[1])
}
