package dialog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"vrnews-bot/internal/newsapi"
	"vrnews-bot/internal/settings"
	"vrnews-bot/internal/storage"
)

const (
	StateChoosing     = "choosing"
	StateTopHeadlines = "top_headlines"
	StateSearch       = "search"
	StateInSettings   = "in_settings"
	StateTypingReply  = "typing_reply"
)

const (
	KeyboardNone     = ""
	KeyboardMain     = "main"
	KeyboardSearch   = "search"
	KeyboardSettings = "settings"
)

const (
	cmdSearchNews   = "search news"
	cmdTopHeadlines = "top headlines"
	cmdSettings     = "settings"
	cmdFetchNews    = "fetch news"
	cmdBack         = "back"
	cmdSave         = "save"
	cmdDone         = "done"
)

// Reply is one outbound message produced by the engine. Keyboard names
// the reply-keyboard layout the transport should attach, if any.
type Reply struct {
	Text     string
	Keyboard string
	HTML     bool
}

// Store is the durable per-user state the engine operates on.
type Store interface {
	GetSettings(userID int64) ([]settings.Entry, bool, error)
	SetSetting(userID int64, key, value string) error
	GetSession(userID int64) (*storage.Session, error)
	SaveSession(userID int64, state, pendingField string) error
	ClearSession(userID int64) error
}

// NewsService is the remote query side of the fetch cycle.
type NewsService interface {
	Everything(ctx context.Context, query newsapi.EverythingQuery) ([]newsapi.Article, error)
	TopHeadlines(ctx context.Context, country string) ([]newsapi.Article, error)
}

// Engine is the five-state conversation machine. It holds no per-user
// state of its own: everything is read from and written to the store, so
// a restart resumes every dialogue where it left off.
type Engine struct {
	store Store
	news  NewsService
	now   func() time.Time
}

func NewEngine(store Store, news NewsService) *Engine {
	return &Engine{store: store, news: news, now: time.Now}
}

// Start seeds a fresh session at the choosing state and greets the user,
// creating default settings on first contact.
func (e *Engine) Start(userID int64) ([]Reply, error) {
	entries, created, err := e.store.GetSettings(userID)
	if err != nil {
		return nil, fmt.Errorf("could not load settings: %w", err)
	}
	if err := e.store.SaveSession(userID, StateChoosing, ""); err != nil {
		return nil, fmt.Errorf("could not save session: %w", err)
	}
	text := msgWelcome
	if created {
		text += fmt.Sprintf(msgFirstContact, settings.Render(entries))
	} else {
		text += fmt.Sprintf(msgKnownUser, settings.Render(entries))
	}
	return []Reply{{Text: text, Keyboard: KeyboardMain}}, nil
}

// ShowSettings renders the current settings without touching the state.
func (e *Engine) ShowSettings(userID int64) ([]Reply, error) {
	entries, _, err := e.store.GetSettings(userID)
	if err != nil {
		return nil, fmt.Errorf("could not load settings: %w", err)
	}
	return []Reply{{Text: fmt.Sprintf(msgShowSettings, settings.Render(entries))}}, nil
}

// Handle processes one free-text message for one user and returns the
// replies to send, in order.
func (e *Engine) Handle(ctx context.Context, userID int64, text string) ([]Reply, error) {
	normalized := normalize(text)

	if normalized == cmdDone {
		return e.finish(userID)
	}

	session, err := e.store.GetSession(userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("could not load session: %w", err)
		}
		// No session yet: a later message re-enters at choosing with
		// settings preserved.
		session = &storage.Session{UserID: userID, State: StateChoosing}
	}

	switch session.State {
	case StateChoosing:
		return e.handleChoosing(userID, normalized)
	case StateTopHeadlines, StateSearch:
		return e.handleSearchMenu(ctx, userID, session.State, normalized)
	case StateInSettings:
		return e.handleInSettings(userID, text)
	case StateTypingReply:
		return e.handleTypingReply(userID, session.PendingField, text)
	default:
		log.Printf("Unknown dialogue state %q for user %d, resetting to choosing", session.State, userID)
		if err := e.store.SaveSession(userID, StateChoosing, ""); err != nil {
			return nil, err
		}
		return []Reply{{Text: msgReturnToMenu, Keyboard: KeyboardMain}}, nil
	}
}

func (e *Engine) handleChoosing(userID int64, command string) ([]Reply, error) {
	switch command {
	case cmdSearchNews:
		if err := e.store.SaveSession(userID, StateSearch, ""); err != nil {
			return nil, err
		}
		return []Reply{{Text: msgSearchIntro, Keyboard: KeyboardSearch}}, nil
	case cmdTopHeadlines:
		if err := e.store.SaveSession(userID, StateTopHeadlines, ""); err != nil {
			return nil, err
		}
		return []Reply{{Text: msgHeadlinesIntro, Keyboard: KeyboardSearch}}, nil
	case cmdSettings:
		return e.enterSettings(userID)
	default:
		return []Reply{{Text: msgInvalidCommand, Keyboard: KeyboardMain}}, nil
	}
}

func (e *Engine) handleSearchMenu(ctx context.Context, userID int64, state, command string) ([]Reply, error) {
	switch command {
	case cmdFetchNews:
		if err := e.store.SaveSession(userID, StateChoosing, ""); err != nil {
			return nil, err
		}
		var replies []Reply
		if state == StateTopHeadlines {
			replies = append(replies, Reply{Text: msgHeadlinesHeader})
			replies = append(replies, e.runTopHeadlines(ctx, userID)...)
		} else {
			replies = append(replies, Reply{Text: msgSearchHeader})
			replies = append(replies, e.runSearch(ctx, userID)...)
		}
		replies = append(replies, Reply{Text: msgReturnToMenu, Keyboard: KeyboardMain})
		return replies, nil
	case cmdSettings:
		return e.enterSettings(userID)
	case cmdBack:
		if err := e.store.SaveSession(userID, StateChoosing, ""); err != nil {
			return nil, err
		}
		return []Reply{{Text: msgReturnToMenu, Keyboard: KeyboardMain}}, nil
	default:
		return []Reply{{Text: msgInvalidCommand, Keyboard: KeyboardSearch}}, nil
	}
}

func (e *Engine) handleInSettings(userID int64, text string) ([]Reply, error) {
	if normalize(text) == cmdSave {
		if err := e.store.SaveSession(userID, StateChoosing, ""); err != nil {
			return nil, err
		}
		return []Reply{{Text: msgReturnToMenu, Keyboard: KeyboardMain}}, nil
	}
	field, ok := settings.FieldForLabel(text)
	if !ok {
		return []Reply{{Text: msgInvalidCommand, Keyboard: KeyboardSettings}}, nil
	}
	if err := e.store.SaveSession(userID, StateTypingReply, field); err != nil {
		return nil, err
	}
	return []Reply{{Text: msgAskValue}}, nil
}

func (e *Engine) handleTypingReply(userID int64, field, text string) ([]Reply, error) {
	if field == "" {
		// Pending field lost (e.g. swept session); fall back to the menu.
		if err := e.store.SaveSession(userID, StateInSettings, ""); err != nil {
			return nil, err
		}
		return []Reply{{Text: msgInvalidCommand, Keyboard: KeyboardSettings}}, nil
	}
	value, err := settings.Normalize(field, text, e.now())
	if err != nil {
		if errors.Is(err, settings.ErrInvalidValue) {
			return []Reply{{Text: fmt.Sprintf(msgInvalidValue, settings.Label(field))}}, nil
		}
		return nil, err
	}
	if err := e.store.SetSetting(userID, field, value); err != nil {
		return nil, err
	}
	if err := e.store.SaveSession(userID, StateInSettings, ""); err != nil {
		return nil, err
	}
	return []Reply{{Text: msgValueSaved, Keyboard: KeyboardSettings}}, nil
}

func (e *Engine) enterSettings(userID int64) ([]Reply, error) {
	entries, _, err := e.store.GetSettings(userID)
	if err != nil {
		return nil, fmt.Errorf("could not load settings: %w", err)
	}
	if err := e.store.SaveSession(userID, StateInSettings, ""); err != nil {
		return nil, err
	}
	text := fmt.Sprintf(msgCurrentSettings, settings.Render(entries))
	return []Reply{{Text: text, Keyboard: KeyboardSettings}}, nil
}

// finish ends the session from any state: the pending field is discarded,
// the final settings are summarized, and the next message starts over at
// choosing with settings intact.
func (e *Engine) finish(userID int64) ([]Reply, error) {
	entries, _, err := e.store.GetSettings(userID)
	if err != nil {
		return nil, fmt.Errorf("could not load settings: %w", err)
	}
	if err := e.store.ClearSession(userID); err != nil {
		return nil, err
	}
	text := fmt.Sprintf(msgFinalSettings, settings.Render(entries))
	return []Reply{{Text: text, Keyboard: KeyboardMain}}, nil
}
