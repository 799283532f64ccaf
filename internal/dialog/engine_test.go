package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"vrnews-bot/internal/newsapi"
	"vrnews-bot/internal/settings"
	"vrnews-bot/internal/storage"
)

type fakeStore struct {
	settings map[int64][]settings.Entry
	sessions map[int64]*storage.Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		settings: make(map[int64][]settings.Entry),
		sessions: make(map[int64]*storage.Session),
	}
}

func (f *fakeStore) GetSettings(userID int64) ([]settings.Entry, bool, error) {
	if entries, ok := f.settings[userID]; ok {
		return append([]settings.Entry(nil), entries...), false, nil
	}
	defaults := settings.Defaults()
	f.settings[userID] = append([]settings.Entry(nil), defaults...)
	return defaults, true, nil
}

func (f *fakeStore) SetSetting(userID int64, key, value string) error {
	if !settings.IsField(key) {
		return fmt.Errorf("%w: %q", settings.ErrInvalidField, key)
	}
	entries := f.settings[userID]
	for i, entry := range entries {
		if entry.Key == key {
			entries[i].Value = value
			return nil
		}
	}
	f.settings[userID] = append(entries, settings.Entry{Key: key, Value: value})
	return nil
}

func (f *fakeStore) GetSession(userID int64) (*storage.Session, error) {
	session, ok := f.sessions[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (f *fakeStore) SaveSession(userID int64, state, pendingField string) error {
	f.sessions[userID] = &storage.Session{UserID: userID, State: state, PendingField: pendingField}
	return nil
}

func (f *fakeStore) ClearSession(userID int64) error {
	delete(f.sessions, userID)
	return nil
}

type fakeNews struct {
	articles   []newsapi.Article
	err        error
	gotQuery   newsapi.EverythingQuery
	gotCountry string
	everything int
	headlines  int
}

func (f *fakeNews) Everything(ctx context.Context, query newsapi.EverythingQuery) ([]newsapi.Article, error) {
	f.everything++
	f.gotQuery = query
	return f.articles, f.err
}

func (f *fakeNews) TopHeadlines(ctx context.Context, country string) ([]newsapi.Article, error) {
	f.headlines++
	f.gotCountry = country
	return f.articles, f.err
}

func makeArticle(i int, url string) newsapi.Article {
	var article newsapi.Article
	article.Source.Name = fmt.Sprintf("Source %d", i)
	article.Author = fmt.Sprintf("Author %d", i)
	article.Title = fmt.Sprintf("Title %d", i)
	article.URL = url
	article.PublishedAt = time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	return article
}

func newTestEngine(store *fakeStore, news *fakeNews) *Engine {
	engine := NewEngine(store, news)
	engine.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }
	return engine
}

const user = int64(42)

func handle(t *testing.T, engine *Engine, text string) []Reply {
	t.Helper()
	replies, err := engine.Handle(context.Background(), user, text)
	if err != nil {
		t.Fatalf("Handle(%q): %v", text, err)
	}
	return replies
}

func TestStartSeedsDefaults(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, &fakeNews{})

	replies, err := engine.Start(user)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}
	if !strings.Contains(replies[0].Text, "Keywords - VR AR") {
		t.Errorf("greeting does not render defaults: %q", replies[0].Text)
	}
	if replies[0].Keyboard != KeyboardMain {
		t.Errorf("greeting keyboard = %q, want main", replies[0].Keyboard)
	}
	if store.sessions[user].State != StateChoosing {
		t.Errorf("state after start = %q, want choosing", store.sessions[user].State)
	}
}

func TestChoosingTransitions(t *testing.T) {
	tests := []struct {
		text      string
		wantState string
	}{
		{"Search news", StateSearch},
		{"search NEWS", StateSearch},
		{"Top headlines", StateTopHeadlines},
		{"Settings", StateInSettings},
	}
	for _, tt := range tests {
		store := newFakeStore()
		engine := newTestEngine(store, &fakeNews{})
		store.SaveSession(user, StateChoosing, "")

		handle(t, engine, tt.text)
		if got := store.sessions[user].State; got != tt.wantState {
			t.Errorf("after %q state = %q, want %q", tt.text, got, tt.wantState)
		}
	}
}

func TestEnteringSettingsRendersCurrentValues(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, &fakeNews{})
	store.SaveSession(user, StateChoosing, "")

	replies := handle(t, engine, "Settings")
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}
	for _, line := range []string{"Keywords - VR AR", "Sort by - popularity", "Country - RU"} {
		if !strings.Contains(replies[0].Text, line) {
			t.Errorf("settings reply missing %q: %q", line, replies[0].Text)
		}
	}
	if replies[0].Keyboard != KeyboardSettings {
		t.Errorf("keyboard = %q, want settings", replies[0].Keyboard)
	}
}

func TestInvalidCommandKeepsState(t *testing.T) {
	for _, state := range []string{StateChoosing, StateSearch, StateTopHeadlines, StateInSettings} {
		store := newFakeStore()
		engine := newTestEngine(store, &fakeNews{})
		store.SaveSession(user, state, "")

		replies := handle(t, engine, "frobnicate the news")
		if len(replies) != 1 || replies[0].Text != msgInvalidCommand {
			t.Errorf("state %s: replies = %+v, want single invalid-command", state, replies)
		}
		if got := store.sessions[user].State; got != state {
			t.Errorf("state %s changed to %q on invalid command", state, got)
		}
	}
}

func TestImplicitSessionStartsAtChoosing(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, &fakeNews{})

	// No session stored: the message is interpreted from choosing.
	handle(t, engine, "Settings")
	if got := store.sessions[user].State; got != StateInSettings {
		t.Errorf("state = %q, want in_settings", got)
	}
}

func TestEditFieldRoundTrip(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, &fakeNews{})
	store.SaveSession(user, StateInSettings, "")

	replies := handle(t, engine, "Keywords")
	if replies[0].Text != msgAskValue {
		t.Errorf("prompt = %q, want ask-value", replies[0].Text)
	}
	session := store.sessions[user]
	if session.State != StateTypingReply || session.PendingField != settings.FieldQuery {
		t.Fatalf("session = %+v, want typing_reply/q", session)
	}

	replies = handle(t, engine, "virtual reality headset")
	if replies[0].Text != msgValueSaved {
		t.Errorf("confirmation = %q, want value-saved", replies[0].Text)
	}
	session = store.sessions[user]
	if session.State != StateInSettings || session.PendingField != "" {
		t.Errorf("session after save = %+v, want in_settings with no pending field", session)
	}
	if value, _ := settings.Lookup(store.settings[user], settings.FieldQuery); value != "virtual reality headset" {
		t.Errorf("stored q = %q, want the raw text", value)
	}
}

func TestFieldNormalizationOnWrite(t *testing.T) {
	tests := []struct {
		label string
		input string
		field string
		want  string
	}{
		{"Country", "us", settings.FieldCountry, "US"},
		{"To date", "Today", settings.FieldTo, "today"},
		{"Language", "EN", settings.FieldLanguage, "en"},
		{"From date", "1970-01-05", settings.FieldFrom, "2026-08-04"},
	}
	for _, tt := range tests {
		store := newFakeStore()
		engine := newTestEngine(store, &fakeNews{})
		store.SaveSession(user, StateInSettings, "")

		handle(t, engine, tt.label)
		handle(t, engine, tt.input)
		if value, _ := settings.Lookup(store.settings[user], tt.field); value != tt.want {
			t.Errorf("%s := %q stored %q, want %q", tt.field, tt.input, value, tt.want)
		}
	}
}

func TestBadDateReprompts(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, &fakeNews{})
	store.SaveSession(user, StateInSettings, "")

	handle(t, engine, "From date")
	replies := handle(t, engine, "not a date")
	if !strings.Contains(replies[0].Text, "not a valid value") {
		t.Errorf("reply = %q, want invalid-value prompt", replies[0].Text)
	}
	session := store.sessions[user]
	if session.State != StateTypingReply || session.PendingField != settings.FieldFrom {
		t.Errorf("session = %+v, want still typing_reply/from", session)
	}
}

func TestDoneEndsSessionFromAnyState(t *testing.T) {
	for _, state := range []string{StateChoosing, StateSearch, StateInSettings, StateTypingReply} {
		store := newFakeStore()
		engine := newTestEngine(store, &fakeNews{})
		store.SaveSession(user, state, "q")

		replies := handle(t, engine, "Done")
		if len(replies) != 1 || !strings.Contains(replies[0].Text, "Final parameter values") {
			t.Errorf("state %s: done replies = %+v", state, replies)
		}
		if _, ok := store.sessions[user]; ok {
			t.Errorf("state %s: session survived done", state)
		}
	}
}

func TestFetchNewsRendersCappedFilteredArticles(t *testing.T) {
	var articles []newsapi.Article
	for i := 1; i <= 10; i++ {
		articles = append(articles, makeArticle(i, fmt.Sprintf("https://example.com/%d", i)))
	}
	// Removed entries interleaved; they must not count against the cap
	// and must not be rendered.
	articles = append(articles[:3:3], append([]newsapi.Article{
		makeArticle(90, "https://removed.com"),
		makeArticle(91, "https://example.com/removed-article"),
	}, articles[3:]...)...)

	news := &fakeNews{articles: articles}
	store := newFakeStore()
	engine := newTestEngine(store, news)
	store.SaveSession(user, StateSearch, "")

	replies := handle(t, engine, "Fetch news")
	// header + 10 articles + return-to-menu
	if len(replies) != 12 {
		t.Fatalf("got %d replies, want 12: %+v", len(replies), replies)
	}
	if replies[0].Text != msgSearchHeader {
		t.Errorf("first reply = %q, want header", replies[0].Text)
	}
	for i := 1; i <= 10; i++ {
		text := replies[i].Text
		if !strings.HasPrefix(text, fmt.Sprintf("News %d of 10:", i)) {
			t.Errorf("article %d numbering wrong: %q", i, text)
		}
		if strings.Contains(text, "removed") {
			t.Errorf("removed article rendered: %q", text)
		}
		if !replies[i].HTML {
			t.Errorf("article %d not marked HTML", i)
		}
	}
	last := replies[len(replies)-1]
	if last.Text != msgReturnToMenu || last.Keyboard != KeyboardMain {
		t.Errorf("final reply = %+v, want return-to-menu with main keyboard", last)
	}
	if store.sessions[user].State != StateChoosing {
		t.Errorf("state after fetch = %q, want choosing", store.sessions[user].State)
	}
}

func TestFetchNewsBuildsQueryFromSettings(t *testing.T) {
	news := &fakeNews{}
	store := newFakeStore()
	engine := newTestEngine(store, news)
	store.GetSettings(user)
	store.SetSetting(user, settings.FieldQuery, "virtual reality headset")
	store.SetSetting(user, settings.FieldSortBy, "publishedat")
	store.SetSetting(user, settings.FieldTo, "today")
	store.SaveSession(user, StateSearch, "")

	handle(t, engine, "Fetch news")
	if news.everything != 1 {
		t.Fatalf("Everything called %d times, want 1", news.everything)
	}
	query := news.gotQuery
	if query.Keywords != "virtual reality headset" {
		t.Errorf("keywords = %q", query.Keywords)
	}
	if query.SortBy != "publishedAt" {
		t.Errorf("sortBy = %q, want canonical publishedAt", query.SortBy)
	}
	if query.To != "2026-09-01" {
		t.Errorf("to = %q, want resolved today", query.To)
	}
	// Default from (1970-01-01) ages into the window clamp.
	if query.From != "2026-08-04" {
		t.Errorf("from = %q, want clamped 2026-08-04", query.From)
	}
	if query.Language != "ru" {
		t.Errorf("language = %q, want default ru", query.Language)
	}
}

func TestTopHeadlinesUsesCountry(t *testing.T) {
	news := &fakeNews{articles: []newsapi.Article{makeArticle(1, "https://example.com/1")}}
	store := newFakeStore()
	engine := newTestEngine(store, news)
	store.SaveSession(user, StateTopHeadlines, "")

	handle(t, engine, "Fetch news")
	if news.headlines != 1 {
		t.Fatalf("TopHeadlines called %d times, want 1", news.headlines)
	}
	if news.gotCountry != "RU" {
		t.Errorf("country = %q, want default RU", news.gotCountry)
	}
}

func TestFetchFailureIsSurfaced(t *testing.T) {
	news := &fakeNews{err: errors.New("boom")}
	store := newFakeStore()
	engine := newTestEngine(store, news)
	store.SaveSession(user, StateSearch, "")

	replies := handle(t, engine, "Fetch news")
	// header + one failure notice + return-to-menu
	if len(replies) != 3 {
		t.Fatalf("got %d replies, want 3: %+v", len(replies), replies)
	}
	if replies[1].Text != msgSearchFailed {
		t.Errorf("failure reply = %q, want search-failed", replies[1].Text)
	}
	if store.sessions[user].State != StateChoosing {
		t.Errorf("state = %q, want choosing", store.sessions[user].State)
	}
}

func TestEmptyResultSet(t *testing.T) {
	news := &fakeNews{articles: []newsapi.Article{makeArticle(1, "https://removed.example/1")}}
	store := newFakeStore()
	engine := newTestEngine(store, news)
	store.SaveSession(user, StateSearch, "")

	replies := handle(t, engine, "Fetch news")
	if len(replies) != 3 || replies[1].Text != msgNoResults {
		t.Errorf("replies = %+v, want no-results notice", replies)
	}
}

func TestBackReturnsToChoosing(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, &fakeNews{})
	store.SaveSession(user, StateSearch, "")

	replies := handle(t, engine, "Back")
	if replies[0].Text != msgReturnToMenu {
		t.Errorf("reply = %q", replies[0].Text)
	}
	if store.sessions[user].State != StateChoosing {
		t.Errorf("state = %q, want choosing", store.sessions[user].State)
	}
}

func TestSaveLeavesSettingsMenu(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, &fakeNews{})
	store.SaveSession(user, StateInSettings, "")

	handle(t, engine, "Save")
	if store.sessions[user].State != StateChoosing {
		t.Errorf("state = %q, want choosing", store.sessions[user].State)
	}
}
