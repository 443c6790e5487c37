package gcal

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
)

type fakeEvents struct {
	events  map[string]*calendar.Event
	nextID  int
	inserts int
	patches int
	failing bool
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{events: make(map[string]*calendar.Event)}
}

func (f *fakeEvents) Get(_ context.Context, _, eventID string) (*calendar.Event, error) {
	e, ok := f.events[eventID]
	if !ok {
		return nil, errors.New("404")
	}
	return e, nil
}

func (f *fakeEvents) FindByTaskID(_ context.Context, _, taskID string) (*calendar.Event, error) {
	for _, e := range f.events {
		if e.ExtendedProperties != nil && e.ExtendedProperties.Private[TaskIDProperty] == taskID {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeEvents) Insert(_ context.Context, _ string, event *calendar.Event) (*calendar.Event, error) {
	if f.failing {
		return nil, errors.New("quota exceeded")
	}
	f.nextID++
	f.inserts++
	created := *event
	created.Id = "evt" + strconv.Itoa(f.nextID)
	f.events[created.Id] = &created
	return &created, nil
}

func (f *fakeEvents) Patch(_ context.Context, _, eventID string, event *calendar.Event) (*calendar.Event, error) {
	f.patches++
	patched := *event
	patched.Id = eventID
	f.events[eventID] = &patched
	return &patched, nil
}

type mapIndex map[string]string

func (m mapIndex) EventID(taskID string) (string, bool, error) {
	id, ok := m[taskID]
	return id, ok, nil
}

func (m mapIndex) Link(taskID, eventID string) error {
	m[taskID] = eventID
	return nil
}

func (m mapIndex) Unlink(taskID string) error {
	delete(m, taskID)
	return nil
}

func TestEventForTask(t *testing.T) {
	task := &model.Task{
		ID:          "4",
		Title:       "Launch",
		Description: "Go live",
		Priority:    model.PriorityHigh,
		Status:      model.StatusTodo,
		DueDate:     "Oct 20, 2026",
	}

	event, ok := EventForTask(task)
	require.True(t, ok)
	assert.Equal(t, "Launch", event.Summary)
	assert.Equal(t, "2026-10-20", event.Start.Date)
	assert.Equal(t, "2026-10-21", event.End.Date)
	assert.Equal(t, "11", event.ColorId)
	assert.Equal(t, "opaque", event.Transparency)
	assert.Contains(t, event.Description, "Go live")
	assert.Contains(t, event.Description, "Status: To Do")
	assert.Equal(t, "4", event.ExtendedProperties.Private[TaskIDProperty])

	task.Status = model.StatusCompleted
	event, _ = EventForTask(task)
	assert.Equal(t, "Done: Launch", event.Summary)
	assert.Equal(t, "transparent", event.Transparency)

	_, ok = EventForTask(&model.Task{Title: "no due"})
	assert.False(t, ok)
	_, ok = EventForTask(&model.Task{Title: "bad due", DueDate: "someday"})
	assert.False(t, ok)
}

func TestNeedsUpdate(t *testing.T) {
	want, _ := EventForTask(&model.Task{ID: "1", Title: "A", Priority: model.PriorityLow, DueDate: "Oct 20, 2026"})
	same := *want
	assert.False(t, NeedsUpdate(&same, want))

	moved := *want
	moved.Start = &calendar.EventDateTime{Date: "2026-10-22"}
	assert.True(t, NeedsUpdate(&moved, want))

	renamed := *want
	renamed.Summary = "B"
	assert.True(t, NeedsUpdate(&renamed, want))
}

func TestSync(t *testing.T) {
	ctx := context.Background()
	events := newFakeEvents()
	index := mapIndex{}
	syncer := NewSyncer(events, index, "")

	tasks := []*model.Task{
		{ID: "1", Title: "Due soon", Priority: model.PriorityHigh, DueDate: "Oct 20, 2026"},
		{ID: "2", Title: "No due date"},
		{ID: "3", Title: "Later", Priority: model.PriorityLow, DueDate: "Nov 2, 2026"},
	}

	res, err := syncer.Sync(ctx, tasks)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Created: 2, Skipped: 1}, res)
	assert.Len(t, index, 2)

	res, err = syncer.Sync(ctx, tasks)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Unchanged: 2, Skipped: 1}, res)

	tasks[0].DueDate = "Oct 21, 2026"
	res, err = syncer.Sync(ctx, tasks)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, "2026-10-21", events.events[index["1"]].Start.Date)
	assert.Equal(t, 2, events.inserts)
}

func TestSyncRecoversFromStaleIndex(t *testing.T) {
	ctx := context.Background()
	events := newFakeEvents()
	index := mapIndex{"1": "gone"}
	syncer := NewSyncer(events, index, "work")

	res, err := syncer.Sync(ctx, []*model.Task{{ID: "1", Title: "A", DueDate: "Oct 20, 2026"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.NotEqual(t, "gone", index["1"])
}

func TestSyncWithoutIndexFindsByProperty(t *testing.T) {
	ctx := context.Background()
	events := newFakeEvents()
	syncer := NewSyncer(events, nil, "")
	tasks := []*model.Task{{ID: "1", Title: "A", DueDate: "Oct 20, 2026"}}

	_, err := syncer.Sync(ctx, tasks)
	require.NoError(t, err)
	res, err := syncer.Sync(ctx, tasks)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Unchanged)
	assert.Equal(t, 1, events.inserts)
}

func TestSyncCollectsFailures(t *testing.T) {
	events := newFakeEvents()
	events.failing = true
	syncer := NewSyncer(events, mapIndex{}, "")

	res, err := syncer.Sync(context.Background(), []*model.Task{{ID: "9", Title: "A", DueDate: "Oct 20, 2026"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"9"}, res.Failed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = syncer.Sync(ctx, []*model.Task{{ID: "9", Title: "A", DueDate: "Oct 20, 2026"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalRedirect(t *testing.T) {
	assert.Equal(t, "http://localhost:6789/oauth2callback", localRedirect("urn:ietf:wg:oauth:2.0:oob"))
	assert.Equal(t, "http://localhost:6789/oauth2callback", localRedirect(""))
	assert.Equal(t, "http://localhost:6789/cb", localRedirect("http://localhost/cb"))
	assert.Equal(t, "http://127.0.0.1:6789", localRedirect("http://127.0.0.1:9999"))
	assert.Equal(t, "https://example.com/cb", localRedirect("https://example.com/cb"))
}

func TestOAuthConfig(t *testing.T) {
	_, err := OAuthConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, errors.ErrNotConfigured)
	assert.True(t, errors.IsUserError(err))

	path := filepath.Join(t.TempDir(), "credentials.json")
	creds := `{"installed":{"client_id":"id","client_secret":"secret",` +
		`"auth_uri":"https://accounts.google.com/o/oauth2/auth",` +
		`"token_uri":"https://oauth2.googleapis.com/token",` +
		`"redirect_uris":["http://localhost"]}}`
	require.NoError(t, os.WriteFile(path, []byte(creds), 0o600))

	cfg, err := OAuthConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "id", cfg.ClientID)
	assert.Equal(t, "http://localhost:6789", cfg.RedirectURL)
	assert.Contains(t, cfg.Scopes, calendar.CalendarEventsScope)
}

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}

	require.NoError(t, saveToken(path, tok))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := tokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.AccessToken)
	assert.Equal(t, "r", loaded.RefreshToken)
	assert.True(t, loaded.Expiry.Equal(tok.Expiry))
}

type staticSource struct{ tok *oauth2.Token }

func (s staticSource) Token() (*oauth2.Token, error) { return s.tok, nil }

func TestSavingTokenSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	old := &oauth2.Token{AccessToken: "old"}
	fresh := &oauth2.Token{AccessToken: "fresh"}

	ts := &savingTokenSource{base: staticSource{old}, path: path, last: old}
	_, err := ts.Token()
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "unchanged token is not rewritten")

	ts.base = staticSource{fresh}
	_, err = ts.Token()
	require.NoError(t, err)
	saved, err := tokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", saved.AccessToken)
}
