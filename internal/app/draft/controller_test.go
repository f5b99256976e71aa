package draft_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/PabloGalante/vitalito/internal/adapters/storage/memory"
	"github.com/PabloGalante/vitalito/internal/app/draft"
	"github.com/PabloGalante/vitalito/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeResponder struct {
	streaming bool
	err       error
	submitted []string
	stopped   int
}

func (r *fakeResponder) Submit(_ context.Context, text string) error {
	if r.err != nil {
		return r.err
	}
	r.submitted = append(r.submitted, text)
	return nil
}

func (r *fakeResponder) Stop()             { r.stopped++ }
func (r *fakeResponder) IsStreaming() bool { return r.streaming }

type fakeSurface struct {
	value   string
	width   int
	rows    int
	focused int
}

func (s *fakeSurface) Value() string    { return s.value }
func (s *fakeSurface) Width() int       { return s.width }
func (s *fakeSurface) SetRows(rows int) { s.rows = rows }
func (s *fakeSurface) Focus()           { s.focused++ }

type noticeRecorder struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (n *noticeRecorder) Notify(notice domain.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}
func (failingStore) Set(context.Context, string, string) error { return errors.New("disk on fire") }

type fixture struct {
	store     *memory.KVStore
	log       *memory.MessageLog
	responder *fakeResponder
	surface   *fakeSurface
	notices   *noticeRecorder
	width     int
	ctrl      *draft.Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:     memory.NewKVStore(),
		log:       memory.NewMessageLog(),
		responder: &fakeResponder{},
		surface:   &fakeSurface{width: 20},
		notices:   &noticeRecorder{},
		width:     120,
	}
	f.ctrl = draft.NewController(draft.Config{
		Store:         f.store,
		Responder:     f.responder,
		Messages:      f.log,
		Notifier:      f.notices,
		Surface:       f.surface,
		ViewportWidth: func() int { return f.width },
		WideThreshold: 100,
		MaxRows:       8,
	})
	t.Cleanup(f.ctrl.Close)
	return f
}

func (f *fixture) persisted(t *testing.T) string {
	t.Helper()
	f.ctrl.Flush()
	v, _, err := f.store.Get(context.Background(), draft.StorageKey)
	require.NoError(t, err)
	return v
}

func TestSetDraftPersistsLastValue(t *testing.T) {
	f := newFixture(t)

	for _, s := range []string{"h", "ho", "hol", "hola"} {
		f.ctrl.SetDraft(s)
	}

	assert.Equal(t, "hola", f.ctrl.Draft())
	assert.Equal(t, "hola", f.persisted(t))
}

func TestSetDraftResizesSurface(t *testing.T) {
	f := newFixture(t)

	f.ctrl.SetDraft("una línea")
	assert.Equal(t, 1, f.surface.rows)

	f.ctrl.SetDraft("a\nb\nc")
	assert.Equal(t, 3, f.surface.rows)

	// 45 runes at width 20 wrap onto 3 rows
	f.ctrl.SetDraft("123456789012345678901234567890123456789012345")
	assert.Equal(t, 3, f.surface.rows)
}

func TestRestoreOnMountPrefersRenderedValue(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Set(context.Background(), draft.StorageKey, "guardado"))
	f.surface.value = "en pantalla"

	f.ctrl.RestoreOnMount(context.Background())

	assert.Equal(t, "en pantalla", f.ctrl.Draft())
}

func TestRestoreOnMountFallsBackToStore(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Set(context.Background(), draft.StorageKey, "guardado"))

	f.ctrl.RestoreOnMount(context.Background())

	assert.Equal(t, "guardado", f.ctrl.Draft())
}

func TestRestoreOnMountRunsOnce(t *testing.T) {
	f := newFixture(t)
	f.ctrl.RestoreOnMount(context.Background())
	assert.Equal(t, "", f.ctrl.Draft())

	f.surface.value = "tarde"
	f.ctrl.RestoreOnMount(context.Background())

	assert.Equal(t, "", f.ctrl.Draft())
}

func TestRestoreOnMountToleratesStoreErrors(t *testing.T) {
	ctrl := draft.NewController(draft.Config{
		Store:     failingStore{},
		Responder: &fakeResponder{},
		Messages:  memory.NewMessageLog(),
	})
	defer ctrl.Close()

	ctrl.RestoreOnMount(context.Background())
	ctrl.SetDraft("sigue funcionando")
	ctrl.Flush()

	assert.Equal(t, "sigue funcionando", ctrl.Draft())
}

func TestSubmitButtonState(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.ctrl.CanSubmit())
	assert.ErrorIs(t, f.ctrl.Submit(context.Background()), draft.ErrEmptyDraft)
	assert.Empty(t, f.responder.submitted)

	f.ctrl.SetDraft("hello")
	assert.True(t, f.ctrl.CanSubmit())

	require.NoError(t, f.ctrl.Submit(context.Background()))
	assert.Equal(t, []string{"hello"}, f.responder.submitted)
}

func TestSubmitClearsPersistedDraftOnly(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetDraft("hello")

	require.NoError(t, f.ctrl.Submit(context.Background()))

	assert.Equal(t, "", f.persisted(t))
	assert.Equal(t, "hello", f.ctrl.Draft(), "host clears the in-memory draft")
}

func TestSubmitWhileStreamingIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetDraft("hello")
	f.responder.streaming = true

	err := f.ctrl.Submit(context.Background())

	assert.ErrorIs(t, err, draft.ErrResponseStreaming)
	assert.Empty(t, f.responder.submitted)
	assert.Equal(t, "hello", f.ctrl.Draft())
	assert.Equal(t, "hello", f.persisted(t))
	assert.Equal(t, 0, f.log.Len())
	require.Len(t, f.notices.notices, 1)
	assert.Equal(t, domain.NoticeError, f.notices.notices[0].Level)
}

func TestSubmitRefocusesOnWideViewport(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetDraft("hola")
	require.NoError(t, f.ctrl.Submit(context.Background()))
	assert.Equal(t, 1, f.surface.focused)

	f.width = 60
	f.ctrl.SetDraft("otra vez")
	require.NoError(t, f.ctrl.Submit(context.Background()))
	assert.Equal(t, 1, f.surface.focused)
}

func TestSubmitFailureKeepsPersistedDraft(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetDraft("hola")
	f.responder.err = errors.New("backend down")

	err := f.ctrl.Submit(context.Background())

	require.Error(t, err)
	assert.Equal(t, "hola", f.persisted(t))
	require.Len(t, f.notices.notices, 1)
}

func TestHandleKey(t *testing.T) {
	t.Run("enter submits and swallows the newline", func(t *testing.T) {
		f := newFixture(t)
		f.ctrl.SetDraft("hola")

		handled := f.ctrl.HandleKey(context.Background(), draft.KeyPress{Enter: true})

		assert.True(t, handled)
		assert.Equal(t, []string{"hola"}, f.responder.submitted)
	})

	t.Run("modified enter inserts a newline", func(t *testing.T) {
		f := newFixture(t)
		f.ctrl.SetDraft("hola")

		handled := f.ctrl.HandleKey(context.Background(), draft.KeyPress{Enter: true, Modified: true})

		assert.False(t, handled)
		assert.Empty(t, f.responder.submitted)
	})

	t.Run("enter while streaming reports and swallows", func(t *testing.T) {
		f := newFixture(t)
		f.ctrl.SetDraft("hola")
		f.responder.streaming = true

		handled := f.ctrl.HandleKey(context.Background(), draft.KeyPress{Enter: true})

		assert.True(t, handled)
		assert.Empty(t, f.responder.submitted)
		assert.Len(t, f.notices.notices, 1)
	})

	t.Run("other keys fall through", func(t *testing.T) {
		f := newFixture(t)
		assert.False(t, f.ctrl.HandleKey(context.Background(), draft.KeyPress{}))
	})
}

func TestStopSanitizesMessages(t *testing.T) {
	f := newFixture(t)
	f.log.Append(domain.Message{ID: "u", Role: domain.RoleUser, Content: "hola"})
	f.log.Append(domain.Message{ID: "a", Role: domain.RoleAssistant, Pending: true})

	f.ctrl.Stop()

	assert.Equal(t, 1, f.responder.stopped)
	assert.Equal(t, 1, f.log.Len())
}

func TestOnSubmittedClearsDraft(t *testing.T) {
	store := memory.NewKVStore()
	responder := &fakeResponder{}
	var accepted []string

	var ctrl *draft.Controller
	ctrl = draft.NewController(draft.Config{
		Store:     store,
		Responder: responder,
		Messages:  memory.NewMessageLog(),
		OnSubmitted: func(text string) {
			accepted = append(accepted, text)
			ctrl.SetDraft("")
		},
	})
	defer ctrl.Close()

	ctrl.SetDraft("dosis de metformina")
	require.NoError(t, ctrl.Submit(context.Background()))

	assert.Equal(t, []string{"dosis de metformina"}, accepted)
	assert.Empty(t, ctrl.Draft())
	assert.False(t, ctrl.CanSubmit())

	ctrl.Flush()
	v, _, err := store.Get(context.Background(), draft.StorageKey)
	require.NoError(t, err)
	assert.Empty(t, v)
}
