package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const radarCSV = "time_ms,radar_voltage,radar_adc\n0,1.0,10\n10,2.5,12\n20,1.2,9\n"

func newTestManager() (*Manager, *MemoryCache, *MemoryRepository) {
	cache := NewMemoryCache(time.Hour)
	repo := NewMemoryRepository()
	return NewManager(cache, repo, "en-US"), cache, repo
}

func upload(name, content string) Upload {
	return Upload{Name: name, Reader: strings.NewReader(content)}
}

func TestManager_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	m, cache, _ := newTestManager()

	created, err := m.CreateSession(ctx, &CreateSessionRequest{Notes: "bench run", CreatedFrom: "web"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, StatusActive, created.Status)
	assert.Equal(t, "en-US", created.Metadata.Locale)
	assert.Equal(t, 1, m.ActiveCount())

	got, err := m.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "bench run", got.Metadata.Notes)

	exists, err := cache.SessionExists(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestManager_GetUnknownSession(t *testing.T) {
	m, _, _ := newTestManager()

	_, err := m.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.Chart(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.LoadUploads(context.Background(), "missing", []Upload{upload("a.csv", radarCSV)})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_LoadUploads(t *testing.T) {
	ctx := context.Background()
	m, cache, _ := newTestManager()
	s, err := m.CreateSession(ctx, &CreateSessionRequest{})
	require.NoError(t, err)

	report, err := m.LoadUploads(ctx, s.ID, []Upload{
		upload("run1.csv", radarCSV),
		upload("empty.csv", "\n\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.SeriesAdded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "empty.csv", report.Failures[0].Path)

	cs, err := m.Chart(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, 2, cs.Len())
	assert.Equal(t, "run1 - radar_voltage", cs.Series()[0].Name)

	cached, err := cache.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, cached.SeriesCount)
	assert.Equal(t, "Time [s]", cached.XTitle)
	assert.Equal(t, "Voltage/ADC", cached.YTitle)
	assert.Equal(t, []string{"run1.csv"}, cached.Metadata.Files)
}

func TestManager_RestoresFromCache(t *testing.T) {
	ctx := context.Background()
	m, cache, repo := newTestManager()
	s, err := m.CreateSession(ctx, &CreateSessionRequest{})
	require.NoError(t, err)
	_, err = m.LoadUploads(ctx, s.ID, []Upload{upload("run1.csv", radarCSV)})
	require.NoError(t, err)

	original, err := m.Chart(ctx, s.ID)
	require.NoError(t, err)

	// A second process sharing the cache picks the session up.
	other := NewManager(cache, repo, "en-US")
	restored, err := other.Chart(ctx, s.ID)
	require.NoError(t, err)

	assert.Equal(t, original.Series(), restored.Series())
	assert.Equal(t, original.Handles(), restored.Handles())
	assert.Equal(t, original.Bounds(), restored.Bounds())
	assert.True(t, restored.HasData())
}

func TestManager_SaveAndReloadFromRepository(t *testing.T) {
	ctx := context.Background()
	m, _, repo := newTestManager()
	s, err := m.CreateSession(ctx, &CreateSessionRequest{})
	require.NoError(t, err)
	_, err = m.LoadUploads(ctx, s.ID, []Upload{upload("run1.csv", radarCSV)})
	require.NoError(t, err)

	saved, err := m.SaveSession(ctx, s.ID, "keep")
	require.NoError(t, err)
	assert.Equal(t, StatusSaved, saved.Status)
	require.NotNil(t, saved.SavedAt)
	assert.Equal(t, "keep", saved.Metadata.Notes)
	assert.Equal(t, 2, saved.SeriesCount)

	// Fresh process, empty cache.
	other := NewManager(NewMemoryCache(time.Hour), repo, "en-US")
	got, err := other.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSaved, got.Status)

	cs, err := other.Chart(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, cs.Len())
	x, y := cs.Titles()
	assert.Equal(t, "Time [s]", x)
	assert.Equal(t, "Voltage/ADC", y)
}

func TestManager_ClearSession(t *testing.T) {
	ctx := context.Background()
	m, cache, _ := newTestManager()
	s, err := m.CreateSession(ctx, &CreateSessionRequest{})
	require.NoError(t, err)
	_, err = m.LoadUploads(ctx, s.ID, []Upload{upload("run1.csv", radarCSV)})
	require.NoError(t, err)

	require.NoError(t, m.ClearSession(ctx, s.ID))

	cs, err := m.Chart(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, cs.Len())
	assert.False(t, cs.HasData())

	state, err := cache.GetState(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, state.Series)

	cached, err := cache.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, cached.Metadata.Files)
}

func TestManager_ListSessions(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager()

	var ids []string
	for i := 0; i < 3; i++ {
		s, err := m.CreateSession(ctx, &CreateSessionRequest{})
		require.NoError(t, err)
		ids = append(ids, s.ID)
		time.Sleep(2 * time.Millisecond)
	}
	_, err := m.SaveSession(ctx, ids[0], "")
	require.NoError(t, err)

	all, err := m.ListSessions(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	page, err := m.ListSessions(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[1], page[0].ID)

	empty, err := m.ListSessions(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestManager_DeleteSession(t *testing.T) {
	ctx := context.Background()
	m, cache, repo := newTestManager()
	s, err := m.CreateSession(ctx, &CreateSessionRequest{})
	require.NoError(t, err)
	_, err = m.SaveSession(ctx, s.ID, "")
	require.NoError(t, err)

	require.NoError(t, m.DeleteSession(ctx, s.ID))
	assert.Equal(t, 0, m.ActiveCount())
	assert.Equal(t, 0, cache.Len())

	_, err = repo.GetSession(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.GetSession(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	err = m.DeleteSession(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_DeleteUnsavedSession(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager()
	s, err := m.CreateSession(ctx, &CreateSessionRequest{})
	require.NoError(t, err)

	assert.NoError(t, m.DeleteSession(ctx, s.ID))
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(time.Millisecond)
	require.NoError(t, cache.SetSession(ctx, &Session{ID: "s1"}))

	time.Sleep(5 * time.Millisecond)
	_, err := cache.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, cache.Len())
}

func TestManager_OnChange(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager()

	var counts []int
	m.OnChange(func(sessionID string, seriesCount int) {
		counts = append(counts, seriesCount)
	})

	s, err := m.CreateSession(ctx, &CreateSessionRequest{})
	require.NoError(t, err)
	_, err = m.LoadUploads(ctx, s.ID, []Upload{upload("run1.csv", radarCSV)})
	require.NoError(t, err)
	require.NoError(t, m.ClearSession(ctx, s.ID))

	assert.Equal(t, []int{2, 0}, counts)
}
