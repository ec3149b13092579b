package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Krimson/radar-scope/viewer/internal/chart"
	"github.com/Krimson/radar-scope/viewer/internal/csvload"
	"github.com/Krimson/radar-scope/viewer/internal/valueparse"
)

// active is a session whose chart lives in memory.
type active struct {
	meta  *Session
	chart *chart.Session
}

// Manager owns the chart sessions served by the API.
type Manager struct {
	cache         CacheStore
	repository    Repository
	defaultLocale string

	mu             sync.RWMutex
	activeSessions map[string]*active
	onChange       []func(sessionID string, seriesCount int)
}

// NewManager creates a session manager. defaultLocale is used when a request names none.
func NewManager(cache CacheStore, repository Repository, defaultLocale string) *Manager {
	return &Manager{
		cache:          cache,
		repository:     repository,
		defaultLocale:  defaultLocale,
		activeSessions: make(map[string]*active),
	}
}

// OnChange registers fn to run after every load or clear. Call before serving requests.
func (m *Manager) OnChange(fn func(sessionID string, seriesCount int)) {
	m.onChange = append(m.onChange, fn)
}

// CreateSession starts an empty chart session.
func (m *Manager) CreateSession(ctx context.Context, req *CreateSessionRequest) (*Session, error) {
	locale := req.Locale
	if locale == "" {
		locale = m.defaultLocale
	}
	parser := valueparse.NewFromString(locale)

	now := time.Now()
	session := &Session{
		ID:        uuid.New().String(),
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
		XTitle:    chart.DefaultXTitle,
		YTitle:    chart.DefaultYTitle,
		Metadata: Metadata{
			Locale:      parser.Tag().String(),
			Notes:       req.Notes,
			CreatedFrom: req.CreatedFrom,
		},
	}

	if err := m.cache.SetSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session to cache: %w", err)
	}

	m.mu.Lock()
	m.activeSessions[session.ID] = &active{meta: session, chart: chart.NewSession(parser)}
	m.mu.Unlock()

	log.Printf("[SESSION] Created new session: %s (locale=%s)", session.ID, session.Metadata.Locale)
	return session, nil
}

// GetSession looks a session up in memory, then the cache, then the database.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.RLock()
	if a, ok := m.activeSessions[sessionID]; ok {
		meta := *a.meta
		m.mu.RUnlock()
		return &meta, nil
	}
	m.mu.RUnlock()

	if session, err := m.cache.GetSession(ctx, sessionID); err == nil {
		return session, nil
	}

	session, err := m.repository.GetSession(ctx, sessionID)
	if err != nil {
		return nil, notFound(sessionID, err)
	}
	return session, nil
}

// Chart returns the in-memory chart of a session, restoring it from cache or database if needed.
func (m *Manager) Chart(ctx context.Context, sessionID string) (*chart.Session, error) {
	a, err := m.activate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return a.chart, nil
}

func (m *Manager) activate(ctx context.Context, sessionID string) (*active, error) {
	m.mu.RLock()
	a, ok := m.activeSessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return a, nil
	}

	data, err := m.cache.GetSessionData(ctx, sessionID)
	if err != nil {
		data, err = m.repository.GetSessionData(ctx, sessionID)
		if err != nil {
			return nil, notFound(sessionID, err)
		}
	}

	cs := chart.NewSession(valueparse.NewFromString(data.Session.Metadata.Locale))
	cs.Restore(data.State)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.activeSessions[sessionID]; ok {
		return existing, nil
	}
	a = &active{meta: data.Session, chart: cs}
	m.activeSessions[sessionID] = a

	log.Printf("[SESSION] Restored session %s with %d series", sessionID, cs.Len())
	return a, nil
}

// LoadPaths ingests server-local files into a session.
func (m *Manager) LoadPaths(ctx context.Context, sessionID string, paths []string) (chart.LoadReport, error) {
	a, err := m.activate(ctx, sessionID)
	if err != nil {
		return chart.LoadReport{}, err
	}

	report := a.chart.Load(paths...)
	m.recordFiles(a, paths, report)
	m.persist(ctx, a)
	return report, nil
}

// LoadUploads ingests uploaded files into a session. Each file succeeds or fails on its own.
func (m *Manager) LoadUploads(ctx context.Context, sessionID string, uploads []Upload) (chart.LoadReport, error) {
	a, err := m.activate(ctx, sessionID)
	if err != nil {
		return chart.LoadReport{}, err
	}

	report := chart.LoadReport{Failures: []*csvload.IngestError{}}
	names := make([]string, 0, len(uploads))
	for _, u := range uploads {
		names = append(names, u.Name)
		table, err := csvload.LoadReader(u.Name, u.Reader, a.chart.Parser())
		if err == nil {
			var added int
			added, err = a.chart.LoadTable(table)
			report.SeriesAdded += added
		}
		if err != nil {
			report.Failures = append(report.Failures, ingestFailure(u.Name, err))
			log.Printf("[WARN] Skipping upload %s for session %s: %v", u.Name, sessionID, err)
		}
	}

	m.recordFiles(a, names, report)
	m.persist(ctx, a)
	return report, nil
}

// ClearSession removes every series from a session.
func (m *Manager) ClearSession(ctx context.Context, sessionID string) error {
	a, err := m.activate(ctx, sessionID)
	if err != nil {
		return err
	}

	a.chart.Clear()
	m.mu.Lock()
	a.meta.Metadata.Files = nil
	m.mu.Unlock()

	m.persist(ctx, a)
	log.Printf("[SESSION] Cleared session: %s", sessionID)
	return nil
}

// SaveSession writes the session with all its series to the database.
func (m *Manager) SaveSession(ctx context.Context, sessionID string, notes string) (*Session, error) {
	a, err := m.activate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	m.mu.Lock()
	if notes != "" {
		a.meta.Metadata.Notes = notes
	}
	a.meta.Status = StatusSaved
	a.meta.SavedAt = &now
	m.mu.Unlock()

	data := m.snapshot(a)
	if err := m.repository.SaveSessionData(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to save session to database: %w", err)
	}

	if err := m.cache.SetSession(ctx, data.Session); err != nil {
		log.Printf("[WARN] Failed to update session status in cache: %v", err)
	}

	log.Printf("[SESSION] Saved session to database: %s (%d series)", sessionID, len(data.State.Series))
	return data.Session, nil
}

// ListSessions returns in-memory sessions followed by saved ones, newest first.
func (m *Manager) ListSessions(ctx context.Context, limit, offset int) ([]*Session, error) {
	saved, err := m.repository.ListSessions(ctx, limit+offset, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	seen := make(map[string]bool)
	var sessions []*Session

	m.mu.RLock()
	for id, a := range m.activeSessions {
		meta := *a.meta
		sessions = append(sessions, &meta)
		seen[id] = true
	}
	m.mu.RUnlock()

	for _, s := range saved {
		if !seen[s.ID] {
			sessions = append(sessions, s)
		}
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	if offset >= len(sessions) {
		return []*Session{}, nil
	}
	sessions = sessions[offset:]
	if limit > 0 && limit < len(sessions) {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// DeleteSession removes a session from memory, cache and database.
func (m *Manager) DeleteSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	_, wasActive := m.activeSessions[sessionID]
	delete(m.activeSessions, sessionID)
	m.mu.Unlock()

	if err := m.cache.DeleteSession(ctx, sessionID); err != nil {
		log.Printf("[WARN] Failed to delete session from cache: %v", err)
	}

	if err := m.repository.DeleteSession(ctx, sessionID); err != nil {
		if !wasActive || !errors.Is(err, ErrSessionNotFound) {
			return fmt.Errorf("failed to delete session from database: %w", err)
		}
	}

	log.Printf("[SESSION] Deleted session: %s", sessionID)
	return nil
}

// ActiveCount returns the number of sessions held in memory.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.activeSessions)
}

func (m *Manager) recordFiles(a *active, files []string, report chart.LoadReport) {
	failed := make(map[string]bool, len(report.Failures))
	for _, f := range report.Failures {
		failed[f.Path] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range files {
		if !failed[f] {
			a.meta.Metadata.Files = append(a.meta.Metadata.Files, f)
		}
	}
}

// snapshot copies metadata and chart state, refreshing the derived metadata fields.
func (m *Manager) snapshot(a *active) *SessionData {
	state := a.chart.State()

	m.mu.Lock()
	a.meta.UpdatedAt = time.Now()
	a.meta.SeriesCount = len(state.Series)
	a.meta.XTitle, a.meta.YTitle = state.XTitle, state.YTitle
	meta := *a.meta
	meta.Metadata.Files = append([]string(nil), a.meta.Metadata.Files...)
	m.mu.Unlock()

	return &SessionData{Session: &meta, State: state}
}

// persist refreshes the cached copy. Cache failures are logged, the in-memory state stays authoritative.
func (m *Manager) persist(ctx context.Context, a *active) {
	data := m.snapshot(a)
	for _, fn := range m.onChange {
		fn(data.Session.ID, len(data.State.Series))
	}
	if err := m.cache.SetSession(ctx, data.Session); err != nil {
		log.Printf("[WARN] Failed to cache session %s: %v", data.Session.ID, err)
		return
	}
	if err := m.cache.SetState(ctx, data.Session.ID, data.State); err != nil {
		log.Printf("[WARN] Failed to cache state of session %s: %v", data.Session.ID, err)
	}
}

func notFound(sessionID string, err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrSessionNotFound, sessionID, err)
}

func ingestFailure(name string, err error) *csvload.IngestError {
	var ingestErr *csvload.IngestError
	if errors.As(err, &ingestErr) {
		return ingestErr
	}
	return csvload.NewIngestError(name, "failed to load upload", err)
}
