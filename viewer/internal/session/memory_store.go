package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Krimson/radar-scope/viewer/internal/chart"
)

// MemoryCache is a CacheStore kept in process memory. Used when external storage is disabled and in tests.
type MemoryCache struct {
	mutex   sync.RWMutex
	entries map[string][]byte
	expires map[string]time.Time
	ttl     time.Duration
}

// NewMemoryCache creates a MemoryCache. Entries older than ttl are dropped on read; zero keeps them forever.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string][]byte),
		expires: make(map[string]time.Time),
		ttl:     ttl,
	}
}

func (c *MemoryCache) put(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[key] = data
	if c.ttl > 0 {
		c.expires[key] = time.Now().Add(c.ttl)
	}
	return nil
}

func (c *MemoryCache) get(key string, out any) (bool, error) {
	c.mutex.RLock()
	data, ok := c.entries[key]
	expiry, hasExpiry := c.expires[key]
	c.mutex.RUnlock()

	if !ok || (hasExpiry && time.Now().After(expiry)) {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (c *MemoryCache) SetSession(ctx context.Context, session *Session) error {
	return c.put(sessionKey(session.ID), session)
}

func (c *MemoryCache) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	ok, err := c.get(sessionKey(sessionID), &session)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return &session, nil
}

func (c *MemoryCache) DeleteSession(ctx context.Context, sessionID string) error {
	prefix := fmt.Sprintf("session:%s:", sessionID)

	c.mutex.Lock()
	defer c.mutex.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			delete(c.expires, key)
		}
	}
	return nil
}

func (c *MemoryCache) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	var session Session
	return c.get(sessionKey(sessionID), &session)
}

func (c *MemoryCache) SetState(ctx context.Context, sessionID string, state chart.State) error {
	return c.put(stateKey(sessionID), state)
}

func (c *MemoryCache) GetState(ctx context.Context, sessionID string) (*chart.State, error) {
	var state chart.State
	ok, err := c.get(stateKey(sessionID), &state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no state for %s", ErrSessionNotFound, sessionID)
	}
	return &state, nil
}

func (c *MemoryCache) GetSessionData(ctx context.Context, sessionID string) (*SessionData, error) {
	session, err := c.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state, err := c.GetState(ctx, sessionID)
	if err != nil {
		state = &chart.State{}
	}
	return &SessionData{Session: session, State: *state}, nil
}

// Len returns the number of live keys.
func (c *MemoryCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	now := time.Now()
	n := 0
	for key := range c.entries {
		if expiry, ok := c.expires[key]; ok && now.After(expiry) {
			continue
		}
		n++
	}
	return n
}

// MemoryRepository is a Repository kept in process memory.
type MemoryRepository struct {
	mutex    sync.RWMutex
	sessions map[string][]byte
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[string][]byte),
	}
}

func (p *MemoryRepository) SaveSessionData(ctx context.Context, data *SessionData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	p.mutex.Lock()
	p.sessions[data.Session.ID] = raw
	p.mutex.Unlock()

	log.Printf("[INFO] Memory repository: saved session %s (%d series)", data.Session.ID, len(data.State.Series))
	return nil
}

func (p *MemoryRepository) GetSessionData(ctx context.Context, sessionID string) (*SessionData, error) {
	p.mutex.RLock()
	raw, ok := p.sessions[sessionID]
	p.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	var data SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return &data, nil
}

func (p *MemoryRepository) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	data, err := p.GetSessionData(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return data.Session, nil
}

func (p *MemoryRepository) ListSessions(ctx context.Context, limit, offset int) ([]*Session, error) {
	p.mutex.RLock()
	ids := make([]string, 0, len(p.sessions))
	for id := range p.sessions {
		ids = append(ids, id)
	}
	p.mutex.RUnlock()

	sessions := make([]*Session, 0, len(ids))
	for _, id := range ids {
		s, err := p.GetSession(ctx, id)
		if err != nil {
			continue
		}
		sessions = append(sessions, s)
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

func (p *MemoryRepository) DeleteSession(ctx context.Context, sessionID string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if _, ok := p.sessions[sessionID]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	delete(p.sessions, sessionID)
	return nil
}
