package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Krimson/radar-scope/viewer/internal/chart"
	"github.com/Krimson/radar-scope/viewer/internal/plot"
)

// RedisStore implements CacheStore on Redis. Every key expires after ttl; zero disables expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// ===== Keys =====

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:metadata", sessionID)
}

func stateKey(sessionID string) string {
	return fmt.Sprintf("session:%s:state", sessionID)
}

func seriesKey(sessionID string) string {
	return fmt.Sprintf("session:%s:series", sessionID)
}

// cachedState is the state stored without its series, which live in a list.
type cachedState struct {
	Bounds  plot.Bounds `json:"bounds"`
	HasData bool        `json:"has_data"`
	XTitle  string      `json:"x_title"`
	YTitle  string      `json:"y_title"`
}

// ===== Sessions =====

func (r *RedisStore) SetSession(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return r.client.Set(ctx, sessionKey(session.ID), data, r.ttl).Err()
}

func (r *RedisStore) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// DeleteSession removes the three keys of one session. The id is never used as a pattern.
func (r *RedisStore) DeleteSession(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID), stateKey(sessionID), seriesKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session keys: %w", err)
	}
	return nil
}

func (r *RedisStore) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	count, err := r.client.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ===== Chart state =====

// SetState replaces the cached state in one transaction: header JSON plus one list entry per series.
func (r *RedisStore) SetState(ctx context.Context, sessionID string, state chart.State) error {
	header, err := json.Marshal(cachedState{
		Bounds:  state.Bounds,
		HasData: state.HasData,
		XTitle:  state.XTitle,
		YTitle:  state.YTitle,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, stateKey(sessionID), header, r.ttl)
	pipe.Del(ctx, seriesKey(sessionID))

	for _, s := range state.Series {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal series %s: %w", s.Name, err)
		}
		pipe.RPush(ctx, seriesKey(sessionID), data)
	}
	if r.ttl > 0 && len(state.Series) > 0 {
		pipe.Expire(ctx, seriesKey(sessionID), r.ttl)
	}

	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) GetState(ctx context.Context, sessionID string) (*chart.State, error) {
	raw, err := r.client.Get(ctx, stateKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: no state for %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to get state: %w", err)
	}

	var header cachedState
	if err := json.Unmarshal([]byte(raw), &header); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	state := &chart.State{
		Bounds:  header.Bounds,
		HasData: header.HasData,
		XTitle:  header.XTitle,
		YTitle:  header.YTitle,
	}

	items, err := r.client.LRange(ctx, seriesKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get series: %w", err)
	}

	state.Series, err = decodeSeries(sessionID, items)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// decodeSeries decodes the cached series list. A corrupt entry fails the whole restore
// so that a session is never rebuilt with series missing.
func decodeSeries(sessionID string, items []string) ([]chart.StoredSeries, error) {
	out := make([]chart.StoredSeries, 0, len(items))
	for i, item := range items {
		var s chart.StoredSeries
		if err := json.Unmarshal([]byte(item), &s); err != nil {
			log.Printf("[WARN] Session %s: cached series %d is corrupt: %v", sessionID, i, err)
			return nil, fmt.Errorf("failed to unmarshal series %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// ===== Full session data =====

func (r *RedisStore) GetSessionData(ctx context.Context, sessionID string) (*SessionData, error) {
	session, err := r.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	state, err := r.GetState(ctx, sessionID)
	if err != nil {
		// A freshly created session has no state yet.
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		state = &chart.State{}
	}

	return &SessionData{
		Session: session,
		State:   *state,
	}, nil
}
