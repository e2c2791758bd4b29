package presence

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps a short-lived "online" marker per session in Redis so other
// instances and the HTTP API can see who is connected to a room.
//
// Keys:
//   - <prefix>:room:<roomId>:sessions -> set of session ids seen in the room
//   - <prefix>:presence:<roomId>:<sessionId> -> last seen unix time, expires after ttl
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewStore(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "gyeongdo"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) roomKey(roomID string) string {
	return fmt.Sprintf("%s:room:%s:sessions", s.prefix, roomID)
}

func (s *Store) presenceKey(roomID, sessionID string) string {
	return fmt.Sprintf("%s:presence:%s:%s", s.prefix, roomID, sessionID)
}

// Touch marks sessionID online in roomID and refreshes its TTL.
func (s *Store) Touch(ctx context.Context, roomID, sessionID string) error {
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, s.roomKey(roomID), sessionID)
	pipe.Expire(ctx, s.roomKey(roomID), s.ttl*10)
	pipe.Set(ctx, s.presenceKey(roomID, sessionID), time.Now().Unix(), s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Leave marks sessionID offline.
func (s *Store) Leave(ctx context.Context, roomID, sessionID string) error {
	pipe := s.client.TxPipeline()
	pipe.SRem(ctx, s.roomKey(roomID), sessionID)
	pipe.Del(ctx, s.presenceKey(roomID, sessionID))
	_, err := pipe.Exec(ctx)
	return err
}

// Online returns the sorted sessions with a live marker in roomID. Members
// whose marker expired are pruned.
func (s *Store) Online(ctx context.Context, roomID string) ([]string, error) {
	members, err := s.client.SMembers(ctx, s.roomKey(roomID)).Result()
	if err != nil {
		return nil, err
	}

	online := make([]string, 0, len(members))
	for _, sessionID := range members {
		n, err := s.client.Exists(ctx, s.presenceKey(roomID, sessionID)).Result()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			_ = s.client.SRem(ctx, s.roomKey(roomID), sessionID).Err()
			continue
		}
		online = append(online, sessionID)
	}
	sort.Strings(online)
	return online, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
