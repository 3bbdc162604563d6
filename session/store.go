package session

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/internal"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces session keys when NewRedisStore gets an empty prefix.
const DefaultRedisPrefix = "authcore:sess"

const (
	revokeStatusNotFound int64 = 0
	revokeStatusExpired  int64 = 1
	revokeStatusRevoked  int64 = 2
	revokeStatusCorrupt  int64 = 3
	revokeStatusOK       int64 = 4
)

// The user index lives as long as its longest session.
const createSessionScript = `
local ok = redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2], "NX")
if not ok then
  return 0
end
redis.call("SADD", KEYS[2], ARGV[3])
local ttl = redis.call("PTTL", KEYS[2])
if ttl < tonumber(ARGV[2]) then
  redis.call("PEXPIRE", KEYS[2], ARGV[2])
end
return 1
`

var createSessionLua = redis.NewScript(createSessionScript)

const revokeSessionScript = `
local function read_be64(s, i)
  local n = 0
  for j = i, i + 7 do
    local b = string.byte(s, j)
    if not b then
      return nil
    end
    n = n * 256 + b
  end
  return n
end

local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end

if #data < 19 or string.byte(data, 1) ~= 1 then
  return 3
end
local user_len = string.byte(data, 19)
if user_len == 0 or #data ~= 19 + user_len then
  return 3
end

local expires_at = read_be64(data, 11)
if not expires_at then
  return 3
end

if expires_at <= tonumber(ARGV[1]) then
  local user_key = ARGV[2] .. string.sub(data, 20, 19 + user_len)
  redis.call("DEL", KEYS[1])
  redis.call("SREM", user_key, ARGV[3])
  return 1
end

local flags = string.byte(data, 2)
if flags % 2 == 1 then
  return 2
end

redis.call("SETRANGE", KEYS[1], 1, string.char(flags + 1))
return 4
`

var revokeSessionLua = redis.NewScript(revokeSessionScript)

// RedisStore keeps session records in Redis. Each record is one string key
// with a PX expiry; a per-user set indexes the keys of that user's sessions.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Backend on top of rdb.
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{
		redis:  rdb,
		prefix: prefix,
	}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisStore) userPrefix() string {
	return s.prefix + ":user:"
}

func (s *RedisStore) userKey(userID string) string {
	return s.userPrefix() + userID
}

// Create stores rec under its key if the key is free. It reports false,
// without error, when the key is already taken.
//
//	Performance: 1 Lua EVALSHA.
func (s *RedisStore) Create(ctx context.Context, rec *Record, ttl time.Duration) (bool, error) {
	if !validKey(rec.Key) {
		return false, ErrInvalidKey
	}
	data, err := Encode(rec)
	if err != nil {
		return false, err
	}
	if ttl < time.Millisecond {
		return false, errors.New("session ttl must be at least 1ms")
	}

	created, err := createSessionLua.Run(
		ctx,
		s.redis,
		[]string{s.key(rec.Key), s.userKey(rec.UserID)},
		data,
		ttl.Milliseconds(),
		rec.Key,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return created == 1, nil
}

// Get returns the record stored under key. A record whose expiry has passed
// at now is deleted on the spot and reported as ErrNotFound, so readers never
// depend on Redis having evicted it yet.
func (s *RedisStore) Get(ctx context.Context, key string, now time.Time) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	rec, err := Decode(data)
	if err != nil {
		return nil, err
	}
	rec.Key = key

	if rec.Expired(now) {
		if err := s.deleteRecords(ctx, rec); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	return rec, nil
}

// Revoke atomically flips the revoked flag of a live record. The key keeps
// its remaining TTL. Missing, expired and already revoked records all yield
// ErrNotFound.
//
//	Performance: 1 Lua EVALSHA.
func (s *RedisStore) Revoke(ctx context.Context, key string, now time.Time) error {
	status, err := revokeSessionLua.Run(
		ctx,
		s.redis,
		[]string{s.key(key)},
		now.UnixMilli(),
		s.userPrefix(),
		key,
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	switch status {
	case revokeStatusOK:
		return nil
	case revokeStatusNotFound, revokeStatusExpired, revokeStatusRevoked:
		return ErrNotFound
	case revokeStatusCorrupt:
		return ErrCorrupt
	default:
		return fmt.Errorf("%w: unknown revoke script status %d", ErrRedisUnavailable, status)
	}
}

// ListForUser returns every unexpired record of userID, revoked ones
// included, oldest first. Index entries whose record is gone or expired are
// pruned along the way.
func (s *RedisStore) ListForUser(ctx context.Context, userID string, now time.Time) ([]*Record, error) {
	userKey := s.userKey(userID)

	members, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*Record{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(members) == 0 {
		return []*Record{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(members))
	for i, member := range members {
		cmds[i] = pipe.Get(ctx, s.key(member))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var (
		records = make([]*Record, 0, len(members))
		stale   []*Record
	)
	for i, cmd := range cmds {
		if !validKey(members[i]) {
			stale = append(stale, &Record{Key: members[i], UserID: userID})
			continue
		}
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				stale = append(stale, &Record{Key: members[i], UserID: userID})
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, cmdErr)
		}

		rec, decErr := Decode(data)
		if decErr != nil || rec.UserID != userID {
			continue
		}
		rec.Key = members[i]

		if rec.Expired(now) {
			stale = append(stale, rec)
			continue
		}
		records = append(records, rec)
	}

	if len(stale) > 0 {
		if err := s.deleteRecords(ctx, stale...); err != nil {
			return nil, err
		}
	}

	sortRecords(records)
	return records, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func (s *RedisStore) deleteRecords(ctx context.Context, recs ...*Record) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, rec := range recs {
			pipe.Del(ctx, s.key(rec.Key))
			pipe.SRem(ctx, s.userKey(rec.UserID), rec.Key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// validKey reports whether key has the shape of a token hash.
func validKey(key string) bool {
	_, err := internal.ParseTokenHashHex(key)
	return err == nil
}

func sortRecords(records []*Record) {
	slices.SortFunc(records, func(a, b *Record) int {
		return cmp.Or(cmp.Compare(a.IssuedAt, b.IssuedAt), strings.Compare(a.Key, b.Key))
	})
}
