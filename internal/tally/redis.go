package tally

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/memohai/recallbot/internal/recall"
)

// DefaultRedisPrefix namespaces all keys written by RedisPersister.
const DefaultRedisPrefix = "recallbot"

// RedisPersister stores the snapshot under three keys:
//   - {prefix}:reasons    list of reasons in first insertion order
//   - {prefix}:counts     hash reason -> count
//   - {prefix}:processed  list of processed message ids
//   - {prefix}:seen       set of processed message ids, for Record
//
// Saves replace all keys inside one MULTI/EXEC transaction. Record appends a
// single recall atomically through a Lua script.
type RedisPersister struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisPersister(rdb redis.Cmdable, prefix string) *RedisPersister {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisPersister{rdb: rdb, prefix: prefix}
}

func (p *RedisPersister) reasonsKey() string   { return p.prefix + ":reasons" }
func (p *RedisPersister) countsKey() string    { return p.prefix + ":counts" }
func (p *RedisPersister) processedKey() string { return p.prefix + ":processed" }
func (p *RedisPersister) seenKey() string      { return p.prefix + ":seen" }

// recordScript rebuilds the seen set from the processed list when it is
// missing, then records the message once.
var recordScript = redis.NewScript(`
local seen, processed, counts, reasons = KEYS[1], KEYS[2], KEYS[3], KEYS[4]
if redis.call('SCARD', seen) == 0 then
  for _, id in ipairs(redis.call('LRANGE', processed, 0, -1)) do
    redis.call('SADD', seen, id)
  end
end
if redis.call('SADD', seen, ARGV[2]) == 0 then
  return 0
end
redis.call('RPUSH', processed, ARGV[2])
if redis.call('HINCRBY', counts, ARGV[1], 1) == 1 then
  redis.call('RPUSH', reasons, ARGV[1])
end
return 1
`)

func (p *RedisPersister) Load(ctx context.Context) (Snapshot, error) {
	pipe := p.rdb.Pipeline()
	reasonsCmd := pipe.LRange(ctx, p.reasonsKey(), 0, -1)
	countsCmd := pipe.HGetAll(ctx, p.countsKey())
	processedCmd := pipe.LRange(ctx, p.processedKey(), 0, -1)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Snapshot{}, fmt.Errorf("read snapshot from redis: %w", err)
	}

	counts := countsCmd.Val()
	snap := Snapshot{ProcessedMessageIDs: processedCmd.Val()}
	for _, reason := range reasonsCmd.Val() {
		raw, ok := counts[reason]
		if !ok {
			continue
		}
		count, err := strconv.Atoi(raw)
		if err != nil {
			return Snapshot{}, fmt.Errorf("invalid count for %q: %w", reason, err)
		}
		snap.Reasons = append(snap.Reasons, recall.Entry{Reason: reason, Count: count})
	}
	return snap, nil
}

func (p *RedisPersister) Save(ctx context.Context, snap Snapshot) error {
	_, err := p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, p.reasonsKey(), p.countsKey(), p.processedKey(), p.seenKey())
		if len(snap.Reasons) > 0 {
			reasons := make([]any, 0, len(snap.Reasons))
			counts := make(map[string]any, len(snap.Reasons))
			for _, entry := range snap.Reasons {
				reasons = append(reasons, entry.Reason)
				counts[entry.Reason] = entry.Count
			}
			pipe.RPush(ctx, p.reasonsKey(), reasons...)
			pipe.HSet(ctx, p.countsKey(), counts)
		}
		if len(snap.ProcessedMessageIDs) > 0 {
			ids := make([]any, 0, len(snap.ProcessedMessageIDs))
			for _, id := range snap.ProcessedMessageIDs {
				ids = append(ids, id)
			}
			pipe.RPush(ctx, p.processedKey(), ids...)
			pipe.SAdd(ctx, p.seenKey(), ids...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write snapshot to redis: %w", err)
	}
	return nil
}

// Record appends messageID and increments reason without touching the rest
// of the snapshot.
func (p *RedisPersister) Record(ctx context.Context, reason, messageID string) error {
	keys := []string{p.seenKey(), p.processedKey(), p.countsKey(), p.reasonsKey()}
	added, err := recordScript.Run(ctx, p.rdb, keys, reason, messageID).Int()
	if err != nil {
		return fmt.Errorf("record recall in redis: %w", err)
	}
	if added == 0 {
		return ErrAlreadyRecorded
	}
	return nil
}
