// internal/queue/redis.go
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	jobKeyPrefix = "inference:job:"
	pendingKey   = "inference:pending"
	delayedKey   = "inference:delayed"
	completedKey = "inference:completed"
	failedKey    = "inference:failed"
	ownedKeyPref = "inference:user:"
	ownedKeySuff = ":jobs"
)

// transitionScript performs the check-then-set for every state change: a
// job already in a terminal state keeps it and the script returns which one,
// otherwise the new state (plus an optional extra field) is written. Running
// it server-side keeps abort-vs-worker races from ever overwriting a
// terminal state.
var transitionScript = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
if not status then
  return 'UNKNOWN'
end
if status == 'COMPLETED' or status == 'FAILED' or status == 'ABORTED' then
  return status
end
redis.call('HSET', KEYS[1], 'status', ARGV[1])
if ARGV[2] ~= '' then
  redis.call('HSET', KEYS[1], ARGV[2], ARGV[3])
end
return ARGV[1]
`)

type RedisStore struct {
	rdb       *redis.Client
	retention int
}

func NewRedisStore(rdb *redis.Client, retention int) *RedisStore {
	return &RedisStore{rdb: rdb, retention: retention}
}

func jobKey(id string) string { return jobKeyPrefix + id }

func ownedKey(userID uint) string {
	return fmt.Sprintf("%s%d%s", ownedKeyPref, userID, ownedKeySuff)
}

func (s *RedisStore) writeJob(ctx context.Context, job *Job) error {
	payload, err := json.Marshal(job.Spectrograms)
	if err != nil {
		return fmt.Errorf("failed to marshal spectrograms: %w", err)
	}

	fields := map[string]interface{}{
		"user_id":    strconv.FormatUint(uint64(job.UserID), 10),
		"model_id":   job.ModelID,
		"payload":    string(payload),
		"status":     string(job.State),
		"reason":     job.Reason,
		"created_at": job.CreatedAt.Unix(),
		"ready_at":   job.ReadyAt.Unix(),
	}
	if err := s.rdb.HSet(ctx, jobKey(job.ID), fields).Err(); err != nil {
		return fmt.Errorf("failed to store job: %w", err)
	}
	return s.rdb.RPush(ctx, ownedKey(job.UserID), job.ID).Err()
}

func (s *RedisStore) Enqueue(ctx context.Context, job *Job, delay time.Duration) error {
	job.ID = uuid.New().String()
	job.CreatedAt = time.Now()

	if delay > 0 {
		job.State = StateDelayed
		job.ReadyAt = job.CreatedAt.Add(delay)
	} else {
		job.State = StatePending
		job.ReadyAt = job.CreatedAt
	}

	if err := s.writeJob(ctx, job); err != nil {
		return err
	}

	if job.State == StateDelayed {
		return s.rdb.ZAdd(ctx, delayedKey, redis.Z{
			Score:  float64(job.ReadyAt.Unix()),
			Member: job.ID,
		}).Err()
	}
	return s.rdb.RPush(ctx, pendingKey, job.ID).Err()
}

func (s *RedisStore) CreateAborted(ctx context.Context, job *Job, reason string) error {
	job.ID = uuid.New().String()
	job.CreatedAt = time.Now()
	job.ReadyAt = job.CreatedAt
	job.State = StateAborted
	job.Reason = reason
	return s.writeJob(ctx, job)
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	fields, err := s.rdb.HGetAll(ctx, jobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrJobNotFound
	}

	job := &Job{
		ID:           id,
		ModelID:      fields["model_id"],
		State:        State(fields["status"]),
		Reason:       fields["reason"],
		ResultObject: fields["result_object"],
	}
	if job.State == "" {
		job.State = StateUnknown
	}
	if v, err := strconv.ParseUint(fields["user_id"], 10, 64); err == nil {
		job.UserID = uint(v)
	}
	if v, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		job.CreatedAt = time.Unix(v, 0)
	}
	if v, err := strconv.ParseInt(fields["ready_at"], 10, 64); err == nil {
		job.ReadyAt = time.Unix(v, 0)
	}
	if raw := fields["payload"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &job.Spectrograms); err != nil {
			return nil, fmt.Errorf("failed to unmarshal job payload: %w", err)
		}
	}
	if res := fields["result"]; res != "" {
		job.Result = []byte(res)
	}
	return job, nil
}

// promoteDelayed moves every delayed job whose ready time has passed onto
// the pending list.
func (s *RedisStore) promoteDelayed(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	due, err := s.rdb.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return err
	}

	for _, id := range due {
		removed, err := s.rdb.ZRem(ctx, delayedKey, id).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			// Another scheduler promoted it first.
			continue
		}
		if _, err := transitionScript.Run(ctx, s.rdb, []string{jobKey(id)}, string(StatePending), "", "").Result(); err != nil {
			return err
		}
		if err := s.rdb.RPush(ctx, pendingKey, id).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) Dequeue(ctx context.Context) (*Job, error) {
	if err := s.promoteDelayed(ctx); err != nil {
		return nil, fmt.Errorf("failed to promote delayed jobs: %w", err)
	}

	for {
		id, err := s.rdb.LPop(ctx, pendingKey).Result()
		if err == redis.Nil {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to pop pending job: %w", err)
		}

		res, err := transitionScript.Run(ctx, s.rdb, []string{jobKey(id)}, string(StateRunning), "", "").Result()
		if err != nil {
			return nil, fmt.Errorf("failed to claim job %s: %w", id, err)
		}

		switch State(fmt.Sprint(res)) {
		case StateRunning:
			return s.Get(ctx, id)
		default:
			// Aborted (or vanished) while queued: already handled,
			// try the next one.
			continue
		}
	}
}

func (s *RedisStore) finish(ctx context.Context, id string, state State, field, value, listKey string) error {
	res, err := transitionScript.Run(ctx, s.rdb, []string{jobKey(id)}, string(state), field, value).Result()
	if err != nil {
		return fmt.Errorf("failed to finish job %s: %w", id, err)
	}
	if State(fmt.Sprint(res)) != state {
		// Already terminal; the earlier outcome stands.
		return nil
	}

	if err := s.rdb.LPush(ctx, listKey, id).Err(); err != nil {
		return err
	}
	// Bounded retention: old finished jobs fall off the list and their
	// hashes are deleted.
	for {
		length, err := s.rdb.LLen(ctx, listKey).Result()
		if err != nil || length <= int64(s.retention) {
			return err
		}
		old, err := s.rdb.RPop(ctx, listKey).Result()
		if err != nil {
			return err
		}
		if err := s.rdb.Del(ctx, jobKey(old)).Err(); err != nil {
			return err
		}
	}
}

func (s *RedisStore) Complete(ctx context.Context, id string, result []byte, resultObject string) error {
	if resultObject != "" {
		if err := s.rdb.HSet(ctx, jobKey(id), "result_object", resultObject).Err(); err != nil {
			return err
		}
	}
	return s.finish(ctx, id, StateCompleted, "result", string(result), completedKey)
}

func (s *RedisStore) Fail(ctx context.Context, id string, reason string) error {
	return s.finish(ctx, id, StateFailed, "reason", reason, failedKey)
}

func (s *RedisStore) Abort(ctx context.Context, id string, reason string) (State, error) {
	res, err := transitionScript.Run(ctx, s.rdb, []string{jobKey(id)}, string(StateAborted), "reason", reason).Result()
	if err != nil {
		return StateUnknown, fmt.Errorf("failed to abort job %s: %w", id, err)
	}
	state := State(fmt.Sprint(res))
	if state == StateUnknown {
		return StateUnknown, ErrJobNotFound
	}

	// Drop it from the queues so no worker picks it up; a worker that
	// already claimed it will see the terminal state and stand down.
	s.rdb.LRem(ctx, pendingKey, 0, id)
	s.rdb.ZRem(ctx, delayedKey, id)
	return state, nil
}

func (s *RedisStore) IsOwned(ctx context.Context, userID uint, jobID string) (bool, error) {
	ids, err := s.rdb.LRange(ctx, ownedKey(userID), 0, -1).Result()
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == jobID {
			return true, nil
		}
	}
	return false, nil
}
