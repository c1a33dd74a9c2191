package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/interfaces"
	"github.com/showforge/showforge/internal/models"
)

// BadgerQueue implements a persistent priority queue using BadgerDB.
// Index keys are ordered so ascending iteration yields tier order with
// FIFO tie-break within a tier:
//
//	queue:{name}:index:{invPriority:03d}:{enqueueNano:020d}:{id}
//
// invPriority = 1000 - priority, so higher-tier jobs sort first.
// Delivery is at-least-once: a claimed message becomes visible again
// after the visibility timeout, and consumers must tolerate duplicate
// delivery after a crash.
type BadgerQueue struct {
	db     *badger.DB
	opts   Options
	logger arbor.ILogger
}

// NewBadgerQueue creates a new Badger-backed render queue
func NewBadgerQueue(db *badger.DB, opts Options, logger arbor.ILogger) (*BadgerQueue, error) {
	if db == nil {
		return nil, errors.New("badger db is required")
	}

	return &BadgerQueue{
		db:     db,
		opts:   opts.withDefaults(),
		logger: logger,
	}, nil
}

// Enqueue adds a message to the queue at the given tier priority and
// returns the queue message id.
func (q *BadgerQueue) Enqueue(ctx context.Context, msg *models.RenderQueueMessage, priority int) (string, error) {
	if msg == nil {
		return "", errors.New("message is required")
	}

	id := uuid.New().String()
	e := entry{
		ID:         id,
		Message:    *msg,
		Priority:   priority,
		State:      StateWaiting,
		EnqueuedAt: time.Now(),
		VisibleAt:  time.Now(),
	}

	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("failed to marshal queue message: %w", err)
	}

	err = q.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(q.msgKey(id), data); err != nil {
			return err
		}
		return txn.Set(q.indexKey(priority, e.EnqueuedAt, id), []byte{})
	})
	if err != nil {
		return "", fmt.Errorf("failed to enqueue message: %w", err)
	}

	q.logger.Debug().Str("queue_job_id", id).Str("episode_id", msg.EpisodeID).Int("priority", priority).Msg("Message enqueued")
	return id, nil
}

// Receive claims the next visible message in priority order. Returns
// models.ErrNoMessage when nothing is ready. The ack function removes
// the message permanently; the nack function schedules redelivery with
// exponential backoff, dead-lettering once the attempt limit is hit.
func (q *BadgerQueue) Receive(ctx context.Context) (*interfaces.QueueEntry, interfaces.AckFunc, interfaces.NackFunc, error) {
	var claimed entry

	err := q.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte(fmt.Sprintf("queue:%s:index:", q.opts.QueueName))
		it := txn.NewIterator(opts)
		defer it.Close()

		now := time.Now()
		found := false

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)

			id, err := q.parseIndexKey(key)
			if err != nil {
				continue
			}

			item, err := txn.Get(q.msgKey(id))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					// Orphaned index entry, clean it up
					if err := txn.Delete(key); err != nil {
						return err
					}
					continue
				}
				return err
			}

			var e entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}

			// Keys sort by priority then enqueue time, not visibility,
			// so delayed entries are skipped rather than breaking out.
			if e.VisibleAt.After(now) {
				continue
			}

			if e.ReceiveCount >= q.opts.MaxReceive {
				if err := q.deadLetter(txn, key, &e, "delivery attempts exhausted"); err != nil {
					return err
				}
				continue
			}

			e.ReceiveCount++
			e.State = StateActive
			e.VisibleAt = now.Add(q.opts.VisibilityTimeout)

			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if err := txn.Set(q.msgKey(id), data); err != nil {
				return err
			}

			claimed = e
			found = true
			break
		}

		if !found {
			return models.ErrNoMessage
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	ack := func() error {
		return q.db.Update(func(txn *badger.Txn) error {
			if err := txn.Delete(q.indexKey(claimed.Priority, claimed.EnqueuedAt, claimed.ID)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Delete(q.msgKey(claimed.ID)); err != nil {
				return err
			}
			return q.bumpCompleted(txn)
		})
	}

	nack := func() error {
		return q.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(q.msgKey(claimed.ID))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return nil // Already removed
				}
				return err
			}

			var e entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}

			if e.ReceiveCount >= q.opts.MaxReceive {
				return q.deadLetter(txn, q.indexKey(e.Priority, e.EnqueuedAt, e.ID), &e, "delivery attempts exhausted")
			}

			// Backoff doubles per attempt: base, 2*base, 4*base, ...
			backoff := q.opts.RetryBackoff << (e.ReceiveCount - 1)
			e.State = StateWaiting
			e.VisibleAt = time.Now().Add(backoff)

			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			return txn.Set(q.msgKey(e.ID), data)
		})
	}

	return toQueueEntry(&claimed), ack, nack, nil
}

// GetJob returns the observable state of one queue message, checking
// live entries first and the dead-letter set second.
func (q *BadgerQueue) GetJob(ctx context.Context, id string) (*interfaces.QueueEntry, error) {
	var result *interfaces.QueueEntry

	err := q.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(q.msgKey(id))
		if err == nil {
			var e entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			result = toQueueEntry(&e)
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		// Not live; scan the dead-letter set
		opts := badger.DefaultIteratorOptions
		prefix := []byte(fmt.Sprintf("queue:%s:failed:", q.opts.QueueName))
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var e entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				continue
			}
			if e.ID == id {
				result = toQueueEntry(&e)
				return nil
			}
		}
		return models.ErrNoMessage
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetActive returns messages currently claimed by a worker
func (q *BadgerQueue) GetActive(ctx context.Context) ([]*interfaces.QueueEntry, error) {
	return q.listLive(func(e *entry) bool {
		return e.State == StateActive && e.VisibleAt.After(time.Now())
	})
}

// GetWaiting returns messages available for (re)delivery
func (q *BadgerQueue) GetWaiting(ctx context.Context) ([]*interfaces.QueueEntry, error) {
	return q.listLive(func(e *entry) bool {
		return e.State == StateWaiting || !e.VisibleAt.After(time.Now())
	})
}

// GetFailed returns the dead-letter set, newest first
func (q *BadgerQueue) GetFailed(ctx context.Context) ([]*interfaces.QueueEntry, error) {
	var entries []*interfaces.QueueEntry

	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		prefix := []byte(fmt.Sprintf("queue:%s:failed:", q.opts.QueueName))
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration seeks to the end of the prefix range
		seekKey := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			var e entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				continue
			}
			entries = append(entries, toQueueEntry(&e))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Remove deletes a waiting message from the queue. Used for
// administrative cancellation; removing an already-claimed or missing
// message is not an error.
func (q *BadgerQueue) Remove(ctx context.Context, id string) error {
	return q.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(q.msgKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		var e entry
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		}); err != nil {
			return err
		}

		if err := txn.Delete(q.indexKey(e.Priority, e.EnqueuedAt, e.ID)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Delete(q.msgKey(id))
	})
}

// Stats summarizes queue depth by state
func (q *BadgerQueue) Stats(ctx context.Context) (*interfaces.QueueStats, error) {
	stats := &interfaces.QueueStats{}

	active, err := q.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	stats.Active = len(active)

	waiting, err := q.GetWaiting(ctx)
	if err != nil {
		return nil, err
	}
	stats.Waiting = len(waiting)

	failed, err := q.GetFailed(ctx)
	if err != nil {
		return nil, err
	}
	stats.Failed = len(failed)

	err = q.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(q.completedKey())
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			n, err := strconv.Atoi(string(val))
			if err != nil {
				return err
			}
			stats.Completed = n
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// bumpCompleted increments the lifetime completed counter. Must run
// inside the caller's transaction.
func (q *BadgerQueue) bumpCompleted(txn *badger.Txn) error {
	count := 0
	item, err := txn.Get(q.completedKey())
	if err == nil {
		err = item.Value(func(val []byte) error {
			count, err = strconv.Atoi(string(val))
			return err
		})
		if err != nil {
			count = 0
		}
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}
	return txn.Set(q.completedKey(), []byte(strconv.Itoa(count+1)))
}

// Close closes the queue (no-op, the DB handle is managed externally)
func (q *BadgerQueue) Close() error {
	return nil
}

// deadLetter moves an exhausted entry to the failed set and trims the
// retained history. Must run inside the caller's transaction.
func (q *BadgerQueue) deadLetter(txn *badger.Txn, indexKey []byte, e *entry, reason string) error {
	now := time.Now()
	e.State = StateFailed
	e.FailedAt = &now
	if e.LastError == "" {
		e.LastError = reason
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	failedKey := []byte(fmt.Sprintf("queue:%s:failed:%020d:%s", q.opts.QueueName, now.UnixNano(), e.ID))
	if err := txn.Set(failedKey, data); err != nil {
		return err
	}

	if err := txn.Delete(indexKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}
	if err := txn.Delete(q.msgKey(e.ID)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}

	q.logger.Warn().Str("queue_job_id", e.ID).Str("episode_id", e.Message.EpisodeID).Int("attempts", e.ReceiveCount).Msg("Message dead-lettered")

	return q.trimFailed(txn)
}

// trimFailed drops the oldest dead-letter entries beyond MaxHistory
func (q *BadgerQueue) trimFailed(txn *badger.Txn) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	prefix := []byte(fmt.Sprintf("queue:%s:failed:", q.opts.QueueName))
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}

	for len(keys) > q.opts.MaxHistory {
		if err := txn.Delete(keys[0]); err != nil {
			return err
		}
		keys = keys[1:]
	}
	return nil
}

func (q *BadgerQueue) listLive(match func(*entry) bool) ([]*interfaces.QueueEntry, error) {
	var entries []*interfaces.QueueEntry

	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := []byte(fmt.Sprintf("queue:%s:index:", q.opts.QueueName))
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id, err := q.parseIndexKey(it.Item().Key())
			if err != nil {
				continue
			}

			item, err := txn.Get(q.msgKey(id))
			if err != nil {
				continue
			}

			var e entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				continue
			}

			if match(&e) {
				entries = append(entries, toQueueEntry(&e))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Helpers

func (q *BadgerQueue) msgKey(id string) []byte {
	return []byte(fmt.Sprintf("queue:%s:msg:%s", q.opts.QueueName, id))
}

func (q *BadgerQueue) completedKey() []byte {
	return []byte(fmt.Sprintf("queue:%s:completed", q.opts.QueueName))
}

// indexKey orders entries by inverted priority, then enqueue time.
// The inversion keeps ascending key iteration aligned with tier order
// while callers supply "higher value wins" priorities.
func (q *BadgerQueue) indexKey(priority int, enqueuedAt time.Time, id string) []byte {
	inv := 1000 - priority
	if inv < 0 {
		inv = 0
	}
	return []byte(fmt.Sprintf("queue:%s:index:%03d:%020d:%s", q.opts.QueueName, inv, enqueuedAt.UnixNano(), id))
}

func (q *BadgerQueue) parseIndexKey(key []byte) (string, error) {
	prefix := fmt.Sprintf("queue:%s:index:", q.opts.QueueName)
	if len(key) <= len(prefix) {
		return "", fmt.Errorf("invalid index key length")
	}

	// Suffix is "{3-digit-priority}:{20-digit-ts}:{id}"
	suffix := string(key[len(prefix):])
	parts := strings.SplitN(suffix, ":", 3)
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid index key format")
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return "", fmt.Errorf("invalid priority segment: %w", err)
	}
	return parts[2], nil
}

func toQueueEntry(e *entry) *interfaces.QueueEntry {
	return &interfaces.QueueEntry{
		ID:       e.ID,
		Priority: e.Priority,
		Attempts: e.ReceiveCount,
		State:    e.State,
		Message:  e.Message,
	}
}
