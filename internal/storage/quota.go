package storage

import "sync"

// Quota wraps a KV and rejects writes once total stored bytes (keys plus
// values) would exceed limit. It models the quota behavior of constrained
// local storage so that storage-pressure handling can be exercised.
type Quota struct {
	mu    sync.Mutex
	kv    KV
	limit int64
	sizes map[string]int64
}

// NewQuota wraps kv with a byte limit. The current contents of kv are
// counted against the limit. limit <= 0 means unlimited.
func NewQuota(kv KV, limit int64) (*Quota, error) {
	q := &Quota{kv: kv, limit: limit, sizes: make(map[string]int64)}
	keys, err := kv.Keys("")
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		v, ok, err := kv.Get(k)
		if err != nil {
			return nil, err
		}
		if ok {
			q.sizes[k] = int64(len(k) + len(v))
		}
	}
	return q, nil
}

func (q *Quota) used() int64 {
	var total int64
	for _, s := range q.sizes {
		total += s
	}
	return total
}

func (q *Quota) Get(key string) (string, bool, error) {
	return q.kv.Get(key)
}

func (q *Quota) Set(key, value string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	size := int64(len(key) + len(value))
	if q.limit > 0 && q.used()-q.sizes[key]+size > q.limit {
		return ErrQuotaExceeded
	}
	if err := q.kv.Set(key, value); err != nil {
		return err
	}
	q.sizes[key] = size
	return nil
}

func (q *Quota) Delete(key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.kv.Delete(key); err != nil {
		return err
	}
	delete(q.sizes, key)
	return nil
}

func (q *Quota) Keys(prefix string) ([]string, error) {
	return q.kv.Keys(prefix)
}

func (q *Quota) Close() error {
	return q.kv.Close()
}
