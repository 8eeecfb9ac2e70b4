package record

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carnet/internal/logging"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// memKV is an in-memory KV with switchable failures.
type memKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	setErr  error
	sets    int
	slowSet time.Duration
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	delay := m.slowSet
	m.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.sets++
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = map[string][]byte{}
	return nil
}

func newRepo(kv KV, key string) *Repository[item] {
	return New[item](kv, key, logging.Discard())
}

func TestLoad_MissingKeyIsEmpty(t *testing.T) {
	repo := newRepo(newMemKV(), t.Name())
	items := repo.Load(context.Background())
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestLoad_MalformedValueIsEmpty(t *testing.T) {
	kv := newMemKV()
	kv.data[t.Name()] = []byte(`{not json`)
	repo := newRepo(kv, t.Name())
	assert.Empty(t, repo.Load(context.Background()))
}

func TestLoad_NullValueIsEmpty(t *testing.T) {
	kv := newMemKV()
	kv.data[t.Name()] = []byte(`null`)
	repo := newRepo(kv, t.Name())
	items := repo.Load(context.Background())
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestLoad_ReadErrorIsEmpty(t *testing.T) {
	kv := newMemKV()
	kv.getErr = errors.New("disk gone")
	repo := newRepo(kv, t.Name())
	assert.Empty(t, repo.Load(context.Background()))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	kv := newMemKV()
	repo := newRepo(kv, t.Name())
	ctx := context.Background()

	want := []item{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}
	require.NoError(t, repo.Save(ctx, want))
	assert.Equal(t, want, repo.Load(ctx))
}

func TestSave_NilWritesEmptyArray(t *testing.T) {
	kv := newMemKV()
	repo := newRepo(kv, t.Name())
	require.NoError(t, repo.Save(context.Background(), nil))
	assert.Equal(t, `[]`, string(kv.data[t.Name()]))
}

func TestSave_WriteFailureWrapsErrPersist(t *testing.T) {
	kv := newMemKV()
	kv.setErr = errors.New("quota exceeded")
	repo := newRepo(kv, t.Name())

	err := repo.Save(context.Background(), []item{{ID: "1"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersist)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestUpdate_Unchanged(t *testing.T) {
	kv := newMemKV()
	repo := newRepo(kv, t.Name())
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, []item{{ID: "1"}}))
	before := kv.sets

	got, err := repo.Update(ctx, func(items []item) ([]item, error) {
		return nil, ErrUnchanged
	})
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: "1"}}, got)
	assert.Equal(t, before, kv.sets)
}

func TestUpdate_MutatorErrorSkipsWrite(t *testing.T) {
	kv := newMemKV()
	repo := newRepo(kv, t.Name())
	boom := errors.New("boom")

	_, err := repo.Update(context.Background(), func(items []item) ([]item, error) {
		return append(items, item{ID: "x"}), boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, kv.sets)
}

func TestUpdate_OverlappingWritesAreSerialized(t *testing.T) {
	kv := newMemKV()
	kv.slowSet = time.Millisecond
	key := t.Name()
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Separate repository values on the same key share one lock.
			repo := newRepo(kv, key)
			_, err := repo.Update(ctx, func(items []item) ([]item, error) {
				return append(items, item{ID: fmt.Sprint(i)}), nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, newRepo(kv, key).Load(ctx), writers)
}

func TestNewID_BumpsOnCollision(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	taken := IDSet([]item{{ID: "1700000000000"}, {ID: "1700000000001"}}, func(i item) string { return i.ID })

	assert.Equal(t, "1700000000002", NewID(now, taken))
	assert.Equal(t, "1700000000000", NewID(now, nil))
}
