package sequence

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "tramite/pkg/domain"
)

type fakeStore struct {
	mu       sync.Mutex
	counters map[[2]int64]int
	maxSeq   map[id.ProcedureID]int
	codes    map[string]bool
	err      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		counters: map[[2]int64]int{},
		maxSeq:   map[id.ProcedureID]int{},
		codes:    map[string]bool{},
	}
}

func (f *fakeStore) IncrementProcedureCounter(_ context.Context, agencyID id.AgencyID, year int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	key := [2]int64{int64(agencyID), int64(year)}
	f.counters[key]++
	return f.counters[key], nil
}

func (f *fakeStore) MaxNormalSequence(_ context.Context, procedureID id.ProcedureID) (int, error) {
	return f.maxSeq[procedureID], f.err
}

func (f *fakeStore) TrackingCodeExists(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[code], f.err
}

func TestFormatProcedureCode(t *testing.T) {
	assert.Equal(t, "000001-2025", FormatProcedureCode(1, 2025))
	assert.Equal(t, "123456-2026", FormatProcedureCode(123456, 2026))
	assert.Equal(t, "1234567-2026", FormatProcedureCode(1234567, 2026))
}

func TestNextProcedureCode(t *testing.T) {
	store := newFakeStore()
	a := New(store)
	ctx := context.Background()

	t.Run("counters are scoped per agency and year", func(t *testing.T) {
		c1, err := a.NextProcedureCode(ctx, 1, 2025)
		require.NoError(t, err)
		c2, err := a.NextProcedureCode(ctx, 1, 2025)
		require.NoError(t, err)
		c3, err := a.NextProcedureCode(ctx, 2, 2025)
		require.NoError(t, err)
		c4, err := a.NextProcedureCode(ctx, 1, 2026)
		require.NoError(t, err)

		assert.Equal(t, "000001-2025", c1)
		assert.Equal(t, "000002-2025", c2)
		assert.Equal(t, "000001-2025", c3)
		assert.Equal(t, "000001-2026", c4)
	})

	t.Run("store error surfaces", func(t *testing.T) {
		failing := newFakeStore()
		failing.err = errors.New("db down")
		_, err := New(failing).NextProcedureCode(ctx, 1, 2025)
		require.Error(t, err)
	})
}

func TestNextFlowSequence(t *testing.T) {
	store := newFakeStore()
	store.maxSeq[7] = 4
	a := New(store)

	next, err := a.NextFlowSequence(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 5, next)

	first, err := a.NextFlowSequence(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, 1, first)
}

func TestGenerateTrackingCode(t *testing.T) {
	t.Run("uses only the unambiguous alphabet", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			code, err := GenerateTrackingCode(rand.Reader)
			require.NoError(t, err)
			require.Len(t, code, TrackingCodeLength)
			for _, r := range code {
				assert.True(t, strings.ContainsRune(TrackingAlphabet, r), "unexpected rune %q", r)
			}
			assert.NotContains(t, code, "0")
			assert.NotContains(t, code, "O")
			assert.NotContains(t, code, "1")
			assert.NotContains(t, code, "I")
		}
	})

	t.Run("deterministic for a fixed source", func(t *testing.T) {
		code, err := GenerateTrackingCode(bytes.NewReader([]byte{0, 1, 2, 31, 32, 33}))
		require.NoError(t, err)
		assert.Equal(t, "ABC9AB", code)
	})

	t.Run("short source fails", func(t *testing.T) {
		_, err := GenerateTrackingCode(bytes.NewReader([]byte{1, 2}))
		require.Error(t, err)
	})
}

func TestNextTrackingCode(t *testing.T) {
	t.Run("retries past codes already taken", func(t *testing.T) {
		store := newFakeStore()
		store.codes["AAAAAA"] = true
		// First draw yields AAAAAA (taken), second yields BBBBBB.
		src := bytes.NewReader([]byte{0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1})
		code, err := New(store, WithRandom(src)).NextTrackingCode(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "BBBBBB", code)
	})

	t.Run("cancelled context stops the loop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(newFakeStore()).NextTrackingCode(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("concurrent generation yields distinct codes when reserved", func(t *testing.T) {
		store := newFakeStore()
		a := New(store)
		const n = 200
		var wg sync.WaitGroup
		codes := make(chan string, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					code, err := a.NextTrackingCode(context.Background())
					if err != nil {
						t.Error(err)
						return
					}
					// Reserve atomically, as the unique index does in Postgres.
					store.mu.Lock()
					taken := store.codes[code]
					if !taken {
						store.codes[code] = true
					}
					store.mu.Unlock()
					if !taken {
						codes <- code
						return
					}
				}
			}()
		}
		wg.Wait()
		close(codes)

		seen := map[string]bool{}
		for c := range codes {
			assert.False(t, seen[c], "duplicate code %s", c)
			seen[c] = true
		}
		assert.Len(t, seen, n)
	})
}
