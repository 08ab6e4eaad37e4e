package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoResolver struct {
	calls int32
}

func (e *echoResolver) Resolve(_ context.Context, raw string) *models.ResolvedAddress {
	atomic.AddInt32(&e.calls, 1)
	return &models.ResolvedAddress{Raw: raw}
}

func TestResolveAll_KeepsOrder(t *testing.T) {
	r := &echoResolver{}
	queries := []string{"a", "b", "c", "d", "e", "f", "g"}

	var mu sync.Mutex
	seen := map[int]string{}
	results, err := ResolveAll(context.Background(), r, queries, 3, func(i int, ra *models.ResolvedAddress) {
		mu.Lock()
		defer mu.Unlock()
		seen[i] = ra.Raw
	})
	require.NoError(t, err)

	require.Len(t, results, len(queries))
	for i, q := range queries {
		assert.Equal(t, q, results[i].Raw)
		assert.Equal(t, q, seen[i])
	}
	assert.Equal(t, int32(len(queries)), atomic.LoadInt32(&r.calls))
}

func TestResolveAll_Cancelled(t *testing.T) {
	r := &echoResolver{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := ResolveAll(ctx, r, []string{"a", "b"}, 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 2)
	assert.Equal(t, int32(0), atomic.LoadInt32(&r.calls))
}

func TestResolveAll_WithCleaner(t *testing.T) {
	completer := newStubCompleter(map[string]map[string]any{
		prompt.NameProvince: {"province": "Hà Nội"},
		prompt.NameDistrict: {"district": "Quận Long Biên"},
		prompt.NameWard:     {"ward": "Bồ Đề"},
	})
	cleaner := newTestCleaner(t, completer, &stubGeocoder{})

	results, err := ResolveAll(context.Background(), cleaner, []string{"Bồ Đề, Long Biên", "phường Bồ Đề"}, 2, nil)
	require.NoError(t, err)

	for _, ra := range results {
		assert.Equal(t, "Phường Bồ Đề", ra.WardName().String())
	}
	assert.Equal(t, 2, completer.count(prompt.NameProvince))
}
