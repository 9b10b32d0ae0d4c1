package fence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "roadwatch/pkg/domain"
)

func TestKeyedMutexSerializesPerSubject(t *testing.T) {
	km := NewKeyedMutex()
	subjectID := id.NewSubjectID()
	ctx := context.Background()

	var mu sync.Mutex
	var active, maxActive int

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := km.Lock(ctx, subjectID)
			require.NoError(t, err)
			defer unlock()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive, "at most one holder per subject at a time")
}

func TestKeyedMutexAllowsDifferentSubjects(t *testing.T) {
	km := NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := km.Lock(ctx, id.NewSubjectID())
	require.NoError(t, err)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB, err := km.Lock(ctx, id.NewSubjectID())
		assert.NoError(t, err)
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for a different subject should not block")
	}
}

func TestMemoryCooldown(t *testing.T) {
	gate := NewMemoryCooldown(10 * time.Minute)
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	gate.now = func() time.Time { return now }

	ctx := context.Background()
	subjectID := id.NewSubjectID()
	regionID := id.NewRegionID()

	charge, err := gate.Begin(ctx, subjectID, regionID)
	require.NoError(t, err)
	assert.True(t, charge, "first call starts the window")

	charge, err = gate.Begin(ctx, subjectID, regionID)
	require.NoError(t, err)
	assert.False(t, charge, "inside the window")

	now = now.Add(9 * time.Minute)
	charge, err = gate.Begin(ctx, subjectID, regionID)
	require.NoError(t, err)
	assert.False(t, charge, "still inside the window")

	now = now.Add(2 * time.Minute)
	charge, err = gate.Begin(ctx, subjectID, regionID)
	require.NoError(t, err)
	assert.True(t, charge, "window elapsed")

	// Other pairs are unaffected.
	charge, err = gate.Begin(ctx, subjectID, id.NewRegionID())
	require.NoError(t, err)
	assert.True(t, charge)
}
