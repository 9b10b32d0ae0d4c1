//go:build integration

package fence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "roadwatch/pkg/domain"
	"roadwatch/pkg/testutil/containers"
)

func TestRedisLockerSerializes(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	defer func() { _ = rc.Container.Terminate(context.Background()) }()

	locker := NewRedisLocker(rc.Client, 10*time.Second)
	subjectID := id.NewSubjectID()
	ctx := context.Background()

	var mu sync.Mutex
	var active, maxActive int

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, subjectID)
			require.NoError(t, err)
			defer unlock()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
}

func TestRedisLockerReleasesOnUnlock(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	defer func() { _ = rc.Container.Terminate(context.Background()) }()

	locker := NewRedisLocker(rc.Client, 10*time.Second)
	subjectID := id.NewSubjectID()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, subjectID)
	require.NoError(t, err)
	unlock()

	// Re-acquiring immediately must succeed once released.
	ctx2, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlock2, err := locker.Lock(ctx2, subjectID)
	require.NoError(t, err)
	unlock2()
}

func TestRedisCooldownWindow(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	defer func() { _ = rc.Container.Terminate(context.Background()) }()

	gate := NewRedisCooldown(rc.Client, time.Second)
	ctx := context.Background()
	subjectID := id.NewSubjectID()
	regionID := id.NewRegionID()

	charge, err := gate.Begin(ctx, subjectID, regionID)
	require.NoError(t, err)
	assert.True(t, charge)

	charge, err = gate.Begin(ctx, subjectID, regionID)
	require.NoError(t, err)
	assert.False(t, charge, "inside the window")

	time.Sleep(1100 * time.Millisecond)

	charge, err = gate.Begin(ctx, subjectID, regionID)
	require.NoError(t, err)
	assert.True(t, charge, "window expired")
}
