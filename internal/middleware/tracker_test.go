package middleware

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerCloseWaitsForRunning(t *testing.T) {
	t.Parallel()

	var tr Tracker
	release := make(chan struct{})
	var finished atomic.Bool
	assert.True(t, tr.Go(func() {
		<-release
		finished.Store(true)
	}))

	closed := make(chan struct{})
	go func() {
		tr.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a handler was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-closed
	assert.True(t, finished.Load())
}

func TestTrackerRejectsAfterClose(t *testing.T) {
	t.Parallel()

	var tr Tracker
	tr.Close()

	var ran atomic.Bool
	assert.False(t, tr.Go(func() { ran.Store(true) }))
	time.Sleep(5 * time.Millisecond)
	assert.False(t, ran.Load())
}

func TestTrackerGoRacingClose(t *testing.T) {
	t.Parallel()

	var tr Tracker
	var started, done atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.Go(func() {
				time.Sleep(time.Millisecond)
				done.Add(1)
			}) {
				started.Add(1)
			}
		}()
	}
	tr.Close()
	wg.Wait()

	// Everything accepted before Close finished is waited for; anything later
	// was rejected.
	tr.Close()
	assert.Equal(t, started.Load(), done.Load())
}
