package session

import (
	"sync"
	"testing"
	"time"

	"github.com/richdownie/healthme/internal"
	"github.com/stretchr/testify/assert"
)

func TestDismissIsIdempotentAndSessionScoped(t *testing.T) {
	s := NewStore(time.Hour, 0, internal.NewNopLogger())
	defer s.Close()

	s.Dismiss("s1", "a1")
	s.Dismiss("s1", "a1")
	s.Dismiss("s1", "a2")

	assert.Equal(t, []string{"a1", "a2"}, s.Dismissed("s1").IDs())
	assert.Equal(t, 0, s.Dismissed("s2").Len())

	s.Clear("s1")
	assert.Equal(t, 0, s.Dismissed("s1").Len())
}

func TestDismissedReturnsCopy(t *testing.T) {
	s := NewStore(time.Hour, 0, internal.NewNopLogger())
	defer s.Close()

	set := s.Dismissed("s1")
	set.Add("x")
	assert.False(t, s.Dismissed("s1").Has("x"))
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	s := NewStore(time.Hour, 0, internal.NewNopLogger())
	defer s.Close()
	clock := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	s.Dismiss("old", "a1")
	clock = clock.Add(50 * time.Minute)
	s.Dismiss("fresh", "a2")
	clock = clock.Add(20 * time.Minute)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Dismissed("fresh").Has("a2"))
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore(time.Hour, time.Millisecond, internal.NewNopLogger())
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Dismiss("shared", "a")
				_ = s.Dismissed("shared")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, s.Dismissed("shared").Len())
	assert.NotEmpty(t, NewID())
}
