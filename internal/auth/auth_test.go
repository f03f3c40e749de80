package auth

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/tracky/internal/calendar"
	"github.com/hpungsan/tracky/internal/errors"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	require.NotEqual(t, "hunter22", hash)

	require.True(t, CheckPassword(hash, "hunter22"))
	require.False(t, CheckPassword(hash, "hunter23"))
	require.False(t, CheckPassword("not-a-hash", "hunter22"))
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 100))
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
}

func TestSessions_CreateLookupDelete(t *testing.T) {
	s := NewSessions(time.Hour)

	sess := s.Create("U1", "alice")
	require.NotEmpty(t, sess.Token)
	require.NotNil(t, sess.Expansion)
	require.Zero(t, sess.Expansion.Len())

	got, ok := s.Lookup(sess.Token)
	require.True(t, ok)
	require.Same(t, sess, got)

	s.Delete(sess.Token)
	_, ok = s.Lookup(sess.Token)
	require.False(t, ok)

	_, ok = s.Lookup("")
	require.False(t, ok)
}

func TestSessions_FreshExpansionPerLogin(t *testing.T) {
	s := NewSessions(time.Hour)
	day := calendar.Date(2024, time.February, 10).Key()

	first := s.Create("U1", "alice")
	first.Expansion.SetExpanded(day, true)
	s.Delete(first.Token)

	second := s.Create("U1", "alice")
	require.NotEqual(t, first.Token, second.Token)
	require.False(t, second.Expansion.IsExpanded(day))
}

func TestSessions_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSessions(2 * time.Hour)
	s.Now = func() time.Time { return now }

	a := s.Create("U1", "alice")
	now = now.Add(time.Hour)
	b := s.Create("U2", "bob")

	now = now.Add(90 * time.Minute)
	_, ok := s.Lookup(a.Token)
	require.False(t, ok, "session past its ttl must be gone")
	_, ok = s.Lookup(b.Token)
	require.True(t, ok)

	now = now.Add(time.Hour)
	require.Equal(t, 1, s.Prune())
	require.Zero(t, s.Len())
}

func TestSessions_Concurrent(t *testing.T) {
	s := NewSessions(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := s.Create("U", "u")
			if _, ok := s.Lookup(sess.Token); !ok {
				t.Error("lookup of fresh session failed")
			}
			s.Delete(sess.Token)
		}()
	}
	wg.Wait()
	require.Zero(t, s.Len())
}
