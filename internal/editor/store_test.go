package editor

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vedicseva/console/pkg/errors"
)

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(time.Hour)

	sess := store.Create("66f0a1")
	assert.Equal(t, "66f0a1", sess.EditID)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
}

func TestStore_GetUnknown(t *testing.T) {
	store := NewStore(time.Hour)

	_, err := store.Get(uuid.New())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestStore_EvictsIdleSessions(t *testing.T) {
	store := &Store{
		sessions: make(map[uuid.UUID]*entry),
		ttl:      time.Minute,
	}
	now := time.Now()
	store.nowFunc = func() time.Time { return now }

	kept := store.Create("")
	stale := store.Create("")
	require.Equal(t, 2, store.Len())

	// Age only the stale session past the TTL.
	store.nowFunc = func() time.Time { return now.Add(2 * time.Minute) }
	_, err := store.Get(kept.ID) // refreshes lastSeen
	require.NoError(t, err)

	store.nowFunc = func() time.Time { return now.Add(3 * time.Minute) }
	store.evict()

	assert.Equal(t, 1, store.Len())
	_, err = store.Get(stale.ID)
	assert.Error(t, err)
}
