package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geeklurk/lurkgate/storage"
)

func TestCommentsNewestFirstAndLimited(t *testing.T) {
	s := NewStore()
	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.AddComment(storage.Comment{
			ID:     string(rune('a' + i)),
			PostID: "post-1",
			Text:   "hello",
			Date:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := s.CommentsByPost("post-1", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Date.After(got[1].Date))
	assert.True(t, got[1].Date.After(got[2].Date))
}

func TestCommentsMissingPost(t *testing.T) {
	s := NewStore()
	got, err := s.CommentsByPost("nothing-here", 100)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReactionCounters(t *testing.T) {
	s := NewStore()
	n, err := s.AddReaction("post-1", "fire")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.AddReaction("post-1", "fire")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	counts, err := s.Reactions("post-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"fire": 2}, counts)

	counts, err = s.Reactions("post-2")
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestSessionRoundTrip(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.PutSession("tok-1", []byte(`{"identity":"admin"}`)))

	data, err := s.GetSession("tok-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"identity":"admin"}`, string(data))

	tokens, err := s.SessionTokens()
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-1"}, tokens)

	require.NoError(t, s.DeleteSession("tok-1"))
	_, err = s.GetSession("tok-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting again is not an error.
	require.NoError(t, s.DeleteSession("tok-1"))
}
