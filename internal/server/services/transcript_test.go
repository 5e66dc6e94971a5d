package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscript_AppendAndRecent(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "alice")
	ctx := context.Background()

	for i, c := range []string{"one", "two", "three"} {
		f.clock.Set(day(2025, 3, 10).Add(time.Duration(i) * time.Minute))
		m, err := f.transcripts.Append(ctx, u.ConversationID, i%2 == 0, c)
		require.NoError(t, err)
		assert.NotEmpty(t, m.ID)
	}

	got, err := f.transcripts.Recent(ctx, u.ConversationID, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Content)
	assert.False(t, got[0].IsUser)
	assert.Equal(t, "three", got[1].Content)
	assert.True(t, got[1].IsUser)
}

func TestTranscript_StampNeverGoesBack(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "alice")
	ctx := context.Background()

	f.clock.Set(day(2025, 3, 10).Add(time.Hour))
	first, err := f.transcripts.Append(ctx, u.ConversationID, true, "first")
	require.NoError(t, err)

	f.clock.Set(day(2025, 3, 10))
	second, err := f.transcripts.Append(ctx, u.ConversationID, false, "second")
	require.NoError(t, err)

	assert.False(t, second.CreatedAt.Before(first.CreatedAt))
}

func TestTranscript_UnknownConversation(t *testing.T) {
	f := newFixture(t)

	_, err := f.transcripts.Append(context.Background(), "nobody", true, "hi")
	assert.Error(t, err)
}
