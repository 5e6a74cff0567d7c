package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donnabot/donna/internal/domain"
	"github.com/donnabot/donna/internal/logging"
)

func TestRegistryLifecycle(t *testing.T) {
	notifier := &recordingNotifier{}
	reg := NewRegistry(notifier, logging.Silent())

	id := reg.Create()
	require.NotEmpty(t, id)
	assert.Equal(t, 1, reg.Len())

	require.NoError(t, reg.SetStreamSID(id, "MZ1"))
	require.NoError(t, reg.RecordTurn(id, domain.SpeakerUser, "Monday at 2pm"))
	require.NoError(t, reg.RecordTurn(id, domain.SpeakerAgent, "See you then!"))

	summary, err := reg.End(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Turns)
	assert.Equal(t, 0, reg.Len())

	require.Len(t, notifier.sent(), 1)
	assert.Equal(t, "User: Monday at 2pm\nAgent: See you then!", notifier.sent()[0])

	// Ending twice flushes nothing new.
	_, err = reg.End(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, notifier.sent(), 1)
}

func TestRegistryEmptyTranscriptSkipsNotifier(t *testing.T) {
	notifier := &recordingNotifier{}
	reg := NewRegistry(notifier, logging.Silent())

	id := reg.Create()
	_, err := reg.End(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, notifier.sent())
}

func TestRegistryConcurrentCalls(t *testing.T) {
	reg := NewRegistry(nil, logging.Silent())

	a := reg.Create()
	b := reg.Create()
	require.NotEqual(t, a, b)
	assert.Equal(t, 2, reg.Len())

	require.NoError(t, reg.RecordTurn(a, domain.SpeakerUser, "call one"))
	require.NoError(t, reg.RecordTurn(b, domain.SpeakerUser, "call two"))

	_, err := reg.End(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	assert.ErrorIs(t, reg.RecordTurn(a, domain.SpeakerUser, "late"), ErrNotFound)
	assert.NoError(t, reg.RecordTurn(b, domain.SpeakerAgent, "still live"))
}
