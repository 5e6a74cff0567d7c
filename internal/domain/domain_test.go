package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTurnLine(t *testing.T) {
	turn := Turn{Speaker: SpeakerUser, Text: "Monday at 2pm", At: time.Now()}
	assert.Equal(t, "User: Monday at 2pm", turn.Line())

	turn = Turn{Speaker: SpeakerAgent, Text: "See you then!"}
	assert.Equal(t, "Agent: See you then!", turn.Line())
}

func TestTranscriptString(t *testing.T) {
	tr := Transcript{
		{Speaker: SpeakerUser, Text: "Monday at 2pm"},
		{Speaker: SpeakerAgent, Text: "See you then!"},
	}
	assert.Equal(t, "User: Monday at 2pm\nAgent: See you then!", tr.String())
}

func TestTranscriptEmpty(t *testing.T) {
	var tr Transcript
	assert.True(t, tr.Empty())
	assert.Equal(t, "", tr.String())

	tr = append(tr, Turn{Speaker: SpeakerUser, Text: "hi"})
	assert.False(t, tr.Empty())
}
