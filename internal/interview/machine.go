package interview

import (
	"fmt"

	"peerprep/interview/internal/models"
)

type Command string

const (
	CommandJoin          Command = models.CmdJoinInterview
	CommandAudioStream   Command = models.CmdAudioStream
	CommandAudioComplete Command = models.CmdAudioComplete
	CommandSubmitAnswer  Command = models.CmdSubmitAnswer
	CommandPause         Command = models.CmdPauseInterview
	CommandResume        Command = models.CmdResumeInterview
	CommandLeave         Command = models.CmdLeaveInterview
	CommandComplete      Command = "complete"
	CommandAbandon       Command = "abandon"
)

var anyStatus = []models.SessionStatus{
	models.StatusInProgress, models.StatusPaused, models.StatusCompleted, models.StatusAbandoned,
}

type transition struct {
	from []models.SessionStatus
	// to is empty when the command leaves the status unchanged
	to models.SessionStatus
}

var transitions = map[Command]transition{
	CommandJoin:          {from: []models.SessionStatus{models.StatusInProgress, models.StatusPaused, models.StatusCompleted}},
	CommandAudioStream:   {from: []models.SessionStatus{models.StatusInProgress}},
	CommandAudioComplete: {from: []models.SessionStatus{models.StatusInProgress}},
	CommandSubmitAnswer:  {from: []models.SessionStatus{models.StatusInProgress}},
	CommandPause:         {from: []models.SessionStatus{models.StatusInProgress}, to: models.StatusPaused},
	CommandResume:        {from: []models.SessionStatus{models.StatusPaused}, to: models.StatusInProgress},
	CommandLeave:         {from: anyStatus},
	CommandComplete:      {from: []models.SessionStatus{models.StatusInProgress}, to: models.StatusCompleted},
	CommandAbandon:       {from: []models.SessionStatus{models.StatusInProgress, models.StatusPaused}, to: models.StatusAbandoned},
}

// Check rejects cmd with ErrInvalidState unless status is one of its source statuses.
func Check(cmd Command, status models.SessionStatus) error {
	_, err := Next(cmd, status)
	return err
}

// Next returns the status after cmd is applied in status.
func Next(cmd Command, status models.SessionStatus) (models.SessionStatus, error) {
	t, ok := transitions[cmd]
	if !ok {
		return status, fmt.Errorf("%w: unknown command %q", ErrInvalidState, cmd)
	}
	for _, from := range t.from {
		if from == status {
			if t.to == "" {
				return status, nil
			}
			return t.to, nil
		}
	}
	return status, fmt.Errorf("%w: %s is not allowed while %s", ErrInvalidState, cmd, status)
}
