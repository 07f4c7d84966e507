package session

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid state transition")

// State of one upload session
type State int

const (
	Idle State = iota
	FileReceived
	TextExtracted
	AlreadyTargetFormat
	ConversionRequested
	Converting
	ConversionSucceeded
	ConversionFailed
)

var stateNames = [...]string{
	"Idle",
	"FileReceived",
	"TextExtracted",
	"AlreadyTargetFormat",
	"ConversionRequested",
	"Converting",
	"ConversionSucceeded",
	"ConversionFailed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Terminal states end a session; a new upload may start from them
func (s State) Terminal() bool {
	switch s {
	case TextExtracted, AlreadyTargetFormat, ConversionSucceeded, ConversionFailed:
		return true
	}
	return false
}

var transitions = map[State][]State{
	Idle:                {FileReceived},
	FileReceived:        {TextExtracted, AlreadyTargetFormat, ConversionRequested, Idle},
	TextExtracted:       {Idle, FileReceived},
	AlreadyTargetFormat: {Idle, FileReceived},
	ConversionRequested: {Converting},
	Converting:          {ConversionSucceeded, ConversionFailed},
	ConversionSucceeded: {Idle, FileReceived},
	ConversionFailed:    {Idle, FileReceived},
}

// CanTransition reports whether from → to is a legal move
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
