package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/notargets/meshconv/converter"
	"github.com/notargets/meshconv/logging"
	"github.com/notargets/meshconv/tokens"
)

// Converter is the part of converter.Converter a session needs
type Converter interface {
	Convert(ctx context.Context, name string, data []byte, s converter.Strategy) (*converter.Result, error)
}

// Session drives one upload from receipt to a terminal state
type Session struct {
	ID string

	mu        sync.Mutex
	state     State
	name      string
	kind      Kind
	data      []byte
	tokens    []string
	message   string
	result    *converter.Result
	lastError error

	conv   Converter
	logger *zap.Logger
}

func New(conv Converter, logger *zap.Logger) *Session {
	return &Session{
		ID:     uuid.NewString(),
		conv:   conv,
		logger: logging.OrNop(logger),
	}
}

// Snapshot is a consistent copy of the session for reporting
type Snapshot struct {
	ID          string
	Name        string
	Kind        Kind
	State       State
	Tokens      []string
	Convertible bool
	Message     string
	Result      *converter.Result
	Err         error
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:          s.ID,
		Name:        s.name,
		Kind:        s.kind,
		State:       s.state,
		Tokens:      s.tokens,
		Convertible: s.state == FileReceived && s.kind.Convertible(),
		Message:     s.message,
		Result:      s.result,
		Err:         s.lastError,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) transition(to State) error {
	if !CanTransition(s.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
	}
	s.logger.Debug("session transition", zap.String("session", s.ID),
		zap.Stringer("from", s.state), zap.Stringer("to", to))
	s.state = to
	return nil
}

// Receive accepts an uploaded file. Text inputs are scanned for tokens and
// end in TextExtracted; .msh uploads end in AlreadyTargetFormat; mesh inputs
// stay in FileReceived until conversion is requested. NASTRAN decks are
// scanned for tokens too.
func (s *Session) Receive(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kind := KindOf(name)
	if kind == KindUnknown {
		return fmt.Errorf("unsupported file type %q", filepath.Ext(name))
	}
	if err := s.transition(FileReceived); err != nil {
		return err
	}
	s.name, s.kind, s.data = filepath.Base(name), kind, data
	s.tokens, s.message, s.result, s.lastError = nil, "", nil, nil

	if kind.Extractable() {
		toks, err := tokens.ExtractBytes(data)
		if err != nil {
			s.lastError = err
			// undecodable text cannot continue; mesh decks still convert
			if kind == KindText {
				s.data = nil
				s.message = err.Error()
				return errors.Join(err, s.transition(Idle))
			}
			s.logger.Info("skipping token extraction", zap.String("file", s.name), zap.Error(err))
		}
		s.tokens = toks
	}

	switch kind {
	case KindText:
		s.message = fmt.Sprintf("extracted %d tokens", len(s.tokens))
		return s.transition(TextExtracted)
	case KindTarget:
		s.message = "file is already in MSH format, no conversion needed"
		return s.transition(AlreadyTargetFormat)
	}
	s.message = "ready to convert"
	return nil
}

// Convert runs the conversion of a received mesh. An empty strategy name
// picks the default for the upload's kind.
func (s *Session) Convert(ctx context.Context, strategy string) (*converter.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.kind.Convertible() || s.state != FileReceived {
		return nil, fmt.Errorf("%w: cannot convert %s upload in state %s",
			ErrInvalidTransition, s.kind, s.state)
	}
	st, explicit, err := converter.ParseStrategy(strategy)
	if err != nil {
		return nil, err
	}
	if !explicit {
		if st, err = converter.StrategyFor(s.name); err != nil {
			return nil, err
		}
	}

	if err := s.transition(ConversionRequested); err != nil {
		return nil, err
	}
	if err := s.transition(Converting); err != nil {
		return nil, err
	}

	res, err := s.conv.Convert(ctx, s.name, s.data, st)
	s.data = nil
	if err != nil {
		s.lastError = err
		s.message = "conversion failed: " + err.Error()
		s.logger.Warn("conversion failed", zap.String("session", s.ID),
			zap.String("file", s.name), zap.Error(err))
		return nil, errors.Join(err, s.transition(ConversionFailed))
	}
	s.result = res
	s.message = "converted to " + res.Name
	return res, s.transition(ConversionSucceeded)
}

// Reset returns the session to Idle from FileReceived or a terminal state
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Idle {
		return nil
	}
	if err := s.transition(Idle); err != nil {
		return err
	}
	s.name, s.kind, s.data, s.tokens = "", KindUnknown, nil, nil
	s.message, s.result, s.lastError = "", nil, nil
	return nil
}
