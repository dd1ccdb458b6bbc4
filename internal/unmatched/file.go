package unmatched

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/errmatch/internal/matcher"
)

// fileMessage tags each line FileSink writes.
const fileMessage = "UNMATCHED_ERROR"

// FileSink appends one JSON line per entry to a log file.
type FileSink struct {
	mu     sync.Mutex
	f      *os.File
	logger zerolog.Logger
}

// OpenFileSink opens (or creates) path for appending.
func OpenFileSink(path string) (*FileSink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening unmatched log %s: %w", path, err)
	}
	return &FileSink{
		f:      f,
		logger: zerolog.New(f).With().Timestamp().Logger(),
	}, nil
}

func (s *FileSink) Write(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return os.ErrClosed
	}
	s.logger.Info().
		Str("id", e.ID).
		Time("occurred_at", e.Timestamp).
		Str("error_message", e.ErrorMessage).
		Str("session_id", e.SessionID).
		Str("user_context", e.UserContext).
		Str("category", string(e.Category)).
		Msg(fileMessage)
	return nil
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// fileLine is the JSON shape FileSink writes.
type fileLine struct {
	ID           string    `json:"id"`
	OccurredAt   time.Time `json:"occurred_at"`
	ErrorMessage string    `json:"error_message"`
	SessionID    string    `json:"session_id"`
	UserContext  string    `json:"user_context"`
	Category     string    `json:"category"`
	Message      string    `json:"message"`
}

// ReadFile returns the entries recorded in a FileSink log, oldest first.
// Lines that are not unmatched-error records are skipped.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening unmatched log %s: %w", path, err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for n := 1; sc.Scan(); n++ {
		var line fileLine
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, n, err)
		}
		if line.Message != fileMessage {
			continue
		}
		entries = append(entries, Entry{
			ID:           line.ID,
			Timestamp:    line.OccurredAt.UTC(),
			ErrorMessage: line.ErrorMessage,
			SessionID:    line.SessionID,
			UserContext:  line.UserContext,
			Category:     matcher.Category(line.Category),
		})
	}
	return entries, sc.Err()
}
