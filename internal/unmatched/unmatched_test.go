package unmatched

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/errmatch/internal/db"
	"github.com/ziadkadry99/errmatch/internal/matcher"
)

var _ matcher.UnmatchedLog = (*Log)(nil)

func testStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func messages(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ErrorMessage)
	}
	return out
}

func TestLogRecordFillsFields(t *testing.T) {
	l := NewLog(10, zerolog.Nop())
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	l.Record(context.Background(), "s1", "Disk read error")
	got := l.Recent(0)
	if len(got) != 1 {
		t.Fatalf("entries = %d, want 1", len(got))
	}
	e := got[0]
	if e.ID == "" {
		t.Error("missing id")
	}
	if !e.Timestamp.Equal(fixed) || e.SessionID != "s1" || e.Category != matcher.CategoryStorage {
		t.Errorf("entry = %+v", e)
	}
}

func TestLogRecordUserContext(t *testing.T) {
	l := NewLog(10, zerolog.Nop())
	ctx := WithUserContext(context.Background(), "Dell OptiPlex after BIOS update")
	l.Record(ctx, "s1", "Fan spins but no display")
	l.Record(context.Background(), "s1", "No POST")

	got := l.Recent(0)
	if got[0].UserContext != "Dell OptiPlex after BIOS update" {
		t.Errorf("user context = %q", got[0].UserContext)
	}
	if got[1].UserContext != "" {
		t.Errorf("unexpected user context %q", got[1].UserContext)
	}
}

func TestLogRingEvictsOldest(t *testing.T) {
	l := NewLog(3, zerolog.Nop())
	for i := 1; i <= 5; i++ {
		l.Record(context.Background(), "s", fmt.Sprintf("q%d", i))
	}
	if l.Len() != 3 {
		t.Errorf("len = %d, want 3", l.Len())
	}
	if diff := cmp.Diff([]string{"q3", "q4", "q5"}, messages(l.Recent(0))); diff != "" {
		t.Errorf("recent mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"q4", "q5"}, messages(l.Recent(2))); diff != "" {
		t.Errorf("recent(2) mismatch (-want +got):\n%s", diff)
	}
}

func TestLogDefaultCapacity(t *testing.T) {
	l := NewLog(0, zerolog.Nop())
	for i := 0; i < DefaultCapacity+10; i++ {
		l.Record(context.Background(), "s", "q")
	}
	if l.Len() != DefaultCapacity {
		t.Errorf("len = %d, want %d", l.Len(), DefaultCapacity)
	}
}

func TestLogConcurrent(t *testing.T) {
	l := NewLog(50, zerolog.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Record(context.Background(), "s", fmt.Sprintf("q%d", i))
			l.Recent(5)
		}(i)
	}
	wg.Wait()
	if l.Len() != 50 {
		t.Errorf("len = %d, want 50", l.Len())
	}
}

type failingSink struct{ calls int }

func (f *failingSink) Write(context.Context, Entry) error {
	f.calls++
	return errors.New("disk full")
}

func TestLogSinkFailureIgnored(t *testing.T) {
	sink := &failingSink{}
	l := NewLog(5, zerolog.Nop(), sink)
	l.Record(context.Background(), "s", "Memory test failed")
	l.Close()
	if sink.calls != 1 {
		t.Errorf("sink calls = %d, want 1", sink.calls)
	}
	if l.Len() != 1 {
		t.Errorf("entry lost after sink failure")
	}
}

func TestStoreWriteAndList(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	l := NewLog(2, zerolog.Nop(), store)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, q := range []string{"first", "second", "third"} {
		l.Append(ctx, Entry{
			Timestamp:    base.Add(time.Duration(i) * 1500 * time.Millisecond),
			ErrorMessage: q,
			SessionID:    fmt.Sprintf("s%d", i%2),
			UserContext:  "after update",
		})
	}
	l.Close()

	all, err := store.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"first", "second", "third"}, messages(all)); diff != "" {
		t.Errorf("stored entries mismatch (-want +got):\n%s", diff)
	}
	if !all[1].Timestamp.Equal(base.Add(1500 * time.Millisecond)) {
		t.Errorf("timestamp = %v", all[1].Timestamp)
	}
	if all[0].UserContext != "after update" || all[0].Category != matcher.CategoryGeneral {
		t.Errorf("entry = %+v", all[0])
	}

	s0, err := store.List(ctx, ListFilter{SessionID: "s0"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"first", "third"}, messages(s0)); diff != "" {
		t.Errorf("session filter mismatch (-want +got):\n%s", diff)
	}

	since := base.Add(time.Second)
	recent, err := store.List(ctx, ListFilter{Since: &since, Limit: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"second"}, messages(recent)); diff != "" {
		t.Errorf("since filter mismatch (-want +got):\n%s", diff)
	}

	n, err := store.Count(ctx)
	if err != nil || n != 3 {
		t.Errorf("count = %d, %v; want 3", n, err)
	}
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "unmatched.log")
	sink, err := OpenFileSink(path)
	if err != nil {
		t.Fatalf("OpenFileSink: %v", err)
	}
	l := NewLog(5, zerolog.Nop(), sink)
	l.Record(context.Background(), "s1", "No bootable device")
	l.Record(context.Background(), "s2", "CPU fan error")
	l.Close()
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sink.Write(context.Background(), Entry{}); !errors.Is(err, os.ErrClosed) {
		t.Errorf("write after close = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if lines[0]["message"] != "UNMATCHED_ERROR" || lines[0]["error_message"] != "No bootable device" {
		t.Errorf("line = %v", lines[0])
	}
	if lines[1]["category"] != string(matcher.CategoryProcessor) {
		t.Errorf("category = %v", lines[1]["category"])
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unmatched.log")
	sink, err := OpenFileSink(path)
	if err != nil {
		t.Fatalf("OpenFileSink: %v", err)
	}
	ts := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	l := NewLog(5, zerolog.Nop(), sink)
	l.Append(context.Background(), Entry{ID: "a", Timestamp: ts, ErrorMessage: "No bootable device", SessionID: "s1", UserContext: "after BIOS update"})
	l.Append(context.Background(), Entry{ID: "b", Timestamp: ts.Add(time.Minute), ErrorMessage: "CPU fan error", SessionID: "s2"})
	l.Close()
	sink.Close()

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := []Entry{
		{ID: "a", Timestamp: ts, ErrorMessage: "No bootable device", SessionID: "s1", UserContext: "after BIOS update", Category: matcher.CategoryBootloader},
		{ID: "b", Timestamp: ts.Add(time.Minute), ErrorMessage: "CPU fan error", SessionID: "s2", Category: matcher.CategoryProcessor},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadFile mismatch (-want +got):\n%s", diff)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.log")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWebhookSink(t *testing.T) {
	var (
		mu       sync.Mutex
		received []Entry
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var e Entry
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	l := NewLog(5, zerolog.Nop(), NewWebhookSink(ts.URL))
	ctx := WithUserContext(context.Background(), "Dell OptiPlex")
	l.Record(ctx, "s1", "TPM device not detected")
	l.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("webhook calls = %d, want 1", len(received))
	}
	got := received[0]
	if got.ErrorMessage != "TPM device not detected" || got.UserContext != "Dell OptiPlex" || got.Category != matcher.CategoryFirmware {
		t.Errorf("payload = %+v", got)
	}
}

func TestRecordDoesNotWaitForSlowSink(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	l := NewLog(5, zerolog.Nop(), NewWebhookSink(ts.URL))
	ctx, cancel := context.WithCancel(context.Background())

	start := time.Now()
	l.Record(ctx, "s1", "kernel panic")
	l.Record(ctx, "s1", "kernel panic again")
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Record took %v with a stalled webhook", elapsed)
	}
	if l.Len() != 2 {
		t.Errorf("len = %d, want 2", l.Len())
	}

	// Delivery outlives the request context.
	cancel()
	close(release)
	l.Close()
	if got := calls.Load(); got != 2 {
		t.Errorf("webhook calls = %d, want 2", got)
	}

	l.Record(context.Background(), "s1", "after close")
	if l.Len() != 3 {
		t.Errorf("entry dropped after Close")
	}
}

func TestWebhookSinkStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	err := NewWebhookSink(ts.URL).Write(context.Background(), Entry{ErrorMessage: "x"})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("err = %v, want status 502", err)
	}
}

func TestWriteCSV(t *testing.T) {
	ts := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	var buf bytes.Buffer
	err := WriteCSV(&buf, []Entry{{Timestamp: ts, ErrorMessage: `Error "0x7B", halted`}})
	if err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	want := [][]string{
		ExportHeader,
		{"2026-05-06T07:08:09Z", `Error "0x7B", halted`, matcher.PlaceholderPrimaryFix, matcher.PlaceholderAlternativeFix, "Medium"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func newRouter(l *Log, s *Store) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, l, s)
	return r
}

func TestRecentRoute(t *testing.T) {
	l := NewLog(50, zerolog.Nop())
	for i := 0; i < 25; i++ {
		l.Record(context.Background(), "s", fmt.Sprintf("q%d", i))
	}

	rec := httptest.NewRecorder()
	newRouter(l, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unmatched-errors", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		UnmatchedErrors []Entry `json:"unmatched_errors"`
		TotalCount      int     `json:"total_count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.TotalCount != 25 || len(body.UnmatchedErrors) != 20 {
		t.Errorf("total = %d, returned = %d", body.TotalCount, len(body.UnmatchedErrors))
	}
	if body.UnmatchedErrors[0].ErrorMessage != "q5" {
		t.Errorf("first returned = %q, want q5", body.UnmatchedErrors[0].ErrorMessage)
	}
}

func TestDownloadRoute(t *testing.T) {
	store := testStore(t)
	l := NewLog(1, zerolog.Nop(), store)
	l.Record(context.Background(), "s", "Disk read error")
	l.Record(context.Background(), "s", "Memory test failed")
	l.Close()

	tests := []struct {
		name  string
		store *Store
		rows  int
	}{
		{"from ring", nil, 1},
		{"from store", store, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newRouter(l, tt.store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download-unmatched", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=unmatched_errors.csv" {
				t.Errorf("content-disposition = %q", got)
			}
			records, err := csv.NewReader(rec.Body).ReadAll()
			if err != nil {
				t.Fatal(err)
			}
			if len(records) != tt.rows+1 {
				t.Errorf("rows = %d, want %d", len(records)-1, tt.rows)
			}
		})
	}
}
