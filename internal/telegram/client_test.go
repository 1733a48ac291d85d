package telegram

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rewired-gh/reelstats/internal/analyzer"
	"github.com/rewired-gh/reelstats/internal/fetcher"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"8.5", "8\\.5"},
		{"Spider-Man: No Way Home (2021)!", "Spider\\-Man: No Way Home \\(2021\\)\\!"},
		{"a_b*c", "a\\_b\\*c"},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeMarkdownV2(tt.in); got != tt.want {
			t.Errorf("escapeMarkdownV2(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatFetchSummary(t *testing.T) {
	msg := formatFetchSummary(&fetcher.Summary{
		RunID:    "0b4e7a0e-5f2c-4c4b-8f52-3f1d6b7a9c10",
		New:      1200,
		Skipped:  3,
		Failed:   1,
		Total:    12000,
		Duration: 95 * time.Second,
	})

	for _, want := range []string{"New: *1,200*", "Total indexed: *12,000*", "Failed: 1", "1m35s", "`0b4e7a0e-5f2c-4c4b-8f52-3f1d6b7a9c10`"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatReport(t *testing.T) {
	report := &analyzer.Report{
		BasicStats: analyzer.BasicStats{TotalMovies: 2500, AvgRating: 7.25},
		RatingConsistency: analyzer.ConsistencyAnalysis{
			MostConsistent: []analyzer.RankedMovie{{ID: 1, Title: "Paddington 2", Year: 2017, Score: 1.05}},
		},
		GenreImpact: []analyzer.GenreStats{
			{Genre: "drama", MovieCount: 12, AvgRating: 7.1},
			{Genre: "western", MovieCount: 2, AvgRating: 6.2},
		},
		TopMovies: []analyzer.RankedMovie{{ID: 2, Title: "Inception", Year: 2010, Score: 0.912}},
	}

	msg := formatReport(report, 5)
	for _, want := range []string{"*2,500*", "7\\.25", "Paddington 2 \\(2017\\)", "drama: 7\\.10 avg, 12 movies", "Inception \\(2010\\) 0\\.912"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "western") {
		t.Error("genres below the movie threshold must be left out")
	}
}

func TestFormatReportEmpty(t *testing.T) {
	msg := formatReport(&analyzer.Report{}, 5)
	if strings.Contains(msg, "Genres") || strings.Contains(msg, "Top success") {
		t.Errorf("empty report should only carry basic stats:\n%s", msg)
	}
}

func newMockBotAPI(t *testing.T, failures int32) (*httptest.Server, *int32) {
	t.Helper()
	var sends int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"reelstats","username":"reelstats_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if err := r.ParseForm(); err != nil {
				t.Errorf("bad form: %v", err)
			}
			if r.Form.Get("chat_id") != "42" || r.Form.Get("parse_mode") != "MarkdownV2" {
				t.Errorf("unexpected form: %v", r.Form)
			}
			if atomic.AddInt32(&sends, 1) <= failures {
				_, _ = w.Write([]byte(`{"ok":false,"error_code":500,"description":"Internal Server Error"}`))
				return
			}
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	return server, &sends
}

func TestSendFetchSummaryRetries(t *testing.T) {
	server, sends := newMockBotAPI(t, 1)
	defer server.Close()

	c, err := newClient("token", "42", 3, time.Millisecond, server.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("newClient failed: %v", err)
	}
	if err := c.SendFetchSummary(&fetcher.Summary{RunID: "r", New: 1}); err != nil {
		t.Fatalf("SendFetchSummary failed: %v", err)
	}
	if got := atomic.LoadInt32(sends); got != 2 {
		t.Errorf("Expected 2 send attempts, got %d", got)
	}
}

func TestSendReportGivesUp(t *testing.T) {
	server, sends := newMockBotAPI(t, 10)
	defer server.Close()

	c, err := newClient("token", "42", 2, time.Millisecond, server.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("newClient failed: %v", err)
	}
	if err := c.SendReport(&analyzer.Report{}, 5); err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
	if got := atomic.LoadInt32(sends); got != 2 {
		t.Errorf("Expected 2 send attempts, got %d", got)
	}
}

func TestNewClientInvalidChatID(t *testing.T) {
	if _, err := NewClient("token", "not-a-number", 1, time.Millisecond); err == nil {
		t.Fatal("Expected invalid chat ID error")
	}
}
