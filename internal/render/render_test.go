package render

import (
	"strings"
	"testing"

	"github.com/ziadkadry99/errmatch/internal/matcher"
)

func TestMarkdown(t *testing.T) {
	got, err := Markdown("1. **Memory/RAM related** (2 matches)\n   Example: \"Memory test failed\"")
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	for _, want := range []string{"<ol>", "<strong>Memory/RAM related</strong>", "<br"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestMarkdownDropsRawHTML(t *testing.T) {
	got, err := Markdown(`Example: <script>alert(1)</script>`)
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("raw html passed through:\n%s", got)
	}
}

func TestFollowUp(t *testing.T) {
	resp := &matcher.Response{FollowUp: matcher.BuildFollowUp([]matcher.Candidate{
		{Error: "Memory test failed", Similarity: 0.8},
		{Error: "Disk read error", Similarity: 0.8},
	})}
	FollowUp(resp)
	if !strings.Contains(resp.FollowUp.QuestionHTML, "<strong>Hard drive/Storage related</strong>") {
		t.Errorf("question html = %s", resp.FollowUp.QuestionHTML)
	}

	FollowUp(&matcher.Response{})
	FollowUp(nil)
}
