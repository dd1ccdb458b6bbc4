// Package render turns the markdown used in chat replies into HTML for the
// browser client.
package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ziadkadry99/errmatch/internal/matcher"
)

// Raw HTML in the source is dropped, since option examples come straight from
// uploaded spreadsheets.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Markdown converts src to an HTML fragment.
func Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// FollowUp fills in QuestionHTML on resp's follow-up question, if any. A
// rendering failure leaves the plain question in place.
func FollowUp(resp *matcher.Response) {
	if resp == nil || resp.FollowUp == nil {
		return
	}
	if h, err := Markdown(resp.FollowUp.Question); err == nil {
		resp.FollowUp.QuestionHTML = h
	}
}
