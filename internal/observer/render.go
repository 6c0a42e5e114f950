package observer

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

const (
	attrID    = "data-speckled-id"
	attrKind  = "data-speckled-kind"
	attrValue = "data-speckled-value"
)

// Element kinds assigned by the tagging script.
const (
	KindClickable = "clickable"
	KindInput     = "input"
	KindLink      = "link"
)

var (
	// escapedMarker matches markers the markdown converter escaped.
	escapedMarker = regexp.MustCompile(`\\?\[\\?([#$@])(\d+)\\?\]`)
	blankLines    = regexp.MustCompile(`\n{3,}`)
)

// Marker returns the textual tag for an element, e.g. "[#3]".
func Marker(kind string, id int) string {
	sigil := "#"
	switch kind {
	case KindInput:
		sigil = "$"
	case KindLink:
		sigil = "@"
	}
	return "[" + sigil + strconv.Itoa(id) + "]"
}

// renderer converts a tagged document into compact markdown where every
// tagged element is preceded by its marker.
type renderer struct {
	md       *htmltomarkdown.Converter
	sanitize *bluemonday.Policy
}

func newRenderer() *renderer {
	return &renderer{
		md: htmltomarkdown.NewConverter(
			htmltomarkdown.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		sanitize: bluemonday.UGCPolicy(),
	}
}

// render returns the page text for a tagged document.
func (r *renderer) render(document string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, template, svg, canvas, iframe, head").Remove()

	doc.Find("[" + attrID + "]").Each(func(_ int, s *goquery.Selection) {
		id, err := strconv.Atoi(s.AttrOr(attrID, ""))
		if err != nil {
			return
		}
		insertMarker(s, s.AttrOr(attrKind, KindClickable), id)
	})

	body, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(body) == "" {
		body, err = doc.Html()
		if err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}

	clean := r.sanitize.Sanitize(body)
	text, err := r.md.ConvertString(clean)
	if err != nil || strings.TrimSpace(text) == "" {
		// Plain text still carries every marker.
		text = plainText(clean)
	}
	return tidy(text), nil
}

// insertMarker places the element's marker text directly before it. Form
// fields get a short description since their tags do not survive
// conversion.
func insertMarker(s *goquery.Selection, kind string, id int) {
	node := s.Get(0)
	if node == nil || node.Parent == nil {
		return
	}
	text := Marker(kind, id) + " "
	switch {
	case kind == KindInput:
		text += describeField(s) + " "
	case goquery.NodeName(s) == "input":
		// Buttons rendered from inputs have no child text.
		text += firstNonEmpty(s.AttrOr("value", ""), s.AttrOr("aria-label", ""), s.AttrOr("type", "")) + " "
	}
	node.Parent.InsertBefore(&html.Node{Type: html.TextNode, Data: text}, node)
}

func describeField(s *goquery.Selection) string {
	label := firstNonEmpty(
		s.AttrOr("aria-label", ""),
		s.AttrOr("placeholder", ""),
		s.AttrOr("name", ""),
		s.AttrOr("type", ""),
		goquery.NodeName(s),
	)
	desc := "(" + label + ")"
	if value, ok := s.Attr(attrValue); ok && value != "" {
		desc += ` value: "` + value + `"`
	}
	return desc
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func plainText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString(fragment))
	if err != nil {
		return fragment
	}
	return doc.Text()
}

func tidy(text string) string {
	text = escapedMarker.ReplaceAllString(text, "[$1$2]")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	text = blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text)
}
