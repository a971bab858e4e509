// Package markup reads the declarative slot a player is constructed from:
// a single element (audio, video or iframe) and its nested <source> list.
package markup

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var ErrEmptySlot = errors.New("slot markup contains no element")

// Element is a parsed slot element. A nil *Element behaves as an empty slot.
type Element struct {
	sel *goquery.Selection
}

// Parse returns the first element of an HTML fragment.
func Parse(fragment string) (*Element, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("failed to parse slot markup: %w", err)
	}

	first := doc.Find("body").Children().First()
	if first.Length() == 0 {
		return nil, ErrEmptySlot
	}

	return &Element{sel: first}, nil
}

func (e *Element) Tag() string {
	if e == nil {
		return ""
	}
	return goquery.NodeName(e.sel)
}

func (e *Element) Attr(name string) string {
	if e == nil {
		return ""
	}
	return e.sel.AttrOr(name, "")
}

func (e *Element) HasAttr(name string) bool {
	if e == nil {
		return false
	}
	_, ok := e.sel.Attr(name)
	return ok
}

// Src returns the element's own source: currentSrc when the slot recorded
// one, else src.
func (e *Element) Src() string {
	if src := e.Attr("currentsrc"); src != "" {
		return src
	}
	return e.Attr("src")
}

// Sources lists the nested <source> children in document order.
func (e *Element) Sources() []Source {
	if e == nil {
		return nil
	}

	var sources []Source
	e.sel.Find("source").Each(func(i int, s *goquery.Selection) {
		src, exists := s.Attr("src")
		if !exists || src == "" {
			return
		}

		source := Source{
			Src:  src,
			Type: strings.TrimSpace(s.AttrOr("type", "")),
		}
		if size, err := strconv.Atoi(s.AttrOr("size", "")); err == nil {
			source.Size = size
		}
		sources = append(sources, source)
	})

	return sources
}

func (e *Element) String() string {
	if e == nil {
		return "<empty>"
	}
	html, err := goquery.OuterHtml(e.sel)
	if err != nil {
		return "<" + e.Tag() + ">"
	}
	return html
}

type Source struct {
	Src  string
	Type string
	Size int
}

// MediaKind returns "audio" or "video" from the MIME type, or "" if the
// type is missing or of another kind.
func (s Source) MediaKind() string {
	kind, _, found := strings.Cut(s.Type, "/")
	if !found {
		return ""
	}
	switch kind = strings.ToLower(kind); kind {
	case "audio", "video":
		return kind
	default:
		return ""
	}
}
