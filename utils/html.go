package utils

import (
	"html"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageDocument wraps a parsed album or media page and exposes the handful
// of lookups the extractor needs.
type PageDocument struct {
	doc *goquery.Document
}

// ItemBlock is one file entry on an album page: the link to its media page
// plus the trailing text fields (display name, size, date) shown next to
// the thumbnail.
type ItemBlock struct {
	Href   string
	Fields []string
}

// ParsePage parses an HTML page body
func ParsePage(r io.Reader) (*PageDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &PageDocument{doc: doc}, nil
}

// MetaProperty returns the content of a <meta property=...> tag
func (p *PageDocument) MetaProperty(property string) string {
	sel := p.doc.Find(`meta[property="` + property + `"]`).First()
	content, _ := sel.Attr("content")
	return content
}

// OpenGraphTitle returns the og:title content. Album titles come through
// double-escaped on the wire, so one extra unescape is applied on top of
// the one the parser already did.
func (p *PageDocument) OpenGraphTitle() string {
	return html.UnescapeString(p.MetaProperty("og:title"))
}

// Title returns the <title> text with the site suffix stripped
func (p *PageDocument) Title() string {
	title := strings.TrimSpace(p.doc.Find("title").First().Text())
	if i := strings.Index(title, " | Bunkr"); i >= 0 {
		title = title[:i]
	}
	return title
}

// AlbumSize returns the declared aggregate size from the album header,
// rendered there as a parenthesized span.
func (p *PageDocument) AlbumSize() string {
	var size string
	p.doc.Find("span.font-semibold").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		open := strings.Index(text, "(")
		if open < 0 {
			return true
		}
		close := strings.Index(text[open:], ")")
		if close < 0 {
			return true
		}
		size = text[open+1 : open+close]
		return false
	})
	return size
}

// FileID extracts the internal file id the resolution API needs, embedded
// on media pages as an anchor under the API origin.
func (p *PageDocument) FileID(origin string) string {
	prefix := origin + "/file/"
	var id string
	p.doc.Find(`a[href^="` + prefix + `"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		id = strings.TrimPrefix(href, prefix)
		return false
	})
	return id
}

// ItemBlocks returns the repeated per-file entries of an album page in
// document order.
func (p *PageDocument) ItemBlocks() []ItemBlock {
	var blocks []ItemBlock
	p.doc.Find(`div[class^="grid-images_box"]`).Each(func(_ int, s *goquery.Selection) {
		block := ItemBlock{}
		if a := s.Find("a").First(); a.Length() > 0 {
			block.Href, _ = a.Attr("href")
		}
		block.Fields = textFields(s)
		blocks = append(blocks, block)
	})
	return blocks
}

// textFields collects the trimmed, non-empty text nodes of a selection in
// document order.
func textFields(s *goquery.Selection) []string {
	var fields []string
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			if t := strings.TrimSpace(c.Text()); t != "" {
				fields = append(fields, t)
			}
			return
		}
		fields = append(fields, textFields(c)...)
	})
	return fields
}
