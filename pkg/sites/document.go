package sites

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsafeReplacement is returned by Replace when the new text would end
// the literal early or change its meaning.
var ErrUnsafeReplacement = errors.New("replacement text is not safe for the literal")

// Handle is a stable index of a site within a Document.
type Handle int

// Document is an arena of sites over one immutable source buffer.
// Replacements are recorded per handle and applied by Render.
type Document struct {
	source       []byte
	sites        []Site
	replacements map[Handle]string
}

// NewDocument wraps source and its sites. Sites must be in document order and
// must not overlap, as returned by Collect.
func NewDocument(source []byte, sites []Site) *Document {
	return &Document{
		source:       source,
		sites:        sites,
		replacements: make(map[Handle]string),
	}
}

// Len returns the number of sites.
func (d *Document) Len() int {
	return len(d.sites)
}

// Site returns the site behind h.
func (d *Document) Site(h Handle) Site {
	return d.sites[h]
}

// Replace schedules new content for the site behind h.
func (d *Document) Replace(h Handle, text string) error {
	if int(h) < 0 || int(h) >= len(d.sites) {
		return fmt.Errorf("site handle %d out of range", h)
	}
	site := d.sites[h]
	if !safeContent(text, site.Delimiter) {
		return fmt.Errorf("site at %d:%d: %w", site.Line, site.Column, ErrUnsafeReplacement)
	}
	if text == site.Text {
		delete(d.replacements, h)
		return nil
	}
	d.replacements[h] = text
	return nil
}

// Changed returns the number of sites with a pending replacement.
func (d *Document) Changed() int {
	return len(d.replacements)
}

// Render returns the source with every replacement applied. Bytes outside
// replaced sites are copied unchanged. With no replacements the original
// buffer is returned.
func (d *Document) Render() []byte {
	if len(d.replacements) == 0 {
		return d.source
	}

	var buf bytes.Buffer
	buf.Grow(len(d.source))
	last := uint(0)
	for i, site := range d.sites {
		text, ok := d.replacements[Handle(i)]
		if !ok {
			continue
		}
		buf.Write(d.source[last:site.Start])
		buf.WriteString(text)
		last = site.End
	}
	buf.Write(d.source[last:])
	return buf.Bytes()
}

func safeContent(text string, delim byte) bool {
	if strings.Contains(text, `\`) || strings.IndexByte(text, delim) >= 0 {
		return false
	}
	if delim == '`' && strings.Contains(text, "${") {
		return false
	}
	return true
}
