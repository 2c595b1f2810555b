package wgconf

import (
	"fmt"
	"strings"
)

// Document is the structured form of a `[Interface]`/`[Peer]` config file.
// Mutations (adding and removing peer blocks) happen on this model and the
// result is re-serialized, so removal never depends on substring matching
// against raw lines.
type Document struct {
	Sections []*Section
}

// Section is one bracketed block plus any comment lines directly above it.
type Section struct {
	Name            string // "Interface" or "Peer"
	LeadingComments []string
	Fields          []Field
}

// Field is a single Key = Value line.
type Field struct {
	Key   string
	Value string
}

// Get returns the first value for key, with ok reporting presence.
func (s *Section) Get(key string) (string, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Set replaces the first field with the given key, appending when absent.
func (s *Section) Set(key, value string) {
	for i, f := range s.Fields {
		if f.Key == key {
			s.Fields[i].Value = value
			return
		}
	}
	s.Fields = append(s.Fields, Field{Key: key, Value: value})
}

// ParseDocument parses config text into a Document. Input is normalized
// first. A parse error carries the offending line number.
func ParseDocument(text string) (*Document, error) {
	doc := &Document{}
	var current *Section
	var pending []string

	for i, raw := range strings.Split(Normalize(text), "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";"):
			pending = append(pending, line)
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			current = &Section{
				Name:            strings.TrimSpace(line[1 : len(line)-1]),
				LeadingComments: pending,
			}
			pending = nil
			doc.Sections = append(doc.Sections, current)
		default:
			key, value, found := strings.Cut(line, "=")
			if !found {
				return nil, fmt.Errorf("line %d: not a section, comment or key=value: %q", i+1, line)
			}
			if current == nil {
				return nil, fmt.Errorf("line %d: field %q outside any section", i+1, strings.TrimSpace(key))
			}
			current.Fields = append(current.Fields, Field{
				Key:   strings.TrimSpace(key),
				Value: strings.TrimSpace(value),
			})
		}
	}

	return doc, nil
}

// Serialize renders the document back to normalized config text.
func (d *Document) Serialize() string {
	var b strings.Builder
	for i, s := range d.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, c := range s.LeadingComments {
			b.WriteString(c + "\n")
		}
		fmt.Fprintf(&b, "[%s]\n", s.Name)
		for _, f := range s.Fields {
			fmt.Fprintf(&b, "%s = %s\n", f.Key, f.Value)
		}
	}
	return Normalize(b.String())
}

// Interface returns the first [Interface] section, or nil.
func (d *Document) Interface() *Section {
	for _, s := range d.Sections {
		if s.Name == "Interface" {
			return s
		}
	}
	return nil
}

// Peers returns all [Peer] sections in file order.
func (d *Document) Peers() []*Section {
	var out []*Section
	for _, s := range d.Sections {
		if s.Name == "Peer" {
			out = append(out, s)
		}
	}
	return out
}

// PeerPublicKeys returns the PublicKey value of every [Peer] section.
func (d *Document) PeerPublicKeys() []string {
	var out []string
	for _, s := range d.Peers() {
		if pk, ok := s.Get("PublicKey"); ok {
			out = append(out, pk)
		}
	}
	return out
}

// AppendPeer adds the record's server-side stanza as a new [Peer] section.
// The identity travels as a comment line above the block.
func (d *Document) AppendPeer(rec *PeerRecord) {
	d.Sections = append(d.Sections, &Section{
		Name:            "Peer",
		LeadingComments: []string{"# " + rec.Identity},
		Fields: []Field{
			{Key: "PublicKey", Value: rec.PublicKey},
			{Key: "PresharedKey", Value: rec.PresharedKey},
			{Key: "AllowedIPs", Value: rec.HostCIDR()},
		},
	})
}

// RemovePeerByPublicKey drops every [Peer] section whose PublicKey field
// equals pub. The match is a whole-field comparison, so a key or address
// that happens to be a substring of another value cannot be clipped.
func (d *Document) RemovePeerByPublicKey(pub string) bool {
	removed := false
	kept := d.Sections[:0]
	for _, s := range d.Sections {
		if s.Name == "Peer" {
			if pk, ok := s.Get("PublicKey"); ok && pk == pub {
				removed = true
				continue
			}
		}
		kept = append(kept, s)
	}
	d.Sections = kept
	return removed
}
