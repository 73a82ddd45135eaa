// Package placements defines the chart-derived placements document shared by
// sessions and the user profile cache, together with the one emptiness
// predicate every layer uses to decide whether a document carries any signal.
package placements

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Unknown is the placeholder value extractors emit for a signal they could
// not read. It counts as "no data".
const Unknown = "UNKNOWN"

// Default signal names produced by the extraction service.
var (
	AstrologyKeys = []string{
		"sun", "moon", "rising", "mercury", "venus", "mars",
		"jupiter", "saturn", "uranus", "neptune", "pluto", "houses",
	}
	HumanDesignKeys = []string{
		"type", "strategy", "authority", "profile", "centers", "gifts",
	}
)

// Placements is the structured document attached to a session or profile.
type Placements struct {
	Astrology   map[string]string `json:"astrology,omitempty"`
	HumanDesign map[string]string `json:"human_design,omitempty"`
	Notes       string            `json:"notes,omitempty"`
}

// IsEmpty reports whether p has no usable chart signal: every astrology and
// human design value is blank or the Unknown sentinel (any case) and the
// notes are blank. A nil document is empty.
func IsEmpty(p *Placements) bool {
	if p == nil {
		return true
	}
	for _, v := range p.Astrology {
		if present(v) {
			return false
		}
	}
	for _, v := range p.HumanDesign {
		if present(v) {
			return false
		}
	}
	return strings.TrimSpace(p.Notes) == ""
}

// present reports whether a single signal value carries data.
// A Caser holds state, so a fresh one is built per call.
func present(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	fold := cases.Fold()
	return fold.String(v) != fold.String(Unknown)
}

// Skeleton returns a document with every default signal set to Unknown.
func Skeleton() *Placements {
	p := &Placements{
		Astrology:   make(map[string]string, len(AstrologyKeys)),
		HumanDesign: make(map[string]string, len(HumanDesignKeys)),
	}
	for _, k := range AstrologyKeys {
		p.Astrology[k] = Unknown
	}
	for _, k := range HumanDesignKeys {
		p.HumanDesign[k] = Unknown
	}
	return p
}

// Clone returns a deep copy so a propagated document never aliases its source.
func (p *Placements) Clone() *Placements {
	if p == nil {
		return nil
	}
	out := &Placements{Notes: p.Notes}
	if p.Astrology != nil {
		out.Astrology = make(map[string]string, len(p.Astrology))
		for k, v := range p.Astrology {
			out.Astrology[k] = v
		}
	}
	if p.HumanDesign != nil {
		out.HumanDesign = make(map[string]string, len(p.HumanDesign))
		for k, v := range p.HumanDesign {
			out.HumanDesign[k] = v
		}
	}
	return out
}

// Merge overlays the present values of src onto p. Blank and Unknown values
// in src never replace a value already in p.
func (p *Placements) Merge(src *Placements) {
	if src == nil {
		return
	}
	if p.Astrology == nil {
		p.Astrology = map[string]string{}
	}
	if p.HumanDesign == nil {
		p.HumanDesign = map[string]string{}
	}
	overlay := func(dst, from map[string]string) {
		for k, v := range from {
			if !present(v) {
				if _, ok := dst[k]; !ok {
					dst[k] = Unknown
				}
				continue
			}
			dst[k] = strings.TrimSpace(v)
		}
	}
	overlay(p.Astrology, src.Astrology)
	overlay(p.HumanDesign, src.HumanDesign)
	if n := strings.TrimSpace(src.Notes); n != "" {
		p.Notes = n
	}
}

// Value implements driver.Valuer; documents are stored as JSON text.
func (p Placements) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (p *Placements) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*p = Placements{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("placements: unsupported scan type %T", src)
	}
	*p = Placements{}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, p); err != nil {
		return fmt.Errorf("placements: decode: %w", err)
	}
	return nil
}
