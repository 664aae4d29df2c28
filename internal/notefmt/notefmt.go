// Package notefmt is the serialization boundary for a note's JSON-in-a-string
// fields (body, colors, position).
//
// Notes have always been stored the way the browser frontend wrote them:
// each of the three fields is a JSON document kept in a string column. Older
// clients sometimes encoded the body twice. Reads therefore never trust the
// stored text: every decoder here either succeeds or falls back to a safe
// value and reports a *ParseError that callers may log but must not surface.
package notefmt

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/sakif/stickyboard/internal/model"
)

// Palette is the fixed set of card colors new notes are drawn from.
var Palette = []model.Colors{
	{ID: "color-yellow", ColorHeader: "#FFEFBE", ColorBody: "#FFF5DF", ColorText: "#18181A"},
	{ID: "color-green", ColorHeader: "#AFDA9F", ColorBody: "#BCDEAF", ColorText: "#18181A"},
	{ID: "color-blue", ColorHeader: "#9BD1DE", ColorBody: "#A6DCE9", ColorText: "#18181A"},
	{ID: "color-purple", ColorHeader: "#FED0FD", ColorBody: "#FEE5FD", ColorText: "#18181A"},
}

// DefaultColors is used when a stored colors document cannot be decoded.
func DefaultColors() model.Colors {
	return Palette[0]
}

// DefaultPosition is where new cards land.
func DefaultPosition() model.Position {
	return model.Position{X: 10, Y: 10}
}

// LookupColor returns the palette entry with the given id.
func LookupColor(id string) (model.Colors, bool) {
	for _, c := range Palette {
		if c.ID == id {
			return c, true
		}
	}
	return model.Colors{}, false
}

// ParseError describes a stored field that could not be decoded.
type ParseError struct {
	Field string // "body", "colors" or "position"
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("notefmt: malformed %s %q: %v", e.Field, e.Raw, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// EncodeBody returns body as a JSON string literal.
func EncodeBody(body string) string {
	b, _ := json.Marshal(body) // marshalling a string cannot fail
	return string(b)
}

// EncodeColors returns c as a JSON object.
func EncodeColors(c model.Colors) string {
	b, _ := json.Marshal(c)
	return string(b)
}

// EncodePosition clamps p and returns it as a JSON object.
func EncodePosition(p model.Position) string {
	b, _ := json.Marshal(Clamp(p))
	return string(b)
}

// Clamp pins both coordinates to >= 0. NaN and infinities become 0 so the
// result always encodes as JSON.
func Clamp(p model.Position) model.Position {
	return model.Position{X: clampCoord(p.X), Y: clampCoord(p.Y)}
}

func clampCoord(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Max(0, v)
}

// CleanBody unwraps exactly one level of JSON string encoding.
//
//	CleanBody(`"hello"`)       == "hello"
//	CleanBody(`"\"hello\""`)   == `"hello"`   (double-encoded: one level only)
//	CleanBody("  plain  ")     == "plain"     (not JSON: raw, trimmed)
//
// A JSON value that is not a string (a number, an object) is returned as the
// trimmed raw text.
func CleanBody(raw string) string {
	body, _ := DecodeBody(raw)
	return body
}

// DecodeBody is CleanBody that also reports why the fallback was used.
func DecodeBody(raw string) (string, error) {
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return strings.TrimSpace(raw), &ParseError{Field: "body", Raw: raw, Err: err}
	}
	return s, nil
}

// DecodeColors decodes a colors document. A document without an id is
// treated as malformed.
func DecodeColors(raw string) (model.Colors, error) {
	var c model.Colors
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return DefaultColors(), &ParseError{Field: "colors", Raw: raw, Err: err}
	}
	if strings.TrimSpace(c.ID) == "" {
		return DefaultColors(), &ParseError{Field: "colors", Raw: raw, Err: fmt.Errorf("missing color id")}
	}
	return c, nil
}

// DecodePosition decodes a position document and clamps it. Both x and y
// must be present.
func DecodePosition(raw string) (model.Position, error) {
	var p struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return DefaultPosition(), &ParseError{Field: "position", Raw: raw, Err: err}
	}
	if p.X == nil || p.Y == nil {
		return DefaultPosition(), &ParseError{Field: "position", Raw: raw, Err: fmt.Errorf("x and y are required")}
	}
	return Clamp(model.Position{X: *p.X, Y: *p.Y}), nil
}

// ValidateColors checks an incoming colors document and returns its
// canonical encoding. Unlike DecodeColors it does not fall back.
func ValidateColors(raw string) (string, error) {
	c, err := DecodeColors(raw)
	if err != nil {
		return "", err
	}
	return EncodeColors(c), nil
}

// NormalizePosition checks an incoming position document and returns it
// re-encoded with both coordinates clamped to >= 0.
func NormalizePosition(raw string) (string, error) {
	p, err := DecodePosition(raw)
	if err != nil {
		return "", err
	}
	return EncodePosition(p), nil
}

// Parse decodes all serialized fields of n. Fallback values are applied for
// every field that fails; the failures are returned for logging.
func Parse(n model.Note) (model.ParsedNote, []error) {
	var errs []error

	body, err := DecodeBody(n.Body)
	if err != nil {
		errs = append(errs, err)
	}
	colors, err := DecodeColors(n.Colors)
	if err != nil {
		errs = append(errs, err)
	}
	pos, err := DecodePosition(n.Position)
	if err != nil {
		errs = append(errs, err)
	}

	return model.ParsedNote{
		ID:        n.ID,
		Body:      body,
		Colors:    colors,
		Position:  pos,
		UserID:    n.Owner(),
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}, errs
}

// ParseAll parses a list of notes, keeping their order.
func ParseAll(notes []model.Note) ([]model.ParsedNote, []error) {
	out := make([]model.ParsedNote, 0, len(notes))
	var errs []error
	for _, n := range notes {
		p, perrs := Parse(n)
		out = append(out, p)
		errs = append(errs, perrs...)
	}
	return out, errs
}
