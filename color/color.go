// Package color holds the three-valued color algebra used by meetings.
//
// Complement is symmetric: two equal colors keep their color, two different
// colors both turn into the third one. Callers pass the in-hand actor first
// and the partner second, but the result does not depend on the order.
package color

import (
	"errors"
	"fmt"
	"strings"
)

// Color is one of the three creature colors. The zero value is not a color.
type Color uint8

const (
	Blue Color = iota + 1
	Red
	Yellow
)

// ErrUnknown is returned by Parse for names outside the three colors.
var ErrUnknown = errors.New("unknown color")

// All lists the colors in the order the complement table is printed.
var All = [3]Color{Blue, Red, Yellow}

var names = [...]string{
	Blue:   "blue",
	Red:    "red",
	Yellow: "yellow",
}

// complements is indexed by [a][b]; row and column 0 stay zero so an
// invalid operand can never produce a valid color.
var complements = [4][4]Color{
	Blue:   {Blue: Blue, Red: Yellow, Yellow: Red},
	Red:    {Blue: Yellow, Red: Red, Yellow: Blue},
	Yellow: {Blue: Red, Red: Blue, Yellow: Yellow},
}

// Valid reports whether c is one of the three colors.
func (c Color) Valid() bool {
	return c >= Blue && c <= Yellow
}

func (c Color) String() string {
	if !c.Valid() {
		return fmt.Sprintf("color(%d)", uint8(c))
	}
	return names[c]
}

// Complement returns the color both participants of a meeting take on.
// It returns 0 if either operand is invalid.
func Complement(self, other Color) Color {
	if !self.Valid() || !other.Valid() {
		return 0
	}
	return complements[self][other]
}

// Parse maps a case-insensitive color name to its Color.
func Parse(name string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "blue":
		return Blue, nil
	case "red":
		return Red, nil
	case "yellow":
		return Yellow, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// ParseList parses a list of names, e.g. the items of a comma separated flag.
func ParseList(names []string) ([]Color, error) {
	ret := make([]Color, 0, len(names))
	for _, name := range names {
		c, err := Parse(name)
		if err != nil {
			return nil, err
		}
		ret = append(ret, c)
	}
	return ret, nil
}

// Names renders colors back to their names.
func Names(colors []Color) []string {
	ret := make([]string, len(colors))
	for i, c := range colors {
		ret[i] = c.String()
	}
	return ret
}

// Line is one row of the complement table.
type Line struct {
	Self, Other, Result Color
}

func (l Line) String() string {
	return l.Self.String() + " + " + l.Other.String() + " -> " + l.Result.String()
}

// Table returns the nine complement rows in print order.
func Table() []Line {
	ret := make([]Line, 0, len(All)*len(All))
	for _, self := range All {
		for _, other := range All {
			ret = append(ret, Line{Self: self, Other: other, Result: Complement(self, other)})
		}
	}
	return ret
}
