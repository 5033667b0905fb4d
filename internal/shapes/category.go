package shapes

import (
	"fmt"
	"strings"
)

// Category identifies one of the five shape classes. Values are the stable COCO
// category ids, 1-indexed in declaration order.
type Category int

const (
	Circle Category = iota + 1
	Square
	Star
	Pentagon
	Hexagon
)

var categoryNames = [...]string{
	Circle:   "circle",
	Square:   "square",
	Star:     "star",
	Pentagon: "pentagon",
	Hexagon:  "hexagon",
}

// AllCategories returns every category in declaration order.
func AllCategories() []Category {
	return []Category{Circle, Square, Star, Pentagon, Hexagon}
}

// ID returns the COCO category id.
func (c Category) ID() int { return int(c) }

// Name returns the lower-case name used in file names and the COCO category table.
func (c Category) Name() string {
	if !c.Valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

func (c Category) String() string { return c.Name() }

// Valid reports whether c is one of the five known categories.
func (c Category) Valid() bool {
	return c >= Circle && c <= Hexagon
}

// ParseCategory returns the category with the given name. Matching ignores case and
// surrounding whitespace.
func ParseCategory(name string) (Category, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, c := range AllCategories() {
		if categoryNames[c] == n {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown shape category: %q", name)
}

// MarshalText implements encoding.TextMarshaler so categories serialize by name.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid shape category: %d", int(c))
	}
	return []byte(c.Name()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
