package shapes

// Shape draws one category of shape into a square bounding box.
type Shape interface {
	Category() Category
	Draw(c *Canvas, x, y, size float64, col Color, rotation float64)
}

type circleShape struct{}

func (circleShape) Category() Category { return Circle }

// Draw ignores rotation; a circle looks the same at every angle.
func (circleShape) Draw(c *Canvas, x, y, size float64, col Color, _ float64) {
	RenderCircle(c, x, y, size, col)
}

type polygonShape struct {
	category Category
	sides    int
}

func (p polygonShape) Category() Category { return p.category }

func (p polygonShape) Draw(c *Canvas, x, y, size float64, col Color, rotation float64) {
	RenderRegularPolygon(c, x, y, size, p.sides, col, rotation)
}

type starShape struct{}

func (starShape) Category() Category { return Star }

func (starShape) Draw(c *Canvas, x, y, size float64, col Color, rotation float64) {
	RenderStar(c, x, y, size, col, rotation)
}

var shapeTable = map[Category]Shape{
	Circle:   circleShape{},
	Square:   polygonShape{category: Square, sides: 4},
	Star:     starShape{},
	Pentagon: polygonShape{category: Pentagon, sides: 5},
	Hexagon:  polygonShape{category: Hexagon, sides: 6},
}

// ShapeFor returns the renderer for c, or nil if c is not a known category.
func ShapeFor(c Category) Shape {
	return shapeTable[c]
}

// Sides returns the number of polygon sides drawn for c: 0 for a circle and 10 for a star.
func Sides(c Category) int {
	switch s := shapeTable[c].(type) {
	case polygonShape:
		return s.sides
	case starShape:
		return 2 * StarPoints
	default:
		return 0
	}
}

// RenderRegularPolygon fills a regular polygon with sides vertices inscribed in the
// bounding box at (x, y).
func RenderRegularPolygon(c *Canvas, x, y, size float64, sides int, col Color, rotation float64) {
	c.FillPolygon(RegularPolygonVertices(x, y, size, sides, rotation), col)
}

// RenderStar fills a five-pointed star inscribed in the bounding box at (x, y).
func RenderStar(c *Canvas, x, y, size float64, col Color, rotation float64) {
	c.FillPolygon(StarVertices(x, y, size, rotation), col)
}

// RenderCircle fills the circle inscribed in the bounding box at (x, y).
func RenderCircle(c *Canvas, x, y, size float64, col Color) {
	c.FillEllipse(x, y, size, size, col)
}
