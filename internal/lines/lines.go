package lines

// FallbackColor is used for any line id missing from the table.
const FallbackColor = "gray"

// ID identifies a transit line as the MBTA API names it ("Red", "Green-B").
type ID string

// Line is a configured line and its display color.
type Line struct {
	ID    ID     `json:"id" yaml:"id" validate:"required"`
	Color string `json:"color" yaml:"color" validate:"required"`
}

// Table maps line ids to display colors and fixes the order lines are
// fetched and merged in. A Table is never modified after construction.
type Table struct {
	order  []Line
	colors map[ID]string
}

// NewTable builds a Table from lines in iteration order. Later duplicates
// of an id are ignored.
func NewTable(ls []Line) *Table {
	t := &Table{colors: make(map[ID]string, len(ls))}
	for _, l := range ls {
		if _, dup := t.colors[l.ID]; dup {
			continue
		}
		t.colors[l.ID] = l.Color
		t.order = append(t.order, l)
	}
	return t
}

// Default returns the subway lines shown by the viewer.
func Default() *Table {
	return NewTable([]Line{
		{ID: "Red", Color: "#FF0000"},
		{ID: "Blue", Color: "#0000FF"},
		{ID: "Orange", Color: "#FFA500"},
		{ID: "Green-B", Color: "#008000"},
		{ID: "Green-C", Color: "#008000"},
		{ID: "Green-D", Color: "#008000"},
		{ID: "Green-E", Color: "#008000"},
	})
}

// Color returns the display color for id, or FallbackColor.
func (t *Table) Color(id ID) string {
	if c, ok := t.colors[id]; ok {
		return c
	}
	return FallbackColor
}

// Has reports whether id is configured.
func (t *Table) Has(id ID) bool {
	_, ok := t.colors[id]
	return ok
}

// IDs returns the configured line ids in iteration order.
func (t *Table) IDs() []ID {
	ids := make([]ID, len(t.order))
	for i, l := range t.order {
		ids[i] = l.ID
	}
	return ids
}

// Len returns the number of configured lines.
func (t *Table) Len() int {
	return len(t.order)
}
