package domain

// Point is one chart coordinate.
type Point struct {
	X      int64   `json:"x"`
	Y      float64 `json:"y"`
	Label  string  `json:"label"`
	Commit string  `json:"commit,omitempty"`
	URL    string  `json:"url,omitempty"`
}

// Series is the display-ready history of one benchmark name.
type Series struct {
	Name   string  `json:"name"`
	Unit   string  `json:"unit"`
	Tool   string  `json:"tool,omitempty"`
	Points []Point `json:"points"`
}
