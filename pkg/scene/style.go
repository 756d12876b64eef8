package scene

// Style holds the visual constants of the diagram.
type Style struct {
	Background string

	DeviceFill        string
	DeviceStroke      string
	DeviceStrokeWidth float64
	CornerRadius      float64
	LabelColor        string
	LabelSize         float64

	PortRadius    float64
	PortFill      string
	PortStroke    string
	PortLabelSize float64

	CableColor       string
	CableWidth       float64
	CableRadius      float64
	Marker           string // arrowhead path at the target end
	CableLabelSize   float64
	CableLabelFill   string
	CableLabelMargin float64
}

// DefaultStyle returns the classic Kabelplan look.
func DefaultStyle() Style {
	return Style{
		Background: "white",

		DeviceFill:        "#E3F2FD",
		DeviceStroke:      "#2196F3",
		DeviceStrokeWidth: 2,
		CornerRadius:      5,
		LabelColor:        "#0d47a1",
		LabelSize:         12,

		PortRadius:    4,
		PortFill:      "white",
		PortStroke:    "#333333",
		PortLabelSize: 10,

		CableColor:       "#333333",
		CableWidth:       2,
		CableRadius:      10,
		Marker:           "M 10 -5 0 0 10 5 z",
		CableLabelSize:   10,
		CableLabelFill:   "white",
		CableLabelMargin: 2,
	}
}

// TextWidth estimates the rendered width of s at the given font size.
func TextWidth(s string, size float64) float64 {
	return float64(len([]rune(s))) * size * 0.6
}
