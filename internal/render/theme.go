package render

// Theme holds colors for a method's control-flow graph rendering.
type Theme struct {
	Background string
	NodeFill   string
	NodeBorder string
	TextColor  string

	EdgeEntry string // entry block highlight, taken side of a conditional branch
	EdgeFalse string // fallthrough side of a conditional branch
	EdgeEdge  string // unconditional jump or fallthrough-only edge

	TermFill string // terminal block (no successors) fill color
}

// NASA is the NASA/Bauhaus theme: geometric, monochrome, sparse color.
var NASA = Theme{
	Background: "#F5F5F5",
	NodeFill:   "white",
	NodeBorder: "#1A1A1A",
	TextColor:  "#1A1A1A",

	EdgeEntry: "#0B3D91", // NASA blue
	EdgeFalse: "#FC3D21", // NASA red
	EdgeEdge:  "#424242", // dark gray

	TermFill: "#ECEFF1", // blue-gray 50
}
