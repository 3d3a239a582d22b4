package core

// Annotation is a point of interest rendered as a marker over the camera
// feed. Identity and location are fixed at ingestion; the remaining fields
// are derived and rewritten on every reload cycle.
type Annotation struct {
	ID       string
	Title    string
	Location Location

	// Attributes carries opaque app data. Tier classifiers key off it
	// when assigning initial vertical levels.
	Attributes map[string]string

	// Derived fields, valid only while a user location is known.
	DistanceFromUser float64 // meters
	Azimuth          float64 // degrees, [0,360)
	VerticalLevel    int     // stacking tier, 0 = front-most
	Active           bool    // eligible to have a rendered view
}

// Placement is the per-frame screen state for one annotation view.
// X/Y are overlay coordinates; the presentation layer offsets the overlay
// by the current heading and diffs Visible against the previous frame to
// decide attach/detach.
type Placement struct {
	X       float64
	Y       float64
	Visible bool
}
