// Package court provides shared court geometry and pure classification of
// raw court-diagram coordinates into serve and groundstroke outcomes.
//
// Coordinates are inches in a net-centred system: x runs along the net
// (positive toward the right sideline as rendered), y runs along the court
// (positive toward the near baseline). All classification is stateless and
// degrades gracefully for out-of-range input rather than erroring.
package court

// Court dimensions in inches.
const (
	// CourtWidthIn is the doubles court width (36 ft).
	CourtWidthIn = 432.0
	// CourtLengthIn is the full court length used for diagram mapping (78 ft).
	// Older diagrams were rendered against a 780in length; see the calibration config
	// for the per-deployment override.
	CourtLengthIn = 936.0

	// ServeMaxX is the widest x still counted as an in serve.
	ServeMaxX = 157.0
	// ServeMinY and ServeMaxY bound the near half's in-serve depth. The far
	// half uses the mirrored negative range.
	ServeMinY = 10.0
	ServeMaxY = 245.0

	// Zone band boundaries trisect the service box half-width.
	ZoneInnerX = 52.0
	ZoneOuterX = 105.0

	// SidelineX and BaselineY bound in-play groundstrokes.
	SidelineX = 157.0
	BaselineY = 455.0
)

// Side is the service box a point is played to.
type Side string

const (
	SideDeuce Side = "Deuce"
	SideAd    Side = "Ad"
)

// End is the baseline the server occupies relative to the camera.
type End string

const (
	EndNear End = "Near"
	EndFar  End = "Far"
)

// ServeZone is the horizontal third of the service box a serve lands in.
type ServeZone string

const (
	ZoneWide ServeZone = "Wide"
	ZoneBody ServeZone = "Body"
	ZoneT    ServeZone = "T"
)

// Direction classifies a groundstroke's travel relative to the centre line.
type Direction string

const (
	DirectionDownTheLine Direction = "Down the Line"
	DirectionCrosscourt  Direction = "Crosscourt"
)

// ErrorKind classifies where a groundstroke missed, or ErrorNone if in play.
type ErrorKind string

const (
	ErrorNone      ErrorKind = ""
	ErrorNet       ErrorKind = "Net"
	ErrorWideLeft  ErrorKind = "WideLeft"
	ErrorWideRight ErrorKind = "WideRight"
	ErrorLong      ErrorKind = "Long"
)

// ServeResult is the classification of one serve click.
type ServeResult struct {
	Zone ServeZone
	In   bool
}

// GroundstrokeResult is the classification of one shot-result click.
type GroundstrokeResult struct {
	Direction Direction
	Error     ErrorKind
}

// ClassifyServe maps a serve landing coordinate to its zone and in/out call.
//
// The zone bands mirror between deuce/ad and near/far because the target box
// flips: Near+Deuce and Far+Ad share one mapping, Near+Ad and Far+Deuce the
// other, with T always the band nearest the centre line. A click outside the
// serviceable x range still yields the nearest Wide/T zone but is out.
func ClassifyServe(x, y float64, side Side, end End) ServeResult {
	in := x >= -ServeMaxX && x <= ServeMaxX && serveDepthIn(y, end)

	// Near+Deuce targets the negative-x box; Far+Ad sees the same box
	// because the camera flips left/right with the server's end.
	negativeBox := (end == EndNear && side == SideDeuce) || (end == EndFar && side == SideAd)

	var zone ServeZone
	if negativeBox {
		switch {
		case x < -ZoneOuterX:
			zone = ZoneWide
		case x < -ZoneInnerX:
			zone = ZoneBody
		default:
			zone = ZoneT
		}
	} else {
		switch {
		case x > ZoneOuterX:
			zone = ZoneWide
		case x > ZoneInnerX:
			zone = ZoneBody
		default:
			zone = ZoneT
		}
	}

	return ServeResult{Zone: zone, In: in}
}

func serveDepthIn(y float64, end End) bool {
	if end == EndFar {
		return y >= -ServeMaxY && y <= -ServeMinY
	}
	return y >= ServeMinY && y <= ServeMaxY
}

// ClassifyGroundstroke determines a shot's direction from contact and result
// positions, and whether the result was an error.
//
// Direction compares which side of the centre line contact and result fall
// on: the same side is down the line, opposite sides crosscourt. Error tests
// mirror by which half the contact occurred in: a result that never crossed
// the net is a net error, beyond the sidelines wide, beyond the far baseline
// long.
func ClassifyGroundstroke(contactX, contactY, resultX, resultY float64) GroundstrokeResult {
	var dir Direction
	if (contactX >= 0) == (resultX >= 0) {
		dir = DirectionDownTheLine
	} else {
		dir = DirectionCrosscourt
	}

	res := GroundstrokeResult{Direction: dir, Error: ErrorNone}

	if contactY >= 0 {
		// Contact in the near half: the result must cross into negative y.
		switch {
		case resultY >= 0:
			res.Error = ErrorNet
		case resultX < -SidelineX:
			res.Error = ErrorWideLeft
		case resultX > SidelineX:
			res.Error = ErrorWideRight
		case resultY < -BaselineY:
			res.Error = ErrorLong
		}
		return res
	}

	switch {
	case resultY <= 0:
		res.Error = ErrorNet
	case resultX < -SidelineX:
		res.Error = ErrorWideLeft
	case resultX > SidelineX:
		res.Error = ErrorWideRight
	case resultY > BaselineY:
		res.Error = ErrorLong
	}
	return res
}

// SideOfContact derives which service box a rally contact corresponds to.
// The deuce/ad halves mirror between the near and far courts.
func SideOfContact(x, y float64) Side {
	if y >= 0 {
		if x < 0 {
			return SideDeuce
		}
		return SideAd
	}
	if x < 0 {
		return SideAd
	}
	return SideDeuce
}

// Diagram maps pixel positions on a rendered court diagram to court inches.
// Width and Height are the rendered bounding box in pixels; LengthIn allows
// deployments calibrated against older 780in diagrams to keep their data
// consistent.
type Diagram struct {
	Width    float64
	Height   float64
	LengthIn float64
}

// ToCourt converts a pixel click to net-centred inches. A zero-size diagram
// maps everything to the origin rather than dividing by zero.
func (d Diagram) ToCourt(px, py float64) (x, y float64) {
	if d.Width <= 0 || d.Height <= 0 {
		return 0, 0
	}
	length := d.LengthIn
	if length <= 0 {
		length = CourtLengthIn
	}
	x = (px/d.Width - 0.5) * CourtWidthIn
	y = (0.5 - py/d.Height) * length
	return x, y
}
