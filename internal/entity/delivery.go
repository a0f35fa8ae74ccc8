package domain

// LatLng is a geographic coordinate pair. Interpolation treats each
// coordinate independently; no great-circle math for a demo courier.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Lerp returns the point a fraction p of the way from a to b.
// p is expected to be clamped to [0,1] by the caller.
func (a LatLng) Lerp(b LatLng, p float64) LatLng {
	return LatLng{
		Lat: a.Lat + (b.Lat-a.Lat)*p,
		Lng: a.Lng + (b.Lng-a.Lng)*p,
	}
}

// Stage is a fulfillment stage. Values are ordered; the tracker only ever
// moves forward.
type Stage int

const (
	StagePreparing Stage = iota
	StagePickedUp
	StageInTransit
	StageDelivered
)

func (s Stage) String() string {
	switch s {
	case StagePreparing:
		return "preparing"
	case StagePickedUp:
		return "picked_up"
	case StageInTransit:
		return "on_the_way"
	case StageDelivered:
		return "delivered"
	}
	return "unknown"
}

func (s Stage) Terminal() bool { return s == StageDelivered }

// Shop is the pickup side of a delivery, as supplied by the caller.
type Shop struct {
	Name     string
	Location LatLng
	ETALabel string // display string like "15-20 min"
}
