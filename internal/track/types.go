package track

import "github.com/ilpeppino/scanium-sub009/internal/geom"

// Category labels the broad product class a detector assigns to a box.
// The set is open: the tracker and deduplicator only ever compare
// categories for equality.
type Category string

// Categories emitted by the reference detector.
const (
	CategoryUnknown     Category = "unknown"
	CategoryFashion     Category = "fashion"
	CategoryElectronics Category = "electronics"
	CategoryHome        Category = "home"
	CategoryToys        Category = "toys"
)

// Thumbnail is a small pixel crop of a detection, used downstream for
// similarity checks and UI display. Data is raw encoded bytes; MIMEType
// names the encoding.
type Thumbnail struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// DetectionInfo is a single raw detection within one frame. It is
// ephemeral: the tracker copies what it needs and never retains the
// struct across frames.
type DetectionInfo struct {
	// TrackingID is the vendor tracker's identity for this box.
	// Empty when the upstream detector lost or never assigned one;
	// such detections rely purely on spatial matching.
	TrackingID string `json:"tracking_id,omitempty"`

	Box        geom.NormalizedRect `json:"box"`
	Confidence float64             `json:"confidence"`
	Category   Category            `json:"category"`
	Label      string              `json:"label,omitempty"`
	Thumbnail  *Thumbnail          `json:"thumbnail,omitempty"`
}

// Area returns the normalized area of the detection's bounding box.
func (d DetectionInfo) Area() float64 { return d.Box.Area() }
