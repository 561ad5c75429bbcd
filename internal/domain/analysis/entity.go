package analysis

// Result is the structured analysis returned by the AI endpoint for one video.
type Result struct {
	Title           string           `json:"title"`
	Original        Original         `json:"original"`
	Keys            []Key            `json:"keys"`
	Script          []Scene          `json:"script"`
	Recommendations []Recommendation `json:"recommendations"`
	IsDemoMode      bool             `json:"isDemoMode,omitempty"`
}

type Original struct {
	Transcription string `json:"transcription"`
	Translation   string `json:"translation"`
}

// Key is one "success key" explaining why the video works.
type Key struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Scene is one row of the reproduction script.
type Scene struct {
	Time   string `json:"time"`
	Visual string `json:"visual"`
	Text   string `json:"text"`
	Note   string `json:"note"`
}

type Recommendation struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// Upload is a video handed in by a user for analysis.
type Upload struct {
	UserID   string
	Filename string
	MIMEType string
	Data     []byte
}
