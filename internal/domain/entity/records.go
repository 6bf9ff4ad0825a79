package entity

// VideoReference identifies a video resource, usually a gs:// URI.
type VideoReference string

func (v VideoReference) String() string {
	return string(v)
}

type ShotRecord struct {
	StartTime float64 `json:"start_time" bigquery:"start_time"`
	EndTime   float64 `json:"end_time" bigquery:"end_time"`
}

type Vertex struct {
	X float64 `json:"x" bigquery:"x"`
	Y float64 `json:"y" bigquery:"y"`
}

// TextRecord describes one detected text occurrence. Only the first segment
// of the detection and the first frame of that segment are represented.
type TextRecord struct {
	Text       string   `json:"text" bigquery:"text"`
	StartTime  float64  `json:"start_time" bigquery:"start_time"`
	EndTime    float64  `json:"end_time" bigquery:"end_time"`
	Confidence float64  `json:"confidence" bigquery:"confidence"`
	TimeOffset float64  `json:"time_offset" bigquery:"time_offset"`
	Vertices   []Vertex `json:"vertices" bigquery:"vertices"`
}

type MetadataRecord struct {
	Width     int     `json:"width" bigquery:"width"`
	Height    int     `json:"height" bigquery:"height"`
	Duration  float64 `json:"duration" bigquery:"duration"`
	FrameRate float64 `json:"frame_rate" bigquery:"frame_rate"`
}

// TableRow is a record decoded from a staged artifact, keyed by column name.
type TableRow map[string]any

// VideoColumn is the column injected into every loaded row.
const VideoColumn = "video"
