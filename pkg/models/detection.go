package models

// FogDetectionResponse is the terminal result of analyzing one frame.
// It is created once per analysis and never mutated afterwards; the JSON
// field names form the wire contract with the frontend.
type FogDetectionResponse struct {
	LaplacianVariance      float64   `json:"laplacian_variance"`
	HistogramStdDev        float64   `json:"histogram_std_dev"`
	FogDetected            bool      `json:"fog_detected"`
	Intensity              string    `json:"intensity"`
	Advice                 string    `json:"advice"`
	Message                string    `json:"message"`
	Timestamp              string    `json:"timestamp"`
	LaplacianThresholdUsed float64   `json:"laplacian_threshold_used"`
	StdDevThresholdUsed    float64   `json:"std_dev_threshold_used"`
	Histogram              []float64 `json:"histogram"`
}

// StreamUpdate is pushed to the display boundary once per processed frame.
type StreamUpdate struct {
	Result      FogDetectionResponse `json:"result"`
	StatusText  string               `json:"status_text"`
	FrameIndex  int64                `json:"frame_index"`
	FrameWidth  int                  `json:"frame_width"`
	FrameHeight int                  `json:"frame_height"`
}

// ErrorResponse is the body returned for any failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
