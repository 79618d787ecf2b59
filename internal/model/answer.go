package model

import "time"

// DefaultConfidence is reported with every answer. Backends do not return a
// calibrated confidence, so the value is a constant.
const DefaultConfidence = 0.85

// Answer is the response to a question about a document.
type Answer struct {
	Answer          string  `json:"answer"`
	Justification   string  `json:"justification"`
	HighlightedText string  `json:"highlighted_text"`
	Confidence      float64 `json:"confidence"`
}

// Evaluation is the graded result of a user's answer to a challenge question.
type Evaluation struct {
	Score         float64 `json:"score"`
	Feedback      string  `json:"feedback"`
	CorrectAnswer string  `json:"correct_answer"`
	Justification string  `json:"justification"`
}

// UploadResult is returned after a document is ingested.
type UploadResult struct {
	SessionID  string    `json:"session_id"`
	Summary    string    `json:"summary"`
	Content    string    `json:"content"`
	Filename   string    `json:"filename"`
	UploadTime time.Time `json:"upload_time"`
}
