package model

import "time"

// Session is the server-side record of one uploaded document and its
// conversation history.
type Session struct {
	Key          string    `json:"session_id"`
	DocumentText string    `json:"document_text"`
	Filename     string    `json:"filename"`
	UploadedAt   time.Time `json:"upload_time"`
	Summary      string    `json:"summary"`
	Turns        []Turn    `json:"turns,omitempty"`
}

// Turn is one question/answer exchange within a session.
type Turn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"timestamp"`
}

// SessionSummary is the listing view of a session.
type SessionSummary struct {
	Key        string    `json:"session_id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"upload_time"`
}

// Listing returns the listing view of s.
func (s Session) Listing() SessionSummary {
	return SessionSummary{Key: s.Key, Filename: s.Filename, UploadedAt: s.UploadedAt}
}

// Clone returns a deep copy of s so callers never alias stored history.
func (s Session) Clone() Session {
	out := s
	if s.Turns != nil {
		out.Turns = make([]Turn, len(s.Turns))
		copy(out.Turns, s.Turns)
	}
	return out
}

// RecentTurns returns at most n of the most recent turns, oldest first.
func (s Session) RecentTurns(n int) []Turn {
	if n <= 0 || len(s.Turns) == 0 {
		return nil
	}
	if len(s.Turns) <= n {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}
