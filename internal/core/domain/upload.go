package domain

import "time"

type UploadStatus string

const (
	UploadStatusStored     UploadStatus = "stored"
	UploadStatusSummarized UploadStatus = "summarized"
	UploadStatusFailed     UploadStatus = "failed"
)

// Upload is the persisted record of a user-submitted document.
type Upload struct {
	ID        string       `json:"id"`
	Filename  string       `json:"filename"`
	MimeType  string       `json:"mime_type"`
	Bucket    string       `json:"bucket"`
	Key       string       `json:"key"`
	URI       string       `json:"uri"`
	Summary   string       `json:"summary,omitempty"`
	Status    UploadStatus `json:"status"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type UploadResult struct {
	Upload  Upload `json:"upload"`
	Message string `json:"message"`
	Summary string `json:"summary"`
}

// UploadedEvent is published once an object lands in storage.
type UploadedEvent struct {
	UploadID string    `json:"upload_id"`
	URI      string    `json:"uri"`
	MimeType string    `json:"mime_type"`
	At       time.Time `json:"at"`
}
