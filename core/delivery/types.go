package delivery

import "time"

// Label names the role an asset plays in a delivery.
type Label string

const (
	LabelRecording     Label = "Recording"
	LabelTranscription Label = "Transcription"
)

// AssetRef is a caller-supplied object key with its role.
type AssetRef struct {
	Key   string
	Label Label
}

// AssetMeta is an AssetRef resolved against storage.
type AssetMeta struct {
	Key         string
	Label       Label
	Size        int64
	ContentType string
}

// Mode is how assets reach the recipient. A delivery never mixes modes.
type Mode string

const (
	ModeAttachments Mode = "attachments"
	ModeLinks       Mode = "links"
)

// DownloadLink is a presigned, time-limited URL for one asset.
type DownloadLink struct {
	Label     Label     `json:"label"`
	Key       string    `json:"key"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Request is the validated input of a delivery.
type Request struct {
	ToEmail          string
	RecordingKey     string
	TranscriptionKey string
}

// Refs returns the asset references present in the request, recording first.
func (r Request) Refs() []AssetRef {
	refs := make([]AssetRef, 0, 2)
	if r.RecordingKey != "" {
		refs = append(refs, AssetRef{Key: r.RecordingKey, Label: LabelRecording})
	}
	if r.TranscriptionKey != "" {
		refs = append(refs, AssetRef{Key: r.TranscriptionKey, Label: LabelTranscription})
	}
	return refs
}

// Result describes a dispatched delivery. Links is empty in attachments mode.
type Result struct {
	MessageID string
	ToEmail   string
	Mode      Mode
	Links     []DownloadLink
}
