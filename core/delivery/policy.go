package delivery

import (
	"errors"
	"fmt"
)

const (
	MiB = 1 << 20
	KiB = 1 << 10

	// MaxTransportCeiling is the largest raw message the supported sinks accept.
	MaxTransportCeiling = 10 * MiB

	DefaultMaxAttachmentBytes = 9 * MiB
	DefaultTransportCeiling   = MaxTransportCeiling
	DefaultMIMEOverhead       = 48 * KiB
)

// Limits bounds attachment delivery.
type Limits struct {
	// MaxAttachmentBytes caps the combined raw size of all assets.
	MaxAttachmentBytes int64
	// TransportCeiling caps the encoded message; the check is strict.
	TransportCeiling int64
	// MIMEOverhead is the allowance for headers, boundaries and bodies.
	MIMEOverhead int64
}

// DefaultLimits returns 9 MiB / 10 MiB / 48 KiB.
func DefaultLimits() Limits {
	return Limits{
		MaxAttachmentBytes: DefaultMaxAttachmentBytes,
		TransportCeiling:   DefaultTransportCeiling,
		MIMEOverhead:       DefaultMIMEOverhead,
	}
}

// Validate rejects non-positive limits and a ceiling above MaxTransportCeiling.
func (l Limits) Validate() error {
	var errs []error
	if l.MaxAttachmentBytes <= 0 {
		errs = append(errs, errors.New("max attachment bytes must be positive"))
	}
	if l.TransportCeiling <= 0 {
		errs = append(errs, errors.New("transport ceiling must be positive"))
	} else if l.TransportCeiling > MaxTransportCeiling {
		errs = append(errs, fmt.Errorf("transport ceiling %d exceeds provider limit %d", l.TransportCeiling, MaxTransportCeiling))
	}
	if l.MIMEOverhead < 0 {
		errs = append(errs, errors.New("mime overhead must not be negative"))
	}
	return errors.Join(errs...)
}

// EncodedSize is the base64 length of n raw bytes, before line wrapping.
func EncodedSize(n int64) int64 {
	return (n + 2) / 3 * 4
}

// Decide picks the delivery mode for metas. Attachments requires a recording,
// a combined raw size within MaxAttachmentBytes, and an encoded size plus
// overhead strictly below TransportCeiling. Anything else yields links.
func (l Limits) Decide(metas []AssetMeta) Mode {
	var (
		hasRecording bool
		combined     int64
		encoded      int64
	)
	for _, m := range metas {
		if m.Label == LabelRecording {
			hasRecording = true
		}
		if m.Size < 0 {
			return ModeLinks
		}
		combined += m.Size
		encoded += EncodedSize(m.Size)
	}

	if !hasRecording || combined > l.MaxAttachmentBytes {
		return ModeLinks
	}
	if encoded+l.MIMEOverhead >= l.TransportCeiling {
		return ModeLinks
	}
	return ModeAttachments
}
