package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldValue is an annotation value: string, number, boolean or null.
// It round-trips through JSON without a type tag.
type FieldValue struct {
	value interface{}
}

func StringValue(s string) FieldValue  { return FieldValue{value: s} }
func NumberValue(n float64) FieldValue { return FieldValue{value: n} }
func BoolValue(b bool) FieldValue      { return FieldValue{value: b} }
func NullValue() FieldValue            { return FieldValue{} }

// String returns the string form and whether the value is a string
func (v FieldValue) String() (string, bool) {
	s, ok := v.value.(string)
	return s, ok
}

// Number returns the numeric form and whether the value is a number
func (v FieldValue) Number() (float64, bool) {
	n, ok := v.value.(float64)
	return n, ok
}

// Bool returns the boolean form and whether the value is a boolean
func (v FieldValue) Bool() (bool, bool) {
	b, ok := v.value.(bool)
	return b, ok
}

// IsNull reports whether the value is JSON null
func (v FieldValue) IsNull() bool {
	return v.value == nil
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.value)
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.(type) {
	case string, float64, bool, nil:
		v.value = raw
		return nil
	default:
		return fmt.Errorf("field value must be a string, number, boolean or null")
	}
}

// MediaType is the MIME type of attached media
type MediaType string

const (
	MediaTypeJPEG MediaType = "image/jpeg"
	MediaTypePNG  MediaType = "image/png"
	MediaTypeGIF  MediaType = "image/gif"
	MediaTypeMP4  MediaType = "video/mp4"
)

// Ext returns the file extension used in storage keys and ZIP entries
func (m MediaType) Ext() string {
	switch m {
	case MediaTypeJPEG:
		return "jpg"
	case MediaTypePNG:
		return "png"
	case MediaTypeGIF:
		return "gif"
	case MediaTypeMP4:
		return "mp4"
	}
	// fall back to the MIME subtype
	if _, sub, ok := strings.Cut(string(m), "/"); ok && sub != "" {
		return sub
	}
	return "bin"
}

// EventSource identifies the producing client platform
type EventSource string

const (
	EventSourceWeb    EventSource = "web"
	EventSourceMobile EventSource = "mobile"
)

// EventAnnotation is a single labeled observation within an event
type EventAnnotation struct {
	LabelID   string     `json:"labelId"`
	Value     FieldValue `json:"value"`
	Timestamp time.Time  `json:"timestamp"`
}

// EventMedia is base64-encoded media attached to an event
type EventMedia struct {
	Type         MediaType `json:"type"`
	Data         string    `json:"data"`
	Name         string    `json:"name"`
	Size         uint64    `json:"size"`
	LastModified uint64    `json:"lastModified"`
}

// EventMetadata describes when and where the event was produced
type EventMetadata struct {
	CreatedAt time.Time   `json:"createdAt"`
	CreatedBy *string     `json:"createdBy"`
	Source    EventSource `json:"source"`
}

// EventPackage is the complete client-submitted event
type EventPackage struct {
	ID          uuid.UUID         `json:"id"`
	Version     string            `json:"version"`
	Annotations []EventAnnotation `json:"annotations"`
	Media       *EventMedia       `json:"media"`
	Metadata    EventMetadata     `json:"metadata"`
}

// ValidationResult collects structural validation failures
type ValidationResult struct {
	IsValid bool
	Errors  []string
}

// Validate checks the package structure. It does not verify signatures
// or decode media data.
func (p *EventPackage) Validate() ValidationResult {
	var errs []string

	if len(p.Annotations) == 0 {
		errs = append(errs, "event package must contain at least one annotation")
	}
	if p.Version == "" {
		errs = append(errs, "event package must have a version")
	}
	for i, a := range p.Annotations {
		if a.LabelID == "" {
			errs = append(errs, fmt.Sprintf("annotation %d must have a labelId", i))
		}
	}
	if p.Media != nil {
		if p.Media.Data == "" {
			errs = append(errs, "media data cannot be empty")
		}
		if p.Media.Name == "" {
			errs = append(errs, "media name cannot be empty")
		}
		if p.Media.Size == 0 {
			errs = append(errs, "media size must be greater than 0")
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// SignedEventEnvelope wraps an event package as a compact JWS signed by the
// submitting device
type SignedEventEnvelope struct {
	JWTEventData string `json:"jwtEventData"`
}

// EventPayload is the upload-complete notification body
type EventPayload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// ProcessingResult is returned after an event is stored
type ProcessingResult struct {
	EventID         uuid.UUID `json:"eventId"`
	Hash            string    `json:"hash"`
	StorageLocation string    `json:"storageLocation"`
	ProcessedAt     time.Time `json:"processedAt"`
}

// PackageProcessingResult is returned after an event is packaged and uploaded
// as a ZIP archive
type PackageProcessingResult struct {
	Status          string    `json:"status"`
	EventID         uuid.UUID `json:"eventId"`
	StorageLocation string    `json:"storageLocation"`
	ZipSize         int       `json:"zipSize"`
	ProcessedAt     time.Time `json:"processedAt"`
}
