// Package core provides the shared execution model types for touch-replay.
package core

import "path/filepath"

// Attachment represents a verification artifact captured after a replay step
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: screenshot, hierarchy
	ContentType string `json:"contentType"` // MIME type: image/png, application/xml
	Path        string `json:"path"`        // File path on the host
	Body        []byte `json:"-"`           // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"
	AttachmentHierarchy  = "hierarchy"
)

// Common content types
const (
	ContentTypePNG  = "image/png"
	ContentTypeXML  = "application/xml"
	ContentTypeJSON = "application/json"
)

// NewScreenshotAttachment creates a screenshot attachment
func NewScreenshotAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentScreenshot,
		ContentType: ContentTypePNG,
		Path:        path,
		Body:        data,
	}
}

// NewHierarchyAttachment creates a UI hierarchy attachment.
// Content type follows the file extension (raw dump XML or snapshot JSON).
func NewHierarchyAttachment(path string, data []byte) Attachment {
	contentType := ContentTypeXML
	if filepath.Ext(path) == ".json" {
		contentType = ContentTypeJSON
	}
	return Attachment{
		Name:        AttachmentHierarchy,
		ContentType: contentType,
		Path:        path,
		Body:        data,
	}
}
