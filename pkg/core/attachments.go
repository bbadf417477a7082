package core

// Attachment represents a media artifact captured during a test run.
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: video, screenshot
	ContentType string `json:"contentType"` // MIME type: video/mp4, image/png
	Path        string `json:"path"`        // Local file path
	Title       string `json:"title"`       // Display title in the report
	Width       int    `json:"width"`       // Display width in pixels (media only)
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"
	AttachmentVideo      = "video"
)

// Common content types
const (
	ContentTypePNG = "image/png"
	ContentTypeMP4 = "video/mp4"
)

// NewVideoAttachment creates a screen recording attachment.
func NewVideoAttachment(path, title string, width int) Attachment {
	return Attachment{
		Name:        AttachmentVideo,
		ContentType: ContentTypeMP4,
		Path:        path,
		Title:       title,
		Width:       width,
	}
}

// NewScreenshotAttachment creates a screenshot attachment.
func NewScreenshotAttachment(path string) Attachment {
	return Attachment{
		Name:        AttachmentScreenshot,
		ContentType: ContentTypePNG,
		Path:        path,
	}
}
