// Package report embeds captured media into test result artifacts.
package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/devicelab-dev/appium-vision/pkg/core"
	"github.com/devicelab-dev/appium-vision/pkg/logger"
)

// DefaultVideoWidth is the embed width used when the attachment does not set one.
const DefaultVideoWidth = 480

// Sink accepts media attachments and embeds them into a results artifact.
type Sink interface {
	Attach(att core.Attachment) error
}

var videoTemplate = template.Must(template.New("video").Parse(
	`<b>{{.Title}}</b><br>
<video width="{{.Width}}" controls>
  <source src="{{.Path}}" type="{{.ContentType}}">
</video>
`))

var imageTemplate = template.Must(template.New("image").Parse(
	`<b>{{.Title}}</b><br>
<img src="{{.Path}}" alt="{{.Name}}">
`))

// HTMLSink appends embed markup to attachments.html in the output directory,
// where the results viewer inlines it.
type HTMLSink struct {
	outputDir string
}

var _ Sink = (*HTMLSink)(nil)

// NewHTMLSink creates a sink writing into outputDir.
func NewHTMLSink(outputDir string) *HTMLSink {
	return &HTMLSink{outputDir: outputDir}
}

// Attach embeds the attachment. A missing media file is logged and skipped
// rather than failing the test, matching best-effort evidence collection.
func (s *HTMLSink) Attach(att core.Attachment) error {
	if _, err := os.Stat(att.Path); err != nil {
		logger.Warn("attachment media not found, skipping: %s", att.Path)
		return nil
	}

	markup, err := Render(att)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(s.outputDir, "attachments.html")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //#nosec G304 -- under configured output dir
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(markup)
	return err
}

// Render produces the embed markup for an attachment.
func Render(att core.Attachment) (string, error) {
	if att.Title == "" {
		att.Title = att.Name
	}

	var sb strings.Builder
	switch {
	case strings.HasPrefix(att.ContentType, "video/"):
		if att.Width <= 0 {
			att.Width = DefaultVideoWidth
		}
		if err := videoTemplate.Execute(&sb, att); err != nil {
			return "", err
		}
	case strings.HasPrefix(att.ContentType, "image/"):
		if err := imageTemplate.Execute(&sb, att); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unsupported attachment content type: %s", att.ContentType)
	}
	return sb.String(), nil
}
