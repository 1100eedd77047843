// Package documents validates files locally before they are uploaded to the
// conversation service.
package documents

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Info summarizes a local document prior to upload.
type Info struct {
	Path      string
	Name      string
	SizeBytes int64
	Pages     int
	Words     int
	Preview   string
}

const previewLimit = 400

// Inspector checks candidate upload files.
type Inspector struct{}

// NewInspector creates a new document inspector.
func NewInspector() *Inspector {
	return &Inspector{}
}

// Inspect opens the file and extracts basic facts: page count, word count,
// and a first-page text preview. An unreadable or non-PDF file fails here
// before any network call happens.
func (ins *Inspector) Inspect(path string) (*Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	info := &Info{
		Path:      path,
		Name:      filepath.Base(path),
		SizeBytes: stat.Size(),
		Pages:     doc.NumPage(),
	}

	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			continue
		}
		info.Words += len(strings.Fields(text))
		if i == 0 {
			info.Preview = makePreview(text)
		}
	}

	return info, nil
}

// makePreview collapses whitespace and truncates first-page text for display.
func makePreview(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if len(collapsed) > previewLimit {
		collapsed = collapsed[:previewLimit] + "..."
	}
	return collapsed
}
