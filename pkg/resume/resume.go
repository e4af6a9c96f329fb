// Package resume extracts plain text from uploaded resume files so the
// analyzer can fold it into the candidate context.
package resume

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Supported mime types.
const (
	MimeText = "text/plain"
	MimePDF  = "application/pdf"
	MimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ExtractText returns the plain text of a resume file. The mime type
// selects the decoder; unsupported types are an error.
func ExtractText(mime string, data []byte) (string, error) {
	switch mime {
	case MimeText:
		return string(data), nil

	case MimePDF:
		return extractPDF(data)

	case MimeDocx:
		return extractDocx(data)

	default:
		return "", fmt.Errorf("unsupported file type: %s", mime)
	}
}

// DetectMime guesses the mime type from the file name, falling back to
// content sniffing when the extension is unknown.
func DetectMime(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDocx
	case ".txt", ".md":
		return MimeText
	}

	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return MimePDF
	}
	// docx files are zip archives.
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return MimeDocx
	}
	return MimeText
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

func extractDocx(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	return stripTags(doc.Editable().GetContent()), nil
}

var (
	paragraphClose = regexp.MustCompile(`</w:p>`)
	xmlTag         = regexp.MustCompile(`<[^>]+>`)
)

// stripTags flattens the word-processing XML body to text, one line
// per paragraph.
func stripTags(content string) string {
	content = paragraphClose.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}
