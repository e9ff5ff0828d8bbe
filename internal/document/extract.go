package document

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/lu4p/cat"
)

// extractors routes extensions to extraction functions.
var extractors = map[string]func(path string) (string, error){
	".txt":  extractPlain,
	".md":   extractPlain,
	".pdf":  extractPDF,
	".docx": extractCat,
	".odt":  extractCat,
	".rtf":  extractCat,
	".pptx": extractPPTX,
}

// extractPDF pulls plain text from every page of a PDF.
func extractPDF(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}

	var buf strings.Builder
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extracting page %d: %w", i, err)
		}
		buf.WriteString(text)
		if i < numPages {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}

// extractCat handles DOCX, ODT, and RTF via the cat library.
func extractCat(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		return "", fmt.Errorf("extracting document text: %w", err)
	}
	return text, nil
}

// atTag matches <a:t>text</a:t> runs in DrawingML slide XML.
var atTag = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

// extractPPTX pulls text runs from each slide of a PPTX package.
func extractPPTX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("opening PPTX package: %w", err)
	}
	defer func() {
		_ = zr.Close()
	}()

	// Slides come back in zip order; sort by name so slide1 precedes slide10.
	var slides []*zip.File
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f)
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].Name < slides[j].Name })

	var buf strings.Builder
	for _, f := range slides {
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("opening slide %s: %w", f.Name, err)
		}
		var slide bytes.Buffer
		_, err = slide.ReadFrom(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("reading slide %s: %w", f.Name, err)
		}

		for _, m := range atTag.FindAllSubmatch(slide.Bytes(), -1) {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.Write(m[1])
		}
	}
	return buf.String(), nil
}
