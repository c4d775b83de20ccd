package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a PDF contains no extractable text.
var ErrNoText = errors.New("pdf contains no extractable text")

// DocumentText is the plain text pulled out of a PDF.
type DocumentText struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
}

type PDFService struct {
	uploadDir string
}

func NewPDFService(uploadDir string) *PDFService {
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	return &PDFService{uploadDir: uploadDir}
}

// ExtractText reads the plain text of the PDF at path.
func (s *PDFService) ExtractText(path string) (*DocumentText, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return nil, fmt.Errorf("read pdf text: %w", err)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, ErrNoText
	}
	return &DocumentText{Text: text, Pages: numPages}, nil
}

// ExtractUpload stores src in the upload directory long enough to extract
// its text, then removes it.
func (s *PDFService) ExtractUpload(original string, src io.Reader) (*DocumentText, error) {
	if ext := strings.ToLower(filepath.Ext(original)); ext != ".pdf" {
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure upload dir: %w", err)
	}

	storedPath := filepath.Join(s.uploadDir, uuid.NewString()+".pdf")
	out, err := os.Create(storedPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer os.Remove(storedPath)

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return nil, fmt.Errorf("write file: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("close file: %w", err)
	}

	return s.ExtractText(storedPath)
}
