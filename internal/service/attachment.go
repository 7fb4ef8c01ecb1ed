package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	_ "golang.org/x/image/webp"

	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/domain"
)

// Fetcher downloads an attachment body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type HTTPFetcher struct {
	httpClient *http.Client
	maxBytes   int64
}

func NewHTTPFetcher(httpClient *http.Client, maxBytes int64) *HTTPFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.FetchTimeout}
	}
	if maxBytes <= 0 {
		maxBytes = config.MaxAttachmentBytes
	}
	return &HTTPFetcher{httpClient: httpClient, maxBytes: maxBytes}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrFetchStatus, resp.StatusCode)
	}

	data, err := readAllWithLimit(resp.Body, f.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("read file data: %w", err)
	}
	return data, nil
}

func readAllWithLimit(reader io.Reader, maxBytes int64) ([]byte, error) {
	limited := &io.LimitedReader{R: reader, N: maxBytes + 1}
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: max %d bytes", domain.ErrAttachmentTooLarge, maxBytes)
	}
	return data, nil
}

// AttachmentRule turns a matching attachment into a fragment. Rules are
// tried in order and the first match wins.
type AttachmentRule struct {
	Name   string
	Match  func(att domain.Attachment) bool
	Handle func(s *AttachmentService, ctx context.Context, att domain.Attachment) (*domain.Fragment, error)
}

type AttachmentService struct {
	fetcher   Fetcher
	rules     []AttachmentRule
	textLimit int
	pdfPages  int
}

func NewAttachmentService(fetcher Fetcher) *AttachmentService {
	return &AttachmentService{
		fetcher:   fetcher,
		rules:     DefaultAttachmentRules(),
		textLimit: config.AttachmentTextLimit,
		pdfPages:  config.PDFMaxPages,
	}
}

// DefaultAttachmentRules: declared images, then known text files, then PDFs.
func DefaultAttachmentRules() []AttachmentRule {
	return []AttachmentRule{
		{
			Name: "image",
			Match: func(att domain.Attachment) bool {
				return strings.HasPrefix(att.ContentType, "image/")
			},
			Handle: (*AttachmentService).ingestImage,
		},
		{
			Name: "text",
			Match: func(att domain.Attachment) bool {
				return hasAnySuffix(att.Filename, config.TextFileExtensions)
			},
			Handle: (*AttachmentService).ingestText,
		},
		{
			Name: "pdf",
			Match: func(att domain.Attachment) bool {
				return strings.HasSuffix(att.Filename, ".pdf")
			},
			Handle: (*AttachmentService).ingestPDF,
		},
	}
}

// Classify names the rule that would handle att, or "" when it is ignored.
func (s *AttachmentService) Classify(att domain.Attachment) string {
	if rule := s.match(att); rule != nil {
		return rule.Name
	}
	return ""
}

func (s *AttachmentService) match(att domain.Attachment) *AttachmentRule {
	for i := range s.rules {
		if s.rules[i].Match(att) {
			return &s.rules[i]
		}
	}
	return nil
}

// Ingest converts one attachment. Unsupported attachments yield a nil
// fragment and no error.
func (s *AttachmentService) Ingest(ctx context.Context, att domain.Attachment) (*domain.Fragment, error) {
	rule := s.match(att)
	if rule == nil {
		return nil, nil
	}
	frag, err := rule.Handle(s, ctx, att)
	if err != nil {
		return nil, fmt.Errorf("%s attachment %s: %w", rule.Name, att.Filename, err)
	}
	return frag, nil
}

// IngestAll converts attachments in order and stops at the first failure.
func (s *AttachmentService) IngestAll(ctx context.Context, atts []domain.Attachment) ([]domain.Fragment, error) {
	var fragments []domain.Fragment
	for _, att := range atts {
		frag, err := s.Ingest(ctx, att)
		if err != nil {
			return nil, err
		}
		if frag != nil {
			fragments = append(fragments, *frag)
		}
	}
	return fragments, nil
}

func (s *AttachmentService) ingestImage(ctx context.Context, att domain.Attachment) (*domain.Fragment, error) {
	data, err := s.fetcher.Fetch(ctx, att.URL)
	if err != nil {
		return nil, err
	}
	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	frag := domain.ImageFragment(img)
	return &frag, nil
}

func (s *AttachmentService) ingestText(ctx context.Context, att domain.Attachment) (*domain.Fragment, error) {
	data, err := s.fetcher.Fetch(ctx, att.URL)
	if err != nil {
		return nil, err
	}
	text := truncateRunes(strings.ToValidUTF8(string(data), "�"), s.textLimit)
	frag := domain.TextFragment(fmt.Sprintf("[File: %s]\n%s", att.Filename, text))
	return &frag, nil
}

func (s *AttachmentService) ingestPDF(ctx context.Context, att domain.Attachment) (*domain.Fragment, error) {
	data, err := s.fetcher.Fetch(ctx, att.URL)
	if err != nil {
		return nil, err
	}
	text, err := extractPDFText(data, s.pdfPages)
	if err != nil {
		return nil, err
	}
	frag := domain.TextFragment(fmt.Sprintf("[PDF: %s]\n%s", att.Filename, truncateRunes(text, s.textLimit)))
	return &frag, nil
}

func decodeImage(data []byte) (*domain.Image, error) {
	pixels, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImageDecode, err)
	}
	return &domain.Image{
		Pixels:   pixels,
		Data:     data,
		MIMEType: "image/" + format,
		Format:   format,
	}, nil
}

type pageSource interface {
	NumPage() int
	PageText(num int) (string, error)
}

type pdfDocument struct {
	r *pdf.Reader
}

func (d pdfDocument) NumPage() int {
	return d.r.NumPage()
}

func (d pdfDocument) PageText(num int) (string, error) {
	page := d.r.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func extractPDFText(data []byte, maxPages int) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", domain.ErrPDFDecode, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPDFDecode, err)
	}
	return readPages(pdfDocument{r: r}, maxPages)
}

// readPages concatenates the text of pages 1..maxPages.
func readPages(doc pageSource, maxPages int) (string, error) {
	n := doc.NumPage()
	if n > maxPages {
		n = maxPages
	}
	var b strings.Builder
	for i := 1; i <= n; i++ {
		text, err := doc.PageText(i)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", domain.ErrPDFDecode, i, err)
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
