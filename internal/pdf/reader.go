package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	pdferrors "github.com/a3tai/tds-summarizer/internal/pdf/errors"
)

// Reader opens statement PDFs held in memory. Encrypted files are decrypted
// with pdfcpu first. Text comes from ledongthuc/pdf,
// page images for OCR come from pdfcpu's embedded image extraction.
type Reader struct {
	maxTextSize int
}

// NewReader creates a new PDF reader
func NewReader() *Reader {
	return &Reader{
		maxTextSize: 10 * 1024 * 1024, // 10MB per page
	}
}

// Open implements Opener
func (r *Reader) Open(data []byte, password string) (doc Document, err error) {
	if len(data) == 0 {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidInput, "empty PDF content")
	}

	defer func() {
		if rec := recover(); rec != nil {
			doc = nil
			err = fmt.Errorf("failed to open PDF: %v", rec)
		}
	}()

	plain, err := decrypt(data, password)
	if err != nil {
		return nil, err
	}
	if plain != nil {
		// pdfcpu removed the encryption; ledongthuc and the image
		// extractor work on the clear copy from here on.
		data, password = plain, ""
	}

	// ledongthuc keeps asking for passwords until the callback returns "",
	// so hand over the supplied one exactly once.
	offered := false
	pw := func() string {
		if offered {
			return ""
		}
		offered = true
		return password
	}

	pdfReader, err := pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), pw)
	if err != nil {
		if isPasswordError(err) {
			return nil, pdferrors.PasswordProtected(err)
		}
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	return &document{
		reader:      pdfReader,
		data:        data,
		password:    password,
		maxTextSize: r.maxTextSize,
	}, nil
}

// decrypt returns a decrypted copy of data when the document is encrypted and
// nil when it is not. A missing or wrong password yields PasswordProtected.
// Documents pdfcpu cannot parse for other reasons are left to ledongthuc.
func decrypt(data []byte, password string) ([]byte, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), cryptoConfig(password))
	if err != nil {
		if isPasswordError(err) {
			return nil, pdferrors.PasswordProtected(err)
		}
		return nil, nil
	}
	if ctx.Encrypt == nil {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(data), &buf, cryptoConfig(password)); err != nil {
		if isPasswordError(err) {
			return nil, pdferrors.PasswordProtected(err)
		}
		return nil, fmt.Errorf("failed to decrypt PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func cryptoConfig(password string) *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if password != "" {
		conf.UserPW = password
		conf.OwnerPW = password
	}
	return conf
}

func isPasswordError(err error) bool {
	if errors.Is(err, pdf.ErrInvalidPassword) || errors.Is(err, pdfcpu.ErrWrongPassword) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "password")
}

// document implements Document over one in-memory PDF
type document struct {
	reader      *pdf.Reader
	data        []byte
	password    string
	maxTextSize int
}

func (d *document) NumPages() int {
	return d.reader.NumPage()
}

// PageText rebuilds the page line by line from positioned text runs, so table
// rows survive as single lines.
func (d *document) PageText(pageNum int) (text string, err error) {
	if pageNum < 1 || pageNum > d.reader.NumPage() {
		return "", fmt.Errorf("invalid page number %d (document has %d pages)", pageNum, d.reader.NumPage())
	}

	defer func() {
		// ledongthuc panics on some malformed content streams
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("text extraction panicked on page %d: %v", pageNum, rec)
		}
	}()

	page := d.reader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		plain, plainErr := page.GetPlainText(nil)
		if plainErr != nil {
			return "", fmt.Errorf("failed to extract text: %w", err)
		}
		return d.limit(plain), nil
	}

	var builder strings.Builder
	for _, row := range rows {
		line := joinRow(row.Content)
		if strings.TrimSpace(line) == "" {
			continue
		}
		builder.WriteString(line)
		builder.WriteByte('\n')
	}

	return d.limit(builder.String()), nil
}

func (d *document) limit(text string) string {
	if len(text) > d.maxTextSize {
		return text[:d.maxTextSize]
	}
	return text
}

// joinRow concatenates the runs of one row, inserting a space wherever the
// horizontal gap between runs is wider than a fraction of the font size.
func joinRow(runs pdf.TextHorizontal) string {
	sorted := make([]pdf.Text, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var b strings.Builder
	var prevEnd float64
	for i, run := range sorted {
		if i > 0 {
			gap := run.X - prevEnd
			if gap > spaceWidth(run.FontSize) && !strings.HasSuffix(b.String(), " ") &&
				!strings.HasPrefix(run.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(run.S)

		width := run.W
		if width <= 0 {
			width = float64(len([]rune(run.S))) * run.FontSize * 0.5
		}
		prevEnd = run.X + width
	}
	return b.String()
}

func spaceWidth(fontSize float64) float64 {
	if fontSize <= 0 {
		return 1
	}
	return fontSize * 0.2
}

// PageImage returns the largest image embedded on the page. A scanned
// statement page is a single full-page image XObject.
func (d *document) PageImage(pageNum int) ([]byte, error) {
	pages, err := api.ExtractImagesRaw(bytes.NewReader(d.data), []string{strconv.Itoa(pageNum)}, cryptoConfig(d.password))
	if err != nil {
		return nil, fmt.Errorf("failed to extract images from page %d: %w", pageNum, err)
	}

	var best *model.Image
	for _, images := range pages {
		for objNr := range images {
			img := images[objNr]
			if img.PageNr != 0 && img.PageNr != pageNum {
				continue
			}
			if !ocrReadableFormat(img.FileType) {
				continue
			}
			if best == nil || img.Width*img.Height > best.Width*best.Height {
				best = &img
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("page %d has no image usable for OCR", pageNum)
	}

	data, err := io.ReadAll(best)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s on page %d: %w", best.Name, pageNum, err)
	}
	return data, nil
}

func ocrReadableFormat(fileType string) bool {
	switch strings.ToLower(fileType) {
	case "jpg", "jpeg", "png", "tif", "tiff":
		return true
	default:
		return false
	}
}

func (d *document) Close() error {
	return nil
}
