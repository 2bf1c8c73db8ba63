// Package upload validates and ships file batches to the drive API.
// A batch is all-or-nothing: validation rejects the whole batch before
// any bytes move, and a failed request marks every candidate failed.
package upload

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/ashvinparmar897/atc-drive-web/pkg/gateway"
	"github.com/ashvinparmar897/atc-drive-web/pkg/logging"
	"github.com/ashvinparmar897/atc-drive-web/pkg/models"
)

// Batch limits. Both are enforced client-side before any network call.
const (
	MaxFileSize   = 100 << 20 // bytes per file
	MaxBatchFiles = 100
)

// Status tracks one candidate through the batch lifecycle.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Candidate is one file queued for upload.
type Candidate struct {
	Name      string
	Path      string
	SizeBytes int64
	Status    Status
	Err       string
}

// Uploader is the gateway slice the orchestrator needs.
type Uploader interface {
	UploadBatch(ctx context.Context, folderID, contentType string, body io.Reader) ([]models.File, error)
}

// allowedExtensions is the upload allow-list, keyed by lowercase
// extension including the dot.
var allowedExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".txt": true, ".csv": true, ".md": true,
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".svg": true, ".bmp": true, ".mp4": true, ".mov": true, ".avi": true,
	".mp3": true, ".wav": true, ".zip": true, ".tar": true, ".gz": true,
	".json": true, ".xml": true, ".html": true,
}

// Orchestrator builds and ships one multipart batch per call.
type Orchestrator struct {
	uploader Uploader

	maxFileSize int64
	maxBatch    int

	// progress reports overall batch progress as a byte percentage.
	progress func(percent float64, sent, total int64)

	// onComplete fires after a successful batch so the directory view
	// can refresh its listing.
	onComplete func()
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProgress installs the progress callback.
func WithProgress(fn func(percent float64, sent, total int64)) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// WithOnComplete installs the post-success callback.
func WithOnComplete(fn func()) Option {
	return func(o *Orchestrator) { o.onComplete = fn }
}

// WithLimits overrides the batch limits. Zero values keep the defaults.
func WithLimits(maxFileSize int64, maxBatch int) Option {
	return func(o *Orchestrator) {
		if maxFileSize > 0 {
			o.maxFileSize = maxFileSize
		}
		if maxBatch > 0 {
			o.maxBatch = maxBatch
		}
	}
}

// New creates an orchestrator over the given uploader.
func New(uploader Uploader, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		uploader:    uploader,
		maxFileSize: MaxFileSize,
		maxBatch:    MaxBatchFiles,
		progress:    func(float64, int64, int64) {},
		onComplete:  func() {},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewCandidates stats each path and builds the pending batch.
func NewCandidates(paths []string) ([]Candidate, error) {
	candidates := make([]Candidate, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", p)
		}
		candidates = append(candidates, Candidate{
			Name:      filepath.Base(p),
			Path:      p,
			SizeBytes: info.Size(),
			Status:    StatusPending,
		})
	}
	return candidates, nil
}

// Validate checks the batch against the limits and the type allow-list.
// Order is batch count, then per-file size, then type, and the first
// violation fails the whole batch with the offending file named.
func (o *Orchestrator) Validate(candidates []Candidate) error {
	if len(candidates) == 0 {
		return fmt.Errorf("nothing to upload")
	}
	if len(candidates) > o.maxBatch {
		return fmt.Errorf("too many files: %d exceeds the batch limit of %d", len(candidates), o.maxBatch)
	}
	for i := range candidates {
		if candidates[i].SizeBytes > o.maxFileSize {
			return fmt.Errorf("%s is too large: %d bytes exceeds the %d byte limit",
				candidates[i].Name, candidates[i].SizeBytes, o.maxFileSize)
		}
	}
	for i := range candidates {
		ext := strings.ToLower(filepath.Ext(candidates[i].Name))
		if !allowedExtensions[ext] {
			return fmt.Errorf("%s has an unsupported file type", candidates[i].Name)
		}
	}
	return nil
}

// countingReader counts raw file bytes into a shared batch total and
// reports progress on each read.
type countingReader struct {
	r      io.Reader
	sent   *atomic.Int64
	total  int64
	report func(percent float64, sent, total int64)
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		sent := cr.sent.Add(int64(n))
		percent := 0.0
		if cr.total > 0 {
			percent = float64(sent) / float64(cr.total) * 100
		}
		cr.report(percent, sent, cr.total)
	}
	return n, err
}

// Upload validates candidates and ships them to folderID as a single
// multipart batch. Every candidate flips to success together, or every
// candidate flips to error together; there is no partial outcome.
func (o *Orchestrator) Upload(ctx context.Context, folderID string, candidates []Candidate) ([]models.File, error) {
	if err := o.Validate(candidates); err != nil {
		return nil, err
	}

	var (
		total int64
		sent  atomic.Int64
	)
	for i := range candidates {
		total += candidates[i].SizeBytes
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := o.writeBatch(mw, candidates, &sent, total)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	files, err := o.uploader.UploadBatch(ctx, folderID, mw.FormDataContentType(), pr)
	if err != nil {
		for i := range candidates {
			candidates[i].Status = StatusError
			candidates[i].Err = gateway.UserMessage(err)
		}
		logging.Error("batch upload failed",
			logging.String("folder_id", folderID),
			logging.Int("files", len(candidates)),
			logging.Err(err))
		return nil, err
	}

	for i := range candidates {
		candidates[i].Status = StatusSuccess
		candidates[i].Err = ""
	}
	logging.Info("batch upload complete",
		logging.String("folder_id", folderID),
		logging.Int("files", len(candidates)),
		logging.Int64("bytes", total))

	o.onComplete()
	return files, nil
}

// writeBatch streams every candidate into the multipart writer, counting
// raw file bytes for progress.
func (o *Orchestrator) writeBatch(mw *multipart.Writer, candidates []Candidate, sent *atomic.Int64, total int64) error {
	for i := range candidates {
		f, err := os.Open(candidates[i].Path)
		if err != nil {
			return fmt.Errorf("open %s: %w", candidates[i].Name, err)
		}

		part, err := createFilePart(mw, candidates[i].Name)
		if err != nil {
			f.Close()
			return err
		}

		cr := &countingReader{r: f, sent: sent, total: total, report: o.progress}
		if _, err := io.Copy(part, cr); err != nil {
			f.Close()
			return fmt.Errorf("read %s: %w", candidates[i].Name, err)
		}
		f.Close()
	}
	return nil
}

// createFilePart adds a form file part with the content type derived
// from the filename extension.
func createFilePart(mw *multipart.Writer, filename string) (io.Writer, error) {
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="files"; filename="%s"`, escapeQuotes(filename)))
	header.Set("Content-Type", contentType)
	return mw.CreatePart(header)
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
