package task

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/phrazzld/candidate-api/internal/domain"
	"github.com/phrazzld/candidate-api/internal/platform/logger"
	"github.com/phrazzld/candidate-api/internal/platform/mailer"
)

// Report e-mail content.
const (
	ReportEmailSubject = "Your Compressed Candidate Report"
	ReportEmailBody    = "<p>Hello,</p><p>Attached is your candidate report in compressed format.</p>"
)

// reportHeader is the first row of every report.
var reportHeader = []string{"ID", "Name", "Email", "Experience", "Is Verified"}

// CandidateSource streams candidates for report generation.
type CandidateSource interface {
	Each(ctx context.Context, batchSize int, fn func(*domain.Candidate) error) error
}

// ReportPayload is the payload of a generate_and_send_report job.
type ReportPayload struct {
	RecipientEmail string `json:"recipient_email"`
}

// ReportHandler writes every candidate to a CSV file, compresses it and
// e-mails the archive to the requester.
type ReportHandler struct {
	candidates CandidateSource
	mailer     Mailer
	dir        string
	batchSize  int
	now        func() time.Time
}

// NewReportHandler creates a ReportHandler writing its files under dir.
func NewReportHandler(candidates CandidateSource, m Mailer, dir string, batchSize int) *ReportHandler {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &ReportHandler{
		candidates: candidates,
		mailer:     m,
		dir:        dir,
		batchSize:  batchSize,
		now:        time.Now,
	}
}

// Handle implements Handler.
func (h *ReportHandler) Handle(ctx context.Context, job *Job) error {
	var p ReportPayload
	if err := job.Decode(&p); err != nil {
		return err
	}
	if strings.TrimSpace(p.RecipientEmail) == "" {
		return Permanent(fmt.Errorf("%w: recipient_email is required", ErrInvalidPayload))
	}

	log := logger.FromContext(ctx)

	if err := os.MkdirAll(h.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	csvPath := filepath.Join(h.dir, h.reportName(job.ID)+".csv")
	gzPath := csvPath + ".gz"

	rows, err := h.writeCSV(ctx, csvPath)
	if err != nil {
		removeQuietly(csvPath)
		return err
	}

	if err := compressFile(csvPath, gzPath); err != nil {
		removeQuietly(csvPath, gzPath)
		return err
	}

	msg := mailer.Message{
		To:          []string{p.RecipientEmail},
		Subject:     ReportEmailSubject,
		HTMLBody:    ReportEmailBody,
		Attachments: []string{gzPath},
	}
	if err := h.mailer.Send(ctx, msg); err != nil {
		// A retry regenerates the report from scratch.
		removeQuietly(csvPath, gzPath)
		return classifyMailError(fmt.Errorf("failed to send report: %w", err))
	}

	if err := os.Remove(csvPath); err != nil {
		log.Warn("failed to remove raw report", "error", err)
	}

	log.Info("report sent", "rows", rows, "archive", filepath.Base(gzPath))
	return nil
}

func (h *ReportHandler) reportName(jobID string) string {
	name := "candidate_report_" + h.now().UTC().Format("20060102150405")
	if len(jobID) > 8 {
		jobID = jobID[:8]
	}
	if jobID != "" {
		name += "_" + jobID
	}
	return name
}

// writeCSV writes the header and one row per candidate, returning the row count.
func (h *ReportHandler) writeCSV(ctx context.Context, path string) (int, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(reportHeader); err != nil {
		return 0, fmt.Errorf("failed to write report header: %w", err)
	}

	rows := 0
	err = h.candidates.Each(ctx, h.batchSize, func(c *domain.Candidate) error {
		rows++
		return w.Write([]string{
			c.ID,
			c.Name,
			c.Email,
			strconv.Itoa(c.Experience),
			strconv.FormatBool(c.IsVerified),
		})
	})
	if err != nil {
		return rows, fmt.Errorf("failed to stream candidates: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return rows, fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Sync(); err != nil {
		return rows, fmt.Errorf("failed to flush report: %w", err)
	}
	return rows, nil
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open report: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	zw, err := gzip.NewWriterLevel(out, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}
	zw.Name = filepath.Base(src)

	if _, err := io.Copy(zw, in); err != nil {
		return fmt.Errorf("failed to compress report: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return out.Close()
}

func removeQuietly(paths ...string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
