// Package precheck gives the customer an early, non-blocking warning when a
// chosen asset looks unsuitable for large-format output, before the costly
// upload begins. Everything here is advisory: the gate never blocks or
// rejects a submission.
package precheck

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/printgenie/orderflow/internal/errs"
)

// The check runs against a fixed assumed large-format target size; the
// customer cannot choose it yet.
const (
	DefaultTargetWidthInches  = 24.0
	DefaultTargetHeightInches = 36.0
)

// Judgement is the structured verdict of the external quality collaborator.
type Judgement struct {
	IsSufficient bool   `json:"isSufficient"`
	Warning      string `json:"warning,omitempty"`
}

// QualityJudge maps an image and a target print size to a resolution
// judgement. It may fail; failures are soft.
type QualityJudge interface {
	JudgeImage(ctx context.Context, image []byte, mimeType string, widthInches, heightInches float64) (Judgement, error)
}

// Result is what the submission form shows for one checked file.
type Result struct {
	// Token rises monotonically per gate so a slow check for a replaced
	// file can be discarded instead of flashing a stale warning.
	Token uint64 `json:"token"`
	// Checked is false when the file type skips the gate or the
	// collaborator failed.
	Checked bool `json:"checked"`
	// Warning is empty when the asset looks fine.
	Warning string `json:"warning,omitempty"`
	// PageCount is set for PDF files that could be probed.
	PageCount int `json:"pageCount,omitempty"`
}

// Gate runs the pre-upload quality check.
type Gate struct {
	judge        QualityJudge
	log          *slog.Logger
	seq          atomic.Uint64
	widthInches  float64
	heightInches float64
}

func NewGate(judge QualityJudge, log *slog.Logger) *Gate {
	return &Gate{
		judge:        judge,
		log:          log,
		widthInches:  DefaultTargetWidthInches,
		heightInches: DefaultTargetHeightInches,
	}
}

// Check inspects one candidate file. Image types are sent to the quality
// collaborator; PDFs get a local validity probe; everything else skips the
// gate. A collaborator failure is logged and swallowed, never surfaced and
// never treated as "insufficient".
func (g *Gate) Check(ctx context.Context, fileName, mimeType string, data []byte) Result {
	res := Result{Token: g.seq.Add(1)}

	switch {
	case strings.HasPrefix(mimeType, "image/"):
		j, err := g.judge.JudgeImage(ctx, data, mimeType, g.widthInches, g.heightInches)
		if err != nil {
			g.log.Warn("quality judgement unavailable, skipping warning",
				"file", fileName,
				"error", errs.NewAdvisoryServiceError("quality-judge", err))
			return res
		}
		res.Checked = true
		if !j.IsSufficient {
			res.Warning = j.Warning
			if res.Warning == "" {
				res.Warning = "Low resolution detected."
			}
		}
	case mimeType == "application/pdf":
		count, err := pdfPageCount(data)
		if err != nil {
			g.log.Warn("pdf probe failed, skipping warning", "file", fileName, "error", err)
			return res
		}
		res.Checked = true
		res.PageCount = count
		if count == 0 {
			res.Warning = "The PDF appears to contain no pages."
		}
	}
	return res
}

func pdfPageCount(data []byte) (int, error) {
	cfg := pdfmodel.NewDefaultConfiguration()
	cfg.ValidationMode = pdfmodel.ValidationRelaxed
	return api.PageCount(bytes.NewReader(data), cfg)
}
