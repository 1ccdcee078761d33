package ocr

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rcliao/expiry-tracker/internal/dates"
)

// Candidate is one date-like substring and its normalized form.
type Candidate struct {
	Raw   string `json:"raw"`
	Date  string `json:"date,omitempty"`
	Error string `json:"error,omitempty"`
}

// ScanResult is the recognized text of one image with its date candidates.
type ScanResult struct {
	Source     string      `json:"source,omitempty"`
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Candidates []Candidate `json:"candidates"`
}

// Best returns the first candidate that normalized to a date.
func (s ScanResult) Best() (string, bool) {
	for _, c := range s.Candidates {
		if c.Date != "" {
			return c.Date, true
		}
	}
	return "", false
}

// Analyze extracts and normalizes date candidates from recognized text.
func Analyze(res Result) ScanResult {
	out := ScanResult{Text: res.Text, Confidence: res.Confidence, Candidates: []Candidate{}}
	for _, raw := range dates.ExtractCandidates(res.Text) {
		c := Candidate{Raw: raw}
		if d, err := dates.Normalize(raw); err != nil {
			c.Error = err.Error()
		} else {
			c.Date = d
		}
		out.Candidates = append(out.Candidates, c)
	}
	return out
}

// Scan recognizes img and analyzes its text.
func Scan(ctx context.Context, r Recognizer, img Image) (ScanResult, error) {
	res, err := r.Recognize(ctx, img)
	if err != nil {
		return ScanResult{}, fmt.Errorf("recognize: %w", err)
	}
	return Analyze(res), nil
}

// ScanFiles scans several image files with at most limit in flight.
// Results are in the order of paths; the first failure cancels the rest.
func ScanFiles(ctx context.Context, r Recognizer, paths []string, limit int) ([]ScanResult, error) {
	if limit <= 0 {
		limit = 1
	}
	results := make([]ScanResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			img, err := LoadImage(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			res, err := Scan(ctx, r, img)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			res.Source = path
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
