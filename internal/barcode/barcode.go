// Package barcode reads product codes from a scanner and classifies them.
package barcode

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// Format names a barcode symbology.
type Format string

const (
	FormatEAN13   Format = "ean_13"
	FormatEAN8    Format = "ean_8"
	FormatUPCA    Format = "upc_a"
	FormatCode128 Format = "code_128"
	FormatUnknown Format = "unknown"
)

// Result is one detected code.
type Result struct {
	Code   string `json:"code"`
	Format Format `json:"format"`
}

// Scanner delivers detected codes until stopped.
type Scanner interface {
	// Start blocks until the scanner stops or fails. onDetect is called
	// for every code read.
	Start(ctx context.Context, onDetect func(Result)) error
	Stop()
}

// ErrStopped is returned by Start after Stop.
var ErrStopped = errors.New("scanner stopped")

// LineScanner reads newline-terminated codes, which is how USB scanners in
// keyboard mode deliver them.
type LineScanner struct {
	r io.Reader

	mu      sync.Mutex
	stopped bool
	stop    chan struct{}
}

// NewLineScanner returns a scanner reading from r.
func NewLineScanner(r io.Reader) *LineScanner {
	return &LineScanner{r: r, stop: make(chan struct{})}
}

// Start reads codes until EOF, ctx cancellation or Stop. Blank lines are
// ignored. EOF returns nil.
func (s *LineScanner) Start(ctx context.Context, onDetect func(Result)) error {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		sc := bufio.NewScanner(s.r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return ErrStopped
		case err := <-errc:
			return err
		case line := <-lines:
			code := strings.TrimSpace(line)
			if code == "" {
				continue
			}
			if s.isStopped() {
				return ErrStopped
			}
			onDetect(Result{Code: code, Format: Detect(code)})
		}
	}
}

// Stop ends Start. No callbacks run after Stop returns.
func (s *LineScanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.stop)
	}
}

func (s *LineScanner) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Detect classifies code by length and check digit. Codes that fail every
// numeric check but are printable ASCII are reported as Code 128.
func Detect(code string) Format {
	if isDigits(code) {
		switch len(code) {
		case 13:
			if validCheckDigit(code) {
				return FormatEAN13
			}
		case 8:
			if validCheckDigit(code) {
				return FormatEAN8
			}
		case 12:
			if validCheckDigit(code) {
				return FormatUPCA
			}
		}
	}
	if code != "" && isPrintableASCII(code) {
		return FormatCode128
	}
	return FormatUnknown
}

// validCheckDigit applies the GTIN check: weights 3 and 1 alternate from
// the digit left of the check digit.
func validCheckDigit(code string) bool {
	sum := 0
	n := len(code)
	for i := 0; i < n-1; i++ {
		d := int(code[n-2-i] - '0')
		if i%2 == 0 {
			sum += d * 3
		} else {
			sum += d
		}
	}
	check := (10 - sum%10) % 10
	return check == int(code[n-1]-'0')
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
