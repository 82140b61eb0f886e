// Package scorer runs the external CoNLL scoring program and parses its
// report. The scorer is an out-of-process collaborator behind a narrow
// file-in/file-out interface; it is never trusted to terminate or to
// produce well-formed output.
package scorer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Report holds the aggregate metrics of one evaluation run, in percent.
type Report struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
}

// Scorer scores a rendered prediction file, writing the raw report to
// scorePath and returning the parsed metrics.
type Scorer interface {
	Score(ctx context.Context, predictionPath, scorePath string) (Report, error)
}

// ScoreParseError reports a scorer report without the expected summary line.
// A malformed report must surface as an error: zero metrics are numerically
// indistinguishable from a true all-wrong score.
type ScoreParseError struct {
	Reason string
}

func (e *ScoreParseError) Error() string {
	return "scorer: parse report: " + e.Reason
}

// ScorerProcessError reports an external scorer that failed to run or
// exited non-zero.
type ScorerProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ScorerProcessError) Error() string {
	return fmt.Sprintf("scorer: process failed (exit %d): %v: %s", e.ExitCode, e.Err, e.Stderr)
}

func (e *ScorerProcessError) Unwrap() error { return e.Err }

// ScorerTimeoutError reports an external scorer that exceeded its deadline.
type ScorerTimeoutError struct {
	Timeout time.Duration
}

func (e *ScorerTimeoutError) Error() string {
	return fmt.Sprintf("scorer: process timed out after %s", e.Timeout)
}

// DefaultTimeout bounds the external scorer invocation.
const DefaultTimeout = 2 * time.Minute

// Command invokes an external conlleval-style scorer: the rendered file on
// stdin, the report on stdout, `-r` for raw tagging format and `-o` for the
// outside tag.
type Command struct {
	// Path to the scorer executable.
	Path string
	// Raw selects the raw tagging format (-r).
	Raw bool
	// OutsideTag is the label passed via -o; defaults to "O".
	OutsideTag string
	// Timeout bounds the invocation; DefaultTimeout when zero.
	Timeout time.Duration
}

// Score runs the scorer on predictionPath, tees the report to scorePath and
// parses it.
func (c *Command) Score(ctx context.Context, predictionPath, scorePath string) (Report, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outsideTag := c.OutsideTag
	if outsideTag == "" {
		outsideTag = "O"
	}
	args := []string{"-o", outsideTag}
	if c.Raw {
		args = append([]string{"-r"}, args...)
	}

	in, err := os.Open(predictionPath)
	if err != nil {
		return Report{}, fmt.Errorf("scorer: open predictions: %w", err)
	}
	defer func() { _ = in.Close() }()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, args...)
	cmd.Stdin = in
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if scorePath != "" {
		if werr := os.WriteFile(scorePath, stdout.Bytes(), 0644); werr != nil {
			return Report{}, fmt.Errorf("scorer: write score file: %w", werr)
		}
	}

	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Report{}, &ScorerTimeoutError{Timeout: timeout}
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return Report{}, &ScorerProcessError{
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      runErr,
		}
	}

	return ParseReport(bytes.NewReader(stdout.Bytes()))
}

// ParseReport extracts the four metrics from a scorer report. The summary
// line holds `;`-delimited `label: value` fields, the first three suffixed
// with `%`:
//
//	accuracy:  99.00%; precision:  95.50%; recall:  94.00%; FB1:  94.74
//
// Header lines before the summary are skipped. A report with no such line
// fails with a ScoreParseError.
func ParseReport(r io.Reader) (Report, error) {
	sc := bufio.NewScanner(r)
	sawLine := false
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) != "" {
			sawLine = true
		}
		report, ok := parseSummaryLine(line)
		if ok {
			return report, nil
		}
	}
	if err := sc.Err(); err != nil {
		return Report{}, fmt.Errorf("scorer: read report: %w", err)
	}
	if !sawLine {
		return Report{}, &ScoreParseError{Reason: "empty report"}
	}
	return Report{}, &ScoreParseError{Reason: "no summary line with 4 ;-delimited fields"}
}

func parseSummaryLine(line string) (Report, bool) {
	fields := strings.Split(line, ";")
	if len(fields) < 4 {
		return Report{}, false
	}
	// the four metric fields sit at the end of the summary line
	fields = fields[len(fields)-4:]
	values := make([]float64, 4)
	for i, field := range fields {
		_, raw, ok := strings.Cut(field, ":")
		if !ok {
			return Report{}, false
		}
		raw = strings.TrimSpace(raw)
		if i < 3 {
			var found bool
			raw, found = strings.CutSuffix(raw, "%")
			if !found {
				return Report{}, false
			}
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Report{}, false
		}
		values[i] = v
	}
	return Report{
		Accuracy:  values[0],
		Precision: values[1],
		Recall:    values[2],
		F1:        values[3],
	}, true
}
