// Package bench times encode and decode passes for the tokenreplay bench
// command.
package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/example/tokenreplay/internal/tokenizer"
)

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing of one encode+decode pass over a document.
type RunResult struct {
	Index    int
	Cold     bool // true for the first run (cold-start)
	Encode   time.Duration
	Decode   time.Duration
	Tokens   int
	Lossless bool
}

// Duration is the full pass time.
func (r RunResult) Duration() time.Duration { return r.Encode + r.Decode }

// TokensPerSecond is the encode throughput of the run. Zero when the run
// took no measurable time.
func (r RunResult) TokensPerSecond() float64 {
	if r.Encode <= 0 {
		return 0
	}
	return float64(r.Tokens) / r.Encode.Seconds()
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	Median time.Duration
}

// ComputeStats calculates min, max, mean and median over a slice of
// durations. An empty slice yields zero Stats.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}

	sorted := slices.Clone(durations)
	slices.Sort(sorted)

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	return Stats{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   sum / time.Duration(len(sorted)),
		Median: median,
	}
}

// ---------------------------------------------------------------------------
// Runner
// ---------------------------------------------------------------------------

// Run encodes and decodes text runs times with v. It stops early when ctx is
// cancelled and returns the completed runs with ctx's error.
func Run(ctx context.Context, v tokenizer.Vocabulary, text string, runs int) ([]RunResult, error) {
	if runs < 1 {
		return nil, fmt.Errorf("runs must be at least 1, got %d", runs)
	}

	results := make([]RunResult, 0, runs)

	for i := range runs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		start := time.Now()
		ids, err := v.Encode(text)
		encodeDur := time.Since(start)
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i+1, err)
		}

		start = time.Now()
		decoded, err := v.Decode(ids)
		decodeDur := time.Since(start)
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i+1, err)
		}

		results = append(results, RunResult{
			Index:    i,
			Cold:     i == 0,
			Encode:   encodeDur,
			Decode:   decodeDur,
			Tokens:   len(ids),
			Lossless: decoded == text,
		})
	}

	return results, nil
}

// Durations extracts the full pass time of every run.
func Durations(runs []RunResult) []time.Duration {
	out := make([]time.Duration, len(runs))
	for i, r := range runs {
		out[i] = r.Duration()
	}
	return out
}

// ---------------------------------------------------------------------------
// Throughput gate
// ---------------------------------------------------------------------------

// CheckThroughput returns an error if the mean encode throughput of runs is
// below minTokensPerSec. A minimum of 0 disables the gate.
func CheckThroughput(runs []RunResult, minTokensPerSec float64) error {
	if minTokensPerSec <= 0 || len(runs) == 0 {
		return nil
	}

	var total float64
	for _, r := range runs {
		total += r.TokensPerSecond()
	}

	mean := total / float64(len(runs))
	if mean < minTokensPerSec {
		return fmt.Errorf("mean throughput %.0f tokens/s is below %.0f", mean, minTokensPerSec)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(encoding string, runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "encoding: %s\n", encoding)
	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %10s  %8s  %12s  %s\n", "Run", "Cold", "Encode(ms)", "Decode(ms)", "Tokens", "Tokens/s", "Lossless")
	fmt.Fprintln(sb, strings.Repeat("-", 72))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		lossless := "yes"
		if !r.Lossless {
			lossless = "NO"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10.3f  %10.3f  %8d  %12.0f  %s\n",
			r.Index+1,
			cold,
			millis(r.Encode),
			millis(r.Decode),
			r.Tokens,
			r.TokensPerSecond(),
			lossless,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 72))
	fmt.Fprintf(sb, "total ms  min %.3f  median %.3f  mean %.3f  max %.3f\n",
		millis(stats.Min), millis(stats.Median), millis(stats.Mean), millis(stats.Max))

	fmt.Fprint(w, sb.String())
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Encoding string    `json:"encoding"`
	Runs     []jsonRun `json:"runs"`
	Stats    jsonStats `json:"stats"`
}

type jsonRun struct {
	Index        int     `json:"index"`
	Cold         bool    `json:"cold"`
	EncodeMS     float64 `json:"encode_ms"`
	DecodeMS     float64 `json:"decode_ms"`
	Tokens       int     `json:"tokens"`
	TokensPerSec float64 `json:"tokens_per_sec"`
	Lossless     bool    `json:"lossless"`
}

type jsonStats struct {
	MinMS    float64 `json:"min_ms"`
	MedianMS float64 `json:"median_ms"`
	MeanMS   float64 `json:"mean_ms"`
	MaxMS    float64 `json:"max_ms"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(encoding string, runs []RunResult, stats Stats, w io.Writer) {
	jr := jsonReport{
		Encoding: encoding,
		Runs:     make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:    millis(stats.Min),
			MedianMS: millis(stats.Median),
			MeanMS:   millis(stats.Mean),
			MaxMS:    millis(stats.Max),
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:        r.Index,
			Cold:         r.Cold,
			EncodeMS:     millis(r.Encode),
			DecodeMS:     millis(r.Decode),
			Tokens:       r.Tokens,
			TokensPerSec: r.TokensPerSecond(),
			Lossless:     r.Lossless,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(jr)
}
