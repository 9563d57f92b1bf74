package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/standardbeagle/probe/internal/search"
	"github.com/standardbeagle/probe/internal/types"
)

// ResultFormatter renders ranked results for a terminal
type ResultFormatter struct {
	options FormatterOptions
}

// FormatterOptions controls result formatting
type FormatterOptions struct {
	Format     string // "text" or "compact"
	ShowLines  bool   // prefix each code line with its line number
	ShowScores bool   // print score and provenance in the header
	Indent     string // prefix for code lines
}

// NewResultFormatter creates a new result formatter
func NewResultFormatter(options FormatterOptions) *ResultFormatter {
	if options.Format == "" {
		options.Format = "text"
	}
	return &ResultFormatter{options: options}
}

// Format renders every result of resp, followed by its debug section if any
func (rf *ResultFormatter) Format(resp *search.Response) string {
	if resp == nil {
		return ""
	}

	var sb strings.Builder
	for i, r := range resp.Results {
		if rf.options.Format == "compact" {
			sb.WriteString(rf.header(r))
			sb.WriteString("\n")
			continue
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(rf.header(r))
		sb.WriteString("\n")
		rf.formatCode(&sb, r)
	}
	if resp.Debug != nil {
		formatDebug(&sb, resp.Debug)
	}
	return sb.String()
}

// Summary is the one-line footer describing the search
func (rf *ResultFormatter) Summary(resp *search.Response) string {
	s := fmt.Sprintf("%d results in %d files (%d scanned, %v)",
		len(resp.Results), resp.Stats.FilesMatched, resp.Stats.FilesVisited, resp.Stats.Duration.Round(time.Millisecond))
	if resp.Truncated {
		s += ", truncated"
	}
	return s
}

func (rf *ResultFormatter) header(r types.RankedResult) string {
	h := fmt.Sprintf("%s:%d-%d", r.Path, r.StartLine, r.EndLine)
	if !rf.options.ShowScores {
		return h
	}
	if r.NodeKind != "" {
		return fmt.Sprintf("%s (score %.3f, %s %s)", h, r.Score, r.Provenance, r.NodeKind)
	}
	return fmt.Sprintf("%s (score %.3f, %s)", h, r.Score, r.Provenance)
}

// formatCode writes the block, one source line per output line
func (rf *ResultFormatter) formatCode(sb *strings.Builder, r types.RankedResult) {
	width := len(fmt.Sprint(r.EndLine))
	for i, line := range strings.Split(r.Code, "\n") {
		sb.WriteString(rf.options.Indent)
		if rf.options.ShowLines {
			fmt.Fprintf(sb, "%*d| ", width, r.StartLine+i)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}

func formatDebug(sb *strings.Builder, d *search.DebugInfo) {
	sb.WriteString("\n--- terms\n")
	for _, t := range d.Terms {
		fmt.Fprintf(sb, "%-20s required=%t hits=%d filename=%d df=%d", t.Text, t.Required, t.Hits, t.FilenameHits, t.DF)
		if t.Stemmed != "" {
			fmt.Fprintf(sb, " stem=%s", t.Stemmed)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("--- patterns\n")
	for _, p := range d.Patterns {
		fmt.Fprintf(sb, "%-40s terms=%v boundary=%s\n", p.Expr, p.Terms, p.Boundary)
	}

	fmt.Fprintf(sb, "--- scores (files=%d avg_lines=%.1f)\n", d.Files, d.AvgLines)
	for _, s := range d.Scores {
		fmt.Fprintf(sb, "%s:%d-%d tfidf=%.3f bm25=%.3f filename=%.3f score=%.3f\n",
			s.Path, s.StartLine, s.EndLine, s.TFIDF, s.BM25, s.Filename, s.Score)
	}
}
