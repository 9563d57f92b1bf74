package search

import (
	"errors"
	"time"

	probeerrors "github.com/standardbeagle/probe/internal/errors"
	"github.com/standardbeagle/probe/internal/scanner"
	"github.com/standardbeagle/probe/internal/types"
)

// Response is the outcome of one search
type Response struct {
	Root      string               `json:"root" yaml:"root"` // absolute directory result paths are relative to
	Results   []types.RankedResult `json:"results" yaml:"results"`
	Warnings  []Warning            `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Debug     *DebugInfo           `json:"debug,omitempty" yaml:"debug,omitempty"`
	Stats     Stats                `json:"stats" yaml:"stats"`
	Truncated bool                 `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// Warning is a per-file failure the search continued past
type Warning struct {
	Kind    probeerrors.Kind `json:"kind" yaml:"kind"`
	Path    string           `json:"path,omitempty" yaml:"path,omitempty"`
	Message string           `json:"message" yaml:"message"`
	Err     error            `json:"-" yaml:"-"`
}

// NewWarning classifies err and extracts the file path it refers to
func NewWarning(err error) Warning {
	w := Warning{Kind: probeerrors.KindOf(err), Message: err.Error(), Err: err}

	var fe *probeerrors.FileError
	var pe *probeerrors.ParseError
	switch {
	case errors.As(err, &fe):
		w.Path = fe.Path
	case errors.As(err, &pe):
		w.Path = pe.Path
	}
	return w
}

// Stats summarizes the work done by one search
type Stats struct {
	FilesVisited int           `json:"files_visited" yaml:"files_visited"`
	FilesSkipped int           `json:"files_skipped" yaml:"files_skipped"`
	FilesMatched int           `json:"files_matched" yaml:"files_matched"`
	BytesScanned int64         `json:"bytes_scanned" yaml:"bytes_scanned"`
	Blocks       int           `json:"blocks" yaml:"blocks"`
	Results      int           `json:"results" yaml:"results"`
	Duration     time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

func (r *Response) addScan(res *scanner.Result) {
	r.Stats.FilesVisited = res.Stats.FilesVisited
	r.Stats.FilesSkipped = res.Stats.FilesSkipped
	r.Stats.FilesMatched = res.Stats.FilesMatched
	r.Stats.BytesScanned = res.Stats.BytesScanned
	r.Truncated = r.Truncated || res.Truncated
	r.addWarnings(res.Warnings)
}

func (r *Response) addWarnings(errs []error) {
	for _, err := range errs {
		if err != nil {
			r.Warnings = append(r.Warnings, NewWarning(err))
		}
	}
}

// Err joins the warnings into one error, or nil when there are none
func (r *Response) Err() error {
	errs := make([]error, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		errs = append(errs, w.Err)
	}
	return probeerrors.NewMultiError(errs).ErrorOrNil()
}
