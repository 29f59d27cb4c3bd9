// Package batch prices every row of CSV files, writing each input back out
// with a prediction_label column.
package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/diamond-desk/internal/pricing"
	"github.com/ziadkadry99/diamond-desk/internal/progress"
)

// OutputSuffix is appended to an input's base name to form its output name.
const OutputSuffix = ".priced.csv"

// Output columns appended after the input columns.
const (
	ColumnPrediction = "prediction_label"
	ColumnWarnings   = "warnings"
)

var (
	ErrNoFiles       = errors.New("no input files matched")
	ErrOutputCollide = errors.New("inputs map to the same output file")
)

// Result counts what a run did.
type Result struct {
	Files    int
	Rows     int
	Priced   int
	Rejected int
}

func (r *Result) add(o Result) {
	r.Files += o.Files
	r.Rows += o.Rows
	r.Priced += o.Priced
	r.Rejected += o.Rejected
}

// Expand resolves glob patterns (** allowed) to a sorted, de-duplicated
// list of files. Earlier outputs are skipped.
func Expand(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !strings.HasSuffix(m, OutputSuffix) {
				files = append(files, m)
			}
		}
	}
	slices.Sort(files)
	files = slices.Compact(files)
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	return files, nil
}

// OutputPath returns where the priced copy of input is written. An empty
// dir writes next to the input.
func OutputPath(input, dir string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + OutputSuffix
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base)
}

// OutputPaths returns the output file for each input. With a dir, each
// output keeps its input's directory relative to the inputs' common parent,
// so same-named files in different folders stay apart. Two inputs that
// still land on one output are an error.
func OutputPaths(inputs []string, dir string) ([]string, error) {
	root := ""
	if dir != "" {
		var err error
		if root, err = commonDir(inputs); err != nil {
			return nil, err
		}
	}

	outputs := make([]string, len(inputs))
	seen := make(map[string]string, len(inputs))
	for i, input := range inputs {
		out := OutputPath(input, "")
		if dir != "" {
			abs, err := filepath.Abs(filepath.Dir(input))
			if err != nil {
				return nil, err
			}
			rel, err := filepath.Rel(root, abs)
			if err != nil {
				return nil, err
			}
			out = OutputPath(input, filepath.Join(dir, rel))
		}
		if prev, ok := seen[out]; ok {
			return nil, fmt.Errorf("%w: %s and %s both write %s", ErrOutputCollide, prev, input, out)
		}
		seen[out] = input
		outputs[i] = out
	}
	return outputs, nil
}

// commonDir returns the deepest absolute directory containing every input.
func commonDir(inputs []string) (string, error) {
	var common []string
	for i, input := range inputs {
		abs, err := filepath.Abs(filepath.Dir(input))
		if err != nil {
			return "", err
		}
		parts := strings.Split(abs, string(filepath.Separator))
		if i == 0 {
			common = parts
			continue
		}
		n := 0
		for n < len(common) && n < len(parts) && common[n] == parts[n] {
			n++
		}
		common = common[:n]
	}
	root := strings.Join(common, string(filepath.Separator))
	if root == "" {
		root = string(filepath.Separator)
	}
	return root, nil
}

// Scorer runs the estimator over CSV rows.
type Scorer struct {
	estimator *pricing.Estimator
	reporter  progress.Reporter
}

// NewScorer creates a Scorer. reporter may be nil.
func NewScorer(estimator *pricing.Estimator, reporter progress.Reporter) *Scorer {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Scorer{estimator: estimator, reporter: reporter}
}

// ScoreFiles prices each input and writes it to its entry in
// OutputPaths(inputs, outDir). Nothing is written when outputs collide.
func (s *Scorer) ScoreFiles(ctx context.Context, inputs []string, outDir string) (Result, error) {
	outputs, err := OutputPaths(inputs, outDir)
	if err != nil {
		return Result{}, err
	}

	var total Result
	for i, input := range inputs {
		res, err := s.scoreFile(ctx, input, outputs[i])
		if err != nil {
			return total, fmt.Errorf("%s: %w", input, err)
		}
		total.add(res)
	}
	return total, nil
}

func (s *Scorer) scoreFile(ctx context.Context, input, output string) (Result, error) {
	in, err := os.Open(input)
	if err != nil {
		return Result{}, err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return Result{}, err
	}
	out, err := os.Create(output)
	if err != nil {
		return Result{}, err
	}

	res, err := s.Score(ctx, filepath.Base(input), in, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(output)
		return Result{}, err
	}
	res.Files = 1
	return res, nil
}

// Score reads a CSV with a header naming the form fields and writes every
// row back with its price, or with the warnings that prevented one. The
// first model failure aborts the run.
func (s *Scorer) Score(ctx context.Context, name string, in io.Reader, out io.Writer) (Result, error) {
	records, err := csv.NewReader(in).ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) == 0 {
		return Result{}, fmt.Errorf("reading csv: missing header")
	}

	header, rows := records[0], records[1:]
	w := csv.NewWriter(out)
	if err := w.Write(append(slices.Clone(header), ColumnPrediction, ColumnWarnings)); err != nil {
		return Result{}, err
	}

	var res Result
	s.reporter.StartFile(name, len(rows))
	defer func() { s.reporter.FinishFile(res.Priced, res.Rejected) }()

	for i, row := range rows {
		form := url.Values{}
		for j, col := range header {
			if j < len(row) {
				form.Set(strings.TrimSpace(col), row[j])
			}
		}

		est, err := s.estimator.Estimate(ctx, pricing.ParseForm(form))
		if err != nil {
			return res, fmt.Errorf("row %d: %w", i+2, err)
		}

		price, warnings := "", ""
		if est.OK() {
			price = strconv.FormatFloat(est.Price, 'f', 2, 64)
			res.Priced++
		} else {
			msgs := make([]string, len(est.Warnings))
			for k, wn := range est.Warnings {
				msgs[k] = wn.Message
			}
			warnings = strings.Join(msgs, " ")
			res.Rejected++
		}
		res.Rows++

		if err := w.Write(append(slices.Clone(row), price, warnings)); err != nil {
			return res, err
		}
		s.reporter.Row(est.OK())
	}

	w.Flush()
	return res, w.Error()
}
