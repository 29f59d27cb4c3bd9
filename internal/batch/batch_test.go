package batch

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ziadkadry99/diamond-desk/internal/model"
	"github.com/ziadkadry99/diamond-desk/internal/pricing"
)

type mockPredictor struct {
	calls int
	err   error
}

func (m *mockPredictor) Predict(_ context.Context, records []model.Record) ([]model.Row, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	// Price is a simple function of weight so rows are distinguishable.
	return []model.Row{{Record: records[0], PredictionLabel: records[0].CaratWeight * 1000}}, nil
}

func (m *mockPredictor) Name() string { return "mock" }

type countingReporter struct {
	file                     string
	rows, ticks, unpriced    int
	donePriced, doneRejected int
}

func (r *countingReporter) StartFile(name string, rows int) { r.file, r.rows = name, rows }
func (r *countingReporter) Row(priced bool) {
	r.ticks++
	if !priced {
		r.unpriced++
	}
}
func (r *countingReporter) FinishFile(priced, rejected int) {
	r.donePriced, r.doneRejected = priced, rejected
}

func TestScore(t *testing.T) {
	predictor := &mockPredictor{}
	reporter := &countingReporter{}
	scorer := NewScorer(pricing.NewEstimator(predictor), reporter)

	in, err := os.Open("testdata/stones.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	var out bytes.Buffer
	res, err := scorer.Score(context.Background(), "stones.csv", in, &out)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if res.Rows != 3 || res.Priced != 2 || res.Rejected != 1 {
		t.Errorf("result = %+v", res)
	}
	if predictor.calls != 2 {
		t.Errorf("expected 2 model calls, got %d", predictor.calls)
	}
	if reporter.file != "stones.csv" || reporter.rows != 3 || reporter.ticks != 3 || reporter.unpriced != 1 {
		t.Errorf("reporter = %+v", reporter)
	}
	if reporter.donePriced != 2 || reporter.doneRejected != 1 {
		t.Errorf("reporter = %+v", reporter)
	}

	rows, err := csv.NewReader(&out).ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if got := rows[0][len(rows[0])-2:]; got[0] != ColumnPrediction || got[1] != ColumnWarnings {
		t.Errorf("header tail = %v", got)
	}
	if rows[1][7] != "1100.00" {
		t.Errorf("row 1 price = %q, want 1100.00", rows[1][7])
	}
	if rows[3][7] != "" || !strings.Contains(rows[3][8], "Cut") {
		t.Errorf("row 3 = %v, want a cut warning and no price", rows[3])
	}
}

func TestScoreModelFailureAborts(t *testing.T) {
	scorer := NewScorer(pricing.NewEstimator(&mockPredictor{err: errors.New("down")}), nil)

	in := strings.NewReader("carat_weight,cut,color,clarity,polish,symmetry,report\n1.1,Ideal,G,VVS2,EX,VG,GIA\n")
	_, err := scorer.Score(context.Background(), "x", in, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Errorf("expected row error, got %v", err)
	}
}

func TestScoreEmptyInput(t *testing.T) {
	scorer := NewScorer(pricing.NewEstimator(&mockPredictor{}), nil)

	if _, err := scorer.Score(context.Background(), "x", strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Error("expected error for missing header")
	}
}

func TestExpand(t *testing.T) {
	files, err := Expand([]string{"testdata/**/*.csv", "testdata/stones.csv"})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := []string{
		filepath.Join("testdata", "nested", "more.csv"),
		filepath.Join("testdata", "stones.csv"),
	}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestExpandNoMatch(t *testing.T) {
	if _, err := Expand([]string{"testdata/*.parquet"}); !errors.Is(err, ErrNoFiles) {
		t.Errorf("expected ErrNoFiles, got %v", err)
	}
}

func TestOutputPath(t *testing.T) {
	if got := OutputPath("data/a.csv", ""); got != filepath.Join("data", "a.priced.csv") {
		t.Errorf("OutputPath = %q", got)
	}
	if got := OutputPath("data/a.csv", "out"); got != filepath.Join("out", "a.priced.csv") {
		t.Errorf("OutputPath = %q", got)
	}
}

func TestScoreFiles(t *testing.T) {
	outDir := t.TempDir()
	scorer := NewScorer(pricing.NewEstimator(&mockPredictor{}), nil)

	res, err := scorer.ScoreFiles(context.Background(), []string{"testdata/stones.csv", "testdata/nested/more.csv"}, outDir)
	if err != nil {
		t.Fatalf("ScoreFiles: %v", err)
	}
	if res.Files != 2 || res.Rows != 4 || res.Priced != 3 {
		t.Errorf("result = %+v", res)
	}
	for _, want := range []string{"stones.priced.csv", filepath.Join("nested", "more.priced.csv")} {
		if _, err := os.Stat(filepath.Join(outDir, want)); err != nil {
			t.Errorf("expected output file %s: %v", want, err)
		}
	}
}

func writeCSV(t *testing.T, path string, rows ...string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	body := "carat_weight,cut,color,clarity,polish,symmetry,report\n" + strings.Join(rows, "\n") + "\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScoreFilesKeepsSameNamedInputsApart(t *testing.T) {
	src := t.TempDir()
	outDir := t.TempDir()
	row := "1.1,Ideal,G,VVS2,EX,VG,GIA"
	writeCSV(t, filepath.Join(src, "a", "stones.csv"), row, row)
	writeCSV(t, filepath.Join(src, "b", "stones.csv"), row)

	files, err := Expand([]string{filepath.Join(src, "**", "*.csv")})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	scorer := NewScorer(pricing.NewEstimator(&mockPredictor{}), nil)
	res, err := scorer.ScoreFiles(context.Background(), files, outDir)
	if err != nil {
		t.Fatalf("ScoreFiles: %v", err)
	}
	if res.Files != 2 || res.Rows != 3 || res.Priced != 3 {
		t.Errorf("result = %+v", res)
	}

	for dir, want := range map[string]int{"a": 2, "b": 1} {
		f, err := os.Open(filepath.Join(outDir, dir, "stones.priced.csv"))
		if err != nil {
			t.Fatalf("output for %s: %v", dir, err)
		}
		rows, err := csv.NewReader(f).ReadAll()
		f.Close()
		if err != nil {
			t.Fatalf("reading %s output: %v", dir, err)
		}
		if len(rows)-1 != want {
			t.Errorf("%s output has %d rows, want %d", dir, len(rows)-1, want)
		}
	}
}

func TestOutputPathsRejectsCollisions(t *testing.T) {
	_, err := OutputPaths([]string{"data/a.csv", "data/a.txt"}, "")
	if !errors.Is(err, ErrOutputCollide) {
		t.Errorf("expected ErrOutputCollide, got %v", err)
	}

	outs, err := OutputPaths([]string{"data/x/a.csv", "data/y/a.csv"}, "out")
	if err != nil {
		t.Fatalf("OutputPaths: %v", err)
	}
	want := []string{filepath.Join("out", "x", "a.priced.csv"), filepath.Join("out", "y", "a.priced.csv")}
	for i := range want {
		if outs[i] != want[i] {
			t.Errorf("output %d = %q, want %q", i, outs[i], want[i])
		}
	}
}
