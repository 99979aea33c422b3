package report

import (
	"fmt"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// RenderTable draws a rounded table; rows shorter than headers are padded.
func RenderTable(headers []string, rows [][]string, aligns []Align) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range header {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// ReadingRows formats readings as table rows: time offset, bpm, quality,
// confidence and SNR.
func ReadingRows(readings []model.Reading, start time.Time) [][]string {
	rows := make([][]string, 0, len(readings))
	for _, r := range readings {
		rows = append(rows, []string{
			formatOffset(r.Timestamp.Sub(start)),
			fmt.Sprintf("%d", r.BPM),
			r.Quality.String(),
			fmt.Sprintf("%.2f", r.Confidence),
			humanize.FtoaWithDigits(r.SNR, 2),
		})
	}
	return rows
}

var ReadingHeaders = []string{"T", "BPM", "QUALITY", "CONFIDENCE", "SNR"}
var ReadingAligns = []Align{AlignRight, AlignRight, AlignLeft, AlignRight, AlignRight}

// Summary aggregates a run.
type Summary struct {
	Source     string
	Start      time.Time
	Frames     int
	Missed     int
	AutoResets int
	Bytes      uint64
	Duration   time.Duration
	Readings   []model.Reading
}

// MedianBPM is the median over readings of at least fair quality, or over
// all readings when none qualify. Zero when there are none.
func (s Summary) MedianBPM() int {
	var bpms []int
	for _, r := range s.Readings {
		if r.Quality >= model.QualityFair {
			bpms = append(bpms, r.BPM)
		}
	}
	if len(bpms) == 0 {
		for _, r := range s.Readings {
			bpms = append(bpms, r.BPM)
		}
	}
	if len(bpms) == 0 {
		return 0
	}
	slices.Sort(bpms)
	return bpms[len(bpms)/2]
}

// Render draws the key/value summary table.
func (s Summary) Render() string {
	rows := [][]string{
		{"Source", s.Source},
		{"Frames", humanize.Comma(int64(s.Frames))},
		{"Frames without subject", humanize.Comma(int64(s.Missed))},
		{"Automatic resets", humanize.Comma(int64(s.AutoResets))},
		{"Readings", humanize.Comma(int64(len(s.Readings)))},
	}
	if s.Bytes > 0 {
		rows = append(rows, []string{"Decoded", humanize.Bytes(s.Bytes)})
	}
	if s.Duration > 0 {
		rows = append(rows, []string{"Elapsed", s.Duration.Round(time.Millisecond).String()})
	}
	if n := len(s.Readings); n > 0 {
		last := s.Readings[n-1]
		rows = append(rows,
			[]string{"Median BPM", fmt.Sprintf("%d", s.MedianBPM())},
			[]string{"Last reading", fmt.Sprintf("%d bpm (%s, confidence %.2f)", last.BPM, last.Quality, last.Confidence)},
		)
	}
	return RenderTable([]string{"FIELD", "VALUE"}, rows, nil)
}

func formatOffset(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%6.1fs", d.Seconds())
}
