package replay

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/orneryd/hoverthrust/pkg/hover"
	"github.com/orneryd/hoverthrust/pkg/hoverthrust"
)

// StatusHeader is the header row written by WriteStatusCSV.
func StatusHeader() []string {
	header := []string{ColTime}
	header = append(header, hoverthrust.StatusFields...)
	return append(header, "valid", "fused", "landed")
}

// WriteStatusCSV writes one row per record: time, the estimator status
// fields in publication order, then the tracker flags.
func WriteStatusCSV(w io.Writer, records []hover.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(StatusHeader()); err != nil {
		return err
	}

	row := make([]string, 0, 10)
	for _, rec := range records {
		row = row[:0]
		row = append(row, formatFloat(rec.Time.Sub(Epoch).Seconds()))
		for _, v := range rec.Status.Values() {
			row = append(row, formatFloat(v))
		}
		row = append(row, boolField(rec.Valid), boolField(rec.Fused), boolField(rec.Landed))
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteStatusFile writes records to path as status CSV.
func WriteStatusFile(path string, records []hover.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create status file: %w", err)
	}
	defer f.Close()

	buf := bufio.NewWriter(f)
	if err := WriteStatusCSV(buf, records); err != nil {
		return err
	}
	return buf.Flush()
}

func boolField(b bool) string {
	return strconv.FormatBool(b)
}
