// Package replay runs the hover thrust tracker over recorded or simulated
// flight logs.
//
// A flight log is a CSV file with a header row:
//
//	time_s,acc_z,thrust,landed
//	0.000,0.02,0.00,1
//	0.020,-0.13,0.48,0
//
// time_s is seconds since the start of the log, acc_z the vertical
// acceleration (m/s^2) and thrust the normalized collective thrust, both in
// the frame chosen for the tracker. landed is optional. Column order is free
// and extra columns are ignored, so raw exports can be replayed directly.
//
// Example Usage:
//
//	samples, err := replay.ReadLogFile("flight.csv")
//	if err != nil {
//		return err
//	}
//	tr := hover.NewTracker(hover.DefaultOptions())
//	records, err := replay.Run(ctx, tr, samples)
//	fmt.Println(replay.Summarize(records))
package replay

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/orneryd/hoverthrust/pkg/hover"
)

// ErrMalformedRecord is returned for rows or headers ReadLog cannot use.
var ErrMalformedRecord = errors.New("malformed flight log record")

// Epoch is the absolute time of time_s = 0.
var Epoch = time.Unix(0, 0).UTC()

// Column names of a flight log.
const (
	ColTime   = "time_s"
	ColAccZ   = "acc_z"
	ColThrust = "thrust"
	ColLanded = "landed"
)

// ReadLog parses a CSV flight log.
func ReadLog(r io.Reader) ([]hover.Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Variable fields
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty log", ErrMalformedRecord)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{ColTime, ColAccZ, ColThrust} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: header is missing column %q", ErrMalformedRecord, required)
		}
	}
	landedCol, hasLanded := cols[ColLanded]

	var samples []hover.Sample
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		line, _ := reader.FieldPos(0)

		field := func(name string) (float64, error) {
			idx := cols[name]
			if idx >= len(rec) {
				return 0, fmt.Errorf("%w: line %d: missing %s", ErrMalformedRecord, line, name)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx]), 64)
			if err != nil {
				return 0, fmt.Errorf("%w: line %d: bad %s %q", ErrMalformedRecord, line, name, rec[idx])
			}
			return v, nil
		}

		secs, err := field(ColTime)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(secs) || math.IsInf(secs, 0) {
			return nil, fmt.Errorf("%w: line %d: time must be finite", ErrMalformedRecord, line)
		}
		accZ, err := field(ColAccZ)
		if err != nil {
			return nil, err
		}
		thrust, err := field(ColThrust)
		if err != nil {
			return nil, err
		}

		landed := false
		if hasLanded && landedCol < len(rec) && strings.TrimSpace(rec[landedCol]) != "" {
			landed, err = strconv.ParseBool(strings.TrimSpace(rec[landedCol]))
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad landed %q", ErrMalformedRecord, line, rec[landedCol])
			}
		}

		samples = append(samples, hover.Sample{
			Time:   Epoch.Add(secondsToDuration(secs)),
			AccZ:   accZ,
			Thrust: thrust,
			Landed: landed,
		})
	}

	return samples, nil
}

// ReadLogFile opens and parses a CSV flight log.
func ReadLogFile(path string) ([]hover.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open flight log: %w", err)
	}
	defer f.Close()

	samples, err := ReadLog(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// WriteLog writes samples in the format ReadLog accepts.
func WriteLog(w io.Writer, samples []hover.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColTime, ColAccZ, ColThrust, ColLanded}); err != nil {
		return err
	}

	row := make([]string, 4)
	for _, s := range samples {
		row[0] = formatFloat(s.Time.Sub(Epoch).Seconds())
		row[1] = formatFloat(s.AccZ)
		row[2] = formatFloat(s.Thrust)
		row[3] = "0"
		if s.Landed {
			row[3] = "1"
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteLogFile writes samples to path, replacing it.
func WriteLogFile(path string, samples []hover.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create flight log: %w", err)
	}
	defer f.Close()

	buf := bufio.NewWriter(f)
	if err := WriteLog(buf, samples); err != nil {
		return err
	}
	return buf.Flush()
}

func secondsToDuration(secs float64) time.Duration {
	return time.Duration(math.Round(secs * float64(time.Second)))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
