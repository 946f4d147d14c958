package market

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type BarFilter func(b Bar) bool

// ReadBars loads all bars from a csv file with the columns
// timestamp,open,high,low,close,volume. The timestamp is unix seconds.
func ReadBars(path string) ([]Bar, error) {
	return ReadBarsWithFilter(path, func(b Bar) bool { return true })
}

func ReadBarsWithFilter(path string, filter BarFilter) (bars []Bar, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open bar data: %w", err)
	}
	defer f.Close()

	return readBars(bufio.NewReader(f), filter)
}

func readBars(r io.Reader, filter BarFilter) ([]Bar, error) {
	rdr := csv.NewReader(r)
	if _, err := rdr.Read(); err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var bars []Bar
	for {
		data, err := rdr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read bar data: %w", err)
		}

		timestamp, err := strconv.ParseFloat(data[0], 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse bar time: %w", err)
		}

		open, err := decimal.NewFromString(data[1])
		if err != nil {
			return nil, fmt.Errorf("failed to read open price: %w", err)
		}

		high, err := decimal.NewFromString(data[2])
		if err != nil {
			return nil, fmt.Errorf("failed to read high price: %w", err)
		}

		low, err := decimal.NewFromString(data[3])
		if err != nil {
			return nil, fmt.Errorf("failed to read low price: %w", err)
		}

		close, err := decimal.NewFromString(data[4])
		if err != nil {
			return nil, fmt.Errorf("failed to read close price: %w", err)
		}

		volume, err := decimal.NewFromString(data[5])
		if err != nil {
			return nil, fmt.Errorf("failed to read volume: %w", err)
		}

		bar := Bar{
			Time:   time.Unix(int64(timestamp), 0),
			Open:   open,
			Close:  close,
			High:   high,
			Low:    low,
			Volume: volume,
		}
		if filter(bar) {
			bars = append(bars, bar)
		}
	}

	return bars, nil
}

// WriteBars dumps bars in the same csv format ReadBars accepts.
func WriteBars(w io.Writer, bars []Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return fmt.Errorf("failed to write bars csv header: %w", err)
	}

	for _, bar := range bars {
		err := cw.Write([]string{
			strconv.FormatInt(bar.Time.Unix(), 10),
			bar.Open.String(),
			bar.High.String(),
			bar.Low.String(),
			bar.Close.String(),
			bar.Volume.String()})

		if err != nil {
			return fmt.Errorf("failed to dump bar: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
