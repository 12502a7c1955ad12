package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding/charmap"
)

var ErrEmptySheet = errors.New("sheet has no rows")

// Source says where a published sheet lives and how its CSV is encoded.
type Source struct {
	Name      string
	URL       string
	Delimiter rune
	Encoding  string
}

var maxSheetBytes int64 = 64 << 20

func decoder(encoding string, r io.Reader) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
		return r, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(r), nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

/*
Fetch downloads a published sheet and parses it into a DataFrame of string
columns. Headers are trimmed; typing is left to the normalizer. A non-200
answer or a sheet without data rows is an error.
*/
func Fetch(ctx context.Context, client *http.Client, src Source) (dataframe.DataFrame, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to create request for sheet %s: %w", src.Name, err)
	}
	req.Header.Set("User-Agent", "painel-os/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to fetch sheet %s: %w", src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return dataframe.DataFrame{}, fmt.Errorf("failed to fetch sheet %s: status %d", src.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSheetBytes+1))
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to read sheet %s: %w", src.Name, err)
	}
	if int64(len(body)) > maxSheetBytes {
		return dataframe.DataFrame{}, fmt.Errorf("sheet %s exceeds %d bytes", src.Name, maxSheetBytes)
	}
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))

	return Parse(bytes.NewReader(body), src)
}

// Parse reads an already downloaded sheet.
func Parse(r io.Reader, src Source) (dataframe.DataFrame, error) {
	decoded, err := decoder(src.Encoding, r)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	delimiter := src.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}
	reader := csv.NewReader(decoded)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to parse sheet %s: %w", src.Name, err)
	}
	// The first record is the header.
	if len(records) < 2 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s", ErrEmptySheet, src.Name)
	}

	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if err := df.Error(); err != nil {
		return df, fmt.Errorf("failed to parse sheet %s: %w", src.Name, err)
	}

	for _, name := range df.Names() {
		if trimmed := strings.TrimSpace(name); trimmed != name {
			df = df.Rename(trimmed, name)
		}
	}
	return df, df.Error()
}
