package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// maxFetchBytes caps remote documents.
const maxFetchBytes = 32 << 20

// Open reads a dataset file, choosing the decoder by extension: .xlsx is a
// workbook, anything else is treated as JSON.
func Open(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrLoad, path, err)
	}
	defer f.Close()

	if isWorkbook(path, "") {
		return DecodeWorkbook(f)
	}
	return Decode(f)
}

// DecodeWorkbook reads an .xlsx workbook where every sheet is a table and
// the first row of each sheet holds the column headers. Fully blank rows are
// skipped; short rows are padded with empty cells.
func DecodeWorkbook(r io.Reader) (*Dataset, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %w", ErrLoad, err)
	}
	defer wb.Close()

	tables := make(map[string][]Row)
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: read sheet %q: %w", ErrLoad, sheet, err)
		}
		if len(rows) == 0 {
			tables[sheet] = nil
			continue
		}
		header := rows[0]
		var out []Row
		for _, cells := range rows[1:] {
			if blank(cells) {
				continue
			}
			row := make(Row, len(header))
			for i, h := range header {
				if strings.TrimSpace(h) == "" {
					continue
				}
				v := ""
				if i < len(cells) {
					v = cells[i]
				}
				row[h] = v
			}
			out = append(out, row)
		}
		tables[sheet] = out
	}
	return New(tables), nil
}

// Fetch downloads a dataset document. Workbooks are recognised by content
// type or a .xlsx URL suffix; everything else is decoded as JSON.
func Fetch(ctx context.Context, client *http.Client, url string) (*Dataset, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrLoad, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", ErrLoad, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch %s: status %d", ErrLoad, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrLoad, url, err)
	}

	if isWorkbook(url, resp.Header.Get("Content-Type")) {
		return DecodeWorkbook(bytes.NewReader(body))
	}
	return Decode(bytes.NewReader(body))
}

// IsRemote reports whether source names an http(s) URL rather than a file.
func IsRemote(source string) bool {
	s := strings.ToLower(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Load resolves source as a URL or a file path.
func Load(ctx context.Context, client *http.Client, source string) (*Dataset, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%w: no dataset source configured", ErrLoad)
	}
	if IsRemote(source) {
		return Fetch(ctx, client, source)
	}
	return Open(source)
}

func isWorkbook(name, contentType string) bool {
	if strings.Contains(contentType, "spreadsheetml") {
		return true
	}
	name = strings.ToLower(name)
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return filepath.Ext(name) == ".xlsx"
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
