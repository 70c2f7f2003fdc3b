package dataview

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"mediadash/internal/logger"
	"mediadash/internal/platform/engine"
	rds "mediadash/internal/platform/redis"
)

var (
	ErrNoData    = errors.New("no data found")
	ErrBadFormat = errors.New("unsupported export format")
)

const (
	PageSize = 50
	// Pages shown on each side of the current one in the pager.
	pageWindow = 2

	datasetCacheTTL = 60
)

// Service is the read-only view over on-disk scraped-data files: latest
// file per platform, bounded pagination, and export.
type Service struct {
	log     *logger.Logger
	dataDir string
	cache   *rds.Service
}

func NewService(dataDir string, cache *rds.Service) *Service {
	return &Service{log: logger.New("DataView"), dataDir: dataDir, cache: cache}
}

// LatestFile returns the newest result file for a platform. File names
// embed their creation timestamp, so descending name order is newest
// first.
func (s *Service) LatestFile(platform engine.Platform) (string, error) {
	dir := filepath.Join(s.dataDir, string(platform), "json")
	matches, err := filepath.Glob(filepath.Join(dir, "search_contents_*.json"))
	if err != nil || len(matches) == 0 {
		return "", ErrNoData
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches[0], nil
}

// Page is one bounded window over a platform's most recent dataset.
type Page struct {
	Platform    string                   `json:"platform"`
	File        string                   `json:"selected_file,omitempty"`
	Records     []map[string]interface{} `json:"data"`
	TotalCount  int                      `json:"total_count"`
	CurrentPage int                      `json:"current_page"`
	TotalPages  int                      `json:"total_pages"`
	PageSize    int                      `json:"items_per_page"`
	StartItem   int                      `json:"start_item"`
	EndItem     int                      `json:"end_item"`
	PageNumbers []int                    `json:"page_numbers"`
	ShowFirst   bool                     `json:"show_first"`
	ShowLast    bool                     `json:"show_last"`
}

// GetPage loads the most recent dataset for a platform and returns the
// requested window. The page number is clamped into range; a missing
// dataset yields an empty single page rather than a miss.
func (s *Service) GetPage(ctx context.Context, platform engine.Platform, page int) (Page, error) {
	var records []map[string]interface{}
	file := ""
	if path, err := s.LatestFile(platform); err == nil {
		file = filepath.Base(path)
		records, err = s.loadRecords(ctx, platform, path)
		if err != nil {
			return Page{}, err
		}
	}
	return paginate(platform, file, records, page), nil
}

func paginate(platform engine.Platform, file string, records []map[string]interface{}, page int) Page {
	totalCount := len(records)
	totalPages := (totalCount + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	startIdx := (page - 1) * PageSize
	endIdx := startIdx + PageSize
	if endIdx > totalCount {
		endIdx = totalCount
	}

	rangeStart := page - pageWindow
	if rangeStart < 1 {
		rangeStart = 1
	}
	rangeEnd := page + pageWindow
	if rangeEnd > totalPages {
		rangeEnd = totalPages
	}
	numbers := make([]int, 0, rangeEnd-rangeStart+1)
	for n := rangeStart; n <= rangeEnd; n++ {
		numbers = append(numbers, n)
	}

	window := records[startIdx:endIdx]
	if window == nil {
		window = []map[string]interface{}{}
	}

	return Page{
		Platform:    string(platform),
		File:        file,
		Records:     window,
		TotalCount:  totalCount,
		CurrentPage: page,
		TotalPages:  totalPages,
		PageSize:    PageSize,
		StartItem:   startIdx + 1,
		EndItem:     endIdx,
		PageNumbers: numbers,
		ShowFirst:   page > pageWindow+1,
		ShowLast:    page < totalPages-pageWindow,
	}
}

// loadRecords parses a dataset file, going through the redis cache when
// one is wired so repeated pagination does not re-read disk.
func (s *Service) loadRecords(ctx context.Context, platform engine.Platform, path string) ([]map[string]interface{}, error) {
	key := fmt.Sprintf("dataset:%s:%s", platform, filepath.Base(path))
	var records []map[string]interface{}
	if s.cache != nil {
		if err := s.cache.CacheGet(ctx, key, &records); err == nil {
			return records, nil
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	if s.cache != nil {
		if err := s.cache.CacheSet(ctx, key, records, datasetCacheTTL); err != nil {
			s.log.LogWarnf("cache dataset %s: %v", key, err)
		}
	}
	return records, nil
}

// Export is one prepared download: either the native file streamed
// as-is (Path set) or a transcoded body.
type Export struct {
	FileName    string
	ContentType string
	Path        string
	Body        []byte
}

// BuildExport prepares the most recent dataset for download in the
// requested format. CSV columns follow the key order of the first
// record; an empty dataset exports as an empty body.
func (s *Service) BuildExport(platform engine.Platform, format string) (Export, error) {
	path, err := s.LatestFile(platform)
	if err != nil {
		return Export{}, err
	}

	switch format {
	case "json":
		return Export{
			FileName:    filepath.Base(path),
			ContentType: "application/json",
			Path:        path,
		}, nil
	case "csv":
		raw, err := os.ReadFile(path)
		if err != nil {
			return Export{}, fmt.Errorf("read dataset %s: %w", path, err)
		}
		body, err := transcodeCSV(raw)
		if err != nil {
			return Export{}, fmt.Errorf("transcode %s: %w", path, err)
		}
		name := fmt.Sprintf("%s_data_%s.csv", platform, time.Now().Format("20060102"))
		return Export{FileName: name, ContentType: "text/csv", Body: body}, nil
	default:
		return Export{}, fmt.Errorf("%w: %q", ErrBadFormat, format)
	}
}

// transcodeCSV renders the dataset as tabular text with the first
// record's keys, in their original file order, as the header.
func transcodeCSV(raw []byte) ([]byte, error) {
	var records []map[string]interface{}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []byte{}, nil
	}

	header := firstRecordKeys(raw)
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	row := make([]string, len(header))
	for _, rec := range records {
		for i, key := range header {
			row[i] = cell(rec[key])
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func cell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

// firstRecordKeys scans the raw JSON token stream for the keys of the
// first array element, in file order. Unmarshalling into a Go map would
// lose that order.
func firstRecordKeys(raw []byte) []string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if t, err := dec.Token(); err != nil || t != json.Delim('[') {
		return nil
	}
	if !dec.More() {
		return nil
	}
	if t, err := dec.Token(); err != nil || t != json.Delim('{') {
		return nil
	}
	var keys []string
	for dec.More() {
		t, err := dec.Token()
		if err != nil {
			break
		}
		key, ok := t.(string)
		if !ok {
			break
		}
		keys = append(keys, key)
		if err := skipValue(dec); err != nil {
			break
		}
	}
	return keys
}

func skipValue(dec *json.Decoder) error {
	t, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := t.(json.Delim); ok && (d == '{' || d == '[') {
		for dec.More() {
			if err := skipValue(dec); err != nil {
				return err
			}
		}
		_, err = dec.Token()
		return err
	}
	return nil
}
