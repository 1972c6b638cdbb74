package datasource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/estratego/matchpoint/internal/config"
)

// ArchiveSource implements MatchSource over an HTTP archive that serves one
// results CSV per season, named atp_matches_<year>.csv.
type ArchiveSource struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	logger     *logrus.Logger
}

// NewArchiveSource creates a source backed by the configured results archive.
func NewArchiveSource(cfg *config.IngestionConfig, logger *logrus.Logger) *ArchiveSource {
	clientCfg := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		clientCfg.Timeout = cfg.Timeout()
	}
	if cfg.RateLimit > 0 {
		clientCfg.RateLimit = cfg.RateLimit
	}

	return &ArchiveSource{
		httpClient: NewRateLimitedHTTPClient(clientCfg),
		baseURL:    strings.TrimRight(cfg.ArchiveBaseURL, "/"),
		logger:     logger,
	}
}

// FetchSeason downloads and parses one season's results file.
func (s *ArchiveSource) FetchSeason(ctx context.Context, year int) ([]MatchRecord, error) {
	url := fmt.Sprintf("%s/atp_matches_%d.csv", s.baseURL, year)

	resp, err := s.httpClient.Get(ctx, url)
	if err != nil {
		return nil, NewSourceError(s.Name(), ErrCodeNetworkError, "failed to download season file", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewSourceError(s.Name(), ErrCodeNotFound, fmt.Sprintf("season %d", year), ErrSeasonNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, NewSourceError(s.Name(), ErrCodeServerError, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	records, err := parseResultsCSV(resp.Body, s.Name())
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"year":    year,
		"matches": len(records),
		"source":  s.Name(),
	}).Info("Fetched season results")
	return records, nil
}

// Name returns the data source name
func (s *ArchiveSource) Name() string {
	return "csv_archive"
}

// Close releases the underlying HTTP client.
func (s *ArchiveSource) Close() error {
	return s.httpClient.Close()
}

// DirSource implements MatchSource over a local directory of season CSV
// files, for ingesting a pre-downloaded archive without network access.
type DirSource struct {
	dir    string
	logger *logrus.Logger
}

// NewDirSource creates a source reading atp_matches_<year>.csv files from dir.
func NewDirSource(dir string, logger *logrus.Logger) *DirSource {
	return &DirSource{dir: dir, logger: logger}
}

// FetchSeason parses one season's results file from the directory.
func (s *DirSource) FetchSeason(ctx context.Context, year int) ([]MatchRecord, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("atp_matches_%d.csv", year))

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, NewSourceError(s.Name(), ErrCodeNotFound, path, ErrSeasonNotFound)
	}
	if err != nil {
		return nil, NewSourceError(s.Name(), ErrCodeInvalidData, "failed to open season file", err)
	}
	defer file.Close()

	records, err := parseResultsCSV(file, s.Name())
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"year":    year,
		"matches": len(records),
		"source":  s.Name(),
	}).Info("Parsed season results")
	return records, nil
}

// Name returns the data source name
func (s *DirSource) Name() string {
	return "csv_dir"
}

// parseResultsCSV parses a season results file. Columns are resolved by
// header name, so extra statistics columns in the archive are ignored and
// column reordering across archive versions is harmless.
func parseResultsCSV(r io.Reader, source string) ([]MatchRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, NewSourceError(source, ErrCodeInvalidData, "missing CSV header", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"tourney_id", "tourney_name", "tourney_date", "match_num", "winner_id", "winner_name", "loser_id", "loser_name"} {
		if _, ok := col[required]; !ok {
			return nil, NewSourceError(source, ErrCodeInvalidData, "missing column "+required, ErrInvalidData)
		}
	}

	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var records []MatchRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, NewSourceError(source, ErrCodeInvalidData, "malformed CSV row", err)
		}

		date, err := time.Parse("20060102", field(row, "tourney_date"))
		if err != nil {
			// Rows without a parseable date cannot be windowed and are skipped.
			continue
		}

		records = append(records, MatchRecord{
			SourceID:       field(row, "tourney_id") + "-" + field(row, "match_num"),
			Date:           date,
			TournamentName: field(row, "tourney_name"),
			Surface:        field(row, "surface"),
			Round:          field(row, "round"),
			Score:          field(row, "score"),
			Winner: PlayerEntry{
				ExternalID: field(row, "winner_id"),
				Name:       field(row, "winner_name"),
				Country:    field(row, "winner_ioc"),
				Rank:       parseRank(field(row, "winner_rank")),
			},
			Loser: PlayerEntry{
				ExternalID: field(row, "loser_id"),
				Name:       field(row, "loser_name"),
				Country:    field(row, "loser_ioc"),
				Rank:       parseRank(field(row, "loser_rank")),
			},
		})
	}
	return records, nil
}

func parseRank(s string) *int {
	if s == "" {
		return nil
	}
	// Some archive versions export ranks as floats ("3.0").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return nil
	}
	rank := int(f)
	return &rank
}
