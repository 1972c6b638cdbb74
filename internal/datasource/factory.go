package datasource

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/estratego/matchpoint/internal/config"
)

// SourceType represents the type of data source
type SourceType string

const (
	// ArchiveSourceType downloads season files from the configured HTTP archive
	ArchiveSourceType SourceType = "archive"
	// DirSourceType reads season files from a local directory
	DirSourceType SourceType = "dir"
)

// NewSource creates a MatchSource of the given type. The dir argument is
// only consulted for DirSourceType.
func NewSource(sourceType SourceType, cfg *config.IngestionConfig, dir string, logger *logrus.Logger) (MatchSource, error) {
	switch sourceType {
	case ArchiveSourceType:
		if cfg.ArchiveBaseURL == "" {
			return nil, fmt.Errorf("archive source requires ingestion.archive_base_url")
		}
		return NewArchiveSource(cfg, logger), nil
	case DirSourceType:
		if dir == "" {
			return nil, fmt.Errorf("dir source requires a directory path")
		}
		return NewDirSource(dir, logger), nil
	default:
		return nil, fmt.Errorf("unknown data source type: %s", sourceType)
	}
}
