package store

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/goosewin/qagen/internal/qa"
	"github.com/goosewin/qagen/internal/topic"
)

const TimestampLayout = "20060102_150405"

// Artifacts writes CSV artifacts locally and optionally mirrors them to S3.
// A mirror failure is logged and never fails the local write.
type Artifacts struct {
	Store  *CSVStore
	Mirror *S3Mirror
	Logger *slog.Logger
}

// Save appends records to name and returns the absolute local path.
func (a *Artifacts) Save(records []qa.Record, name string) (string, error) {
	if a == nil || a.Store == nil {
		return "", fmt.Errorf("artifact store is not configured")
	}
	path, err := a.Store.Append(records, name)
	if err != nil {
		return "", err
	}
	if abs, absErr := filepath.Abs(path); absErr == nil {
		path = abs
	}

	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("saved records", "count", len(records), "path", path)

	if a.Mirror != nil {
		location, mirrorErr := a.Mirror.Upload(path)
		if mirrorErr != nil {
			logger.Warn("mirror upload failed", "path", path, "error", mirrorErr)
		} else {
			logger.Info("mirrored artifact", "location", location)
		}
	}
	return path, nil
}

// TopicName is the file stem for a single-topic run, e.g.
// topic_10_cong_nghe_20261017_101500.
func TopicName(t topic.Topic, now time.Time) string {
	name := slug.Make(t.ShortLabel())
	name = strings.ReplaceAll(name, "-", "_")
	if name == "" {
		return fmt.Sprintf("topic_%d_%s", t.ID, now.Format(TimestampLayout))
	}
	return fmt.Sprintf("topic_%d_%s_%s", t.ID, name, now.Format(TimestampLayout))
}
