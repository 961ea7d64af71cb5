package memory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sandevgo/recall/internal/core"
)

// DailyLog mirrors retained facts into human-readable markdown, one file per
// UTC day. It is a best-effort secondary sink: callers log its errors and
// move on.
type DailyLog struct {
	dir string
}

func NewDailyLog(dir string) *DailyLog {
	return &DailyLog{dir: dir}
}

func (d *DailyLog) Append(fact core.Fact) error {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	day := fact.Timestamp.UTC().Format("2006-01-02")
	path := filepath.Join(d.dir, day+".md")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open daily log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat daily log: %w", err)
	}
	if info.Size() == 0 {
		if _, err := fmt.Fprintf(f, "# Facts %s\n\n", day); err != nil {
			return err
		}
	}

	source := string(fact.Source)
	if source == "" {
		source = "unknown"
	}
	_, err = fmt.Fprintf(f, "- [%s] [%s] %s\n",
		fact.Timestamp.UTC().Format("15:04:05"), source, fact.Content)
	return err
}
