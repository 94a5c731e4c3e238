package records

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/voicedesk/backend/pkg/logger"
)

const snapshotTimeLayout = "20060102_150405"

// Config locates the record directories and the wellness log.
type Config struct {
	OrdersDir       string
	LeadsDir        string
	GameSessionsDir string
	WellnessLogPath string
}

// Store persists finished records as JSON files.
type Store struct {
	cfg Config
	now func() time.Time

	logMu sync.Mutex
}

// NewStore creates a Store rooted at the configured locations.
func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg, now: time.Now}
}

// SetClock overrides the time source.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Now returns the store's notion of the current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// SaveOrder writes order_<name>_<ts>.json into the orders directory.
func (s *Store) SaveOrder(customer string, record interface{}) (string, error) {
	return s.saveSnapshot(s.cfg.OrdersDir, "order", customer, record)
}

// SaveLead writes lead_<name>_<ts>.json into the leads directory.
func (s *Store) SaveLead(name string, record interface{}) (string, error) {
	return s.saveSnapshot(s.cfg.LeadsDir, "lead", name, record)
}

// SaveGameSession writes session_<title>_<ts>.json into the game sessions directory.
func (s *Store) SaveGameSession(title string, record interface{}) (string, error) {
	return s.saveSnapshot(s.cfg.GameSessionsDir, "session", title, record)
}

// Slug lower-cases a name and replaces spaces with underscores.
func Slug(name string) string {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	slug = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, slug)
	if slug == "" {
		return "unknown"
	}
	return slug
}

// saveSnapshot creates the file exclusively; two snapshots in the same second
// get a numeric suffix instead of overwriting each other.
func (s *Store) saveSnapshot(dir, kind, name string, record interface{}) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	payload, err := sonic.ConfigStd.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s record: %w", kind, err)
	}

	base := fmt.Sprintf("%s_%s_%s", kind, Slug(name), s.now().Format(snapshotTimeLayout))
	for attempt := 0; attempt < 100; attempt++ {
		filename := base + ".json"
		if attempt > 0 {
			filename = fmt.Sprintf("%s_%d.json", base, attempt)
		}
		path := filepath.Join(dir, filename)

		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", path, err)
		}

		if _, err := file.Write(payload); err != nil {
			_ = file.Close()
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		if err := file.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", path, err)
		}

		logger.Component("records").WithFields(logrus.Fields{"kind": kind, "path": path}).Info("record saved")
		return path, nil
	}
	return "", fmt.Errorf("no free filename for %s", base)
}
