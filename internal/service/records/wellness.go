package records

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/zhouzirui/voicedesk/backend/pkg/logger"
)

// CheckIn is one wellness check-in entry.
type CheckIn struct {
	Timestamp      string   `json:"timestamp"`
	Mood           string   `json:"mood"`
	MoodLabel      string   `json:"mood_label,omitempty"`
	EnergyLevel    string   `json:"energy_level"`
	StressFactors  []string `json:"stress_factors"`
	Objectives     []string `json:"objectives"`
	SelfCareAction string   `json:"self_care_action"`
	AgentSummary   string   `json:"agent_summary"`
}

// Time parses the entry timestamp. Both RFC 3339 and zone-less ISO stamps
// are accepted.
func (c CheckIn) Time() (time.Time, bool) {
	raw := strings.TrimSpace(c.Timestamp)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", raw, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}

type wellnessLog struct {
	CheckIns []CheckIn `json:"check_ins"`
}

// LoadCheckIns returns all saved check-ins; a missing log yields none.
func (s *Store) LoadCheckIns() ([]CheckIn, error) {
	s.logMu.Lock()
	defer s.logMu.Unlock()

	log, err := s.readLog()
	if err != nil {
		return nil, err
	}
	return log.CheckIns, nil
}

// AppendCheckIn adds an entry to the wellness log. Appends within this
// process are serialized.
func (s *Store) AppendCheckIn(entry CheckIn) error {
	s.logMu.Lock()
	defer s.logMu.Unlock()

	log, err := s.readLog()
	if err != nil {
		return err
	}
	if entry.Timestamp == "" {
		entry.Timestamp = s.now().Format(time.RFC3339)
	}
	if entry.StressFactors == nil {
		entry.StressFactors = []string{}
	}
	if entry.Objectives == nil {
		entry.Objectives = []string{}
	}
	log.CheckIns = append(log.CheckIns, entry)

	payload, err := sonic.ConfigStd.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("encode wellness log: %w", err)
	}

	path := s.wellnessPath()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	logger.Component("records").WithField("entries", len(log.CheckIns)).Info("check-in saved")
	return nil
}

func (s *Store) wellnessPath() string {
	if s.cfg.WellnessLogPath == "" {
		return "wellness_log.json"
	}
	return s.cfg.WellnessLogPath
}

func (s *Store) readLog() (wellnessLog, error) {
	var log wellnessLog
	raw, err := os.ReadFile(s.wellnessPath())
	if errors.Is(err, os.ErrNotExist) {
		return log, nil
	}
	if err != nil {
		return log, fmt.Errorf("read wellness log: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return log, nil
	}
	if err := sonic.Unmarshal(raw, &log); err != nil {
		return log, fmt.Errorf("decode wellness log: %w", err)
	}
	return log, nil
}
