package fraud

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zhouzirui/voicedesk/backend/internal/config"
	model "github.com/zhouzirui/voicedesk/backend/internal/model/fraud"
)

// ErrCaseNotFound is returned when no pending case matches the lookup.
var ErrCaseNotFound = errors.New("fraud case not found")

// Store reads and resolves fraud cases.
type Store interface {
	// FindPending returns the first pending_review case for the user.
	FindPending(ctx context.Context, userName string) (*model.Case, error)
	// Resolve sets the case status and outcome and marks it verified.
	Resolve(ctx context.Context, id uint, status, outcome string) error
}

// GormStore is the relational Store shared by every session.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an existing connection pool.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Open connects to the configured database and returns a pooled store.
func Open(cfg config.FraudDBConfig) (*GormStore, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN())
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported fraud db driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("connect fraud db: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(&model.Case{}); err != nil {
			return nil, fmt.Errorf("migrate fraud_cases: %w", err)
		}
	}
	return NewGormStore(db), nil
}

// FindPending implements Store.
func (s *GormStore) FindPending(ctx context.Context, userName string) (*model.Case, error) {
	var found model.Case
	err := pendingQuery(s.db.WithContext(ctx), userName, &found).Error
	return pendingResult(&found, err)
}

// Resolve implements Store.
func (s *GormStore) Resolve(ctx context.Context, id uint, status, outcome string) error {
	res := resolveQuery(s.db.WithContext(ctx), id, status, outcome)
	return resolveResult(id, res.RowsAffected, res.Error)
}

// pendingQuery 按用户名取最早的 pending_review case。
func pendingQuery(tx *gorm.DB, userName string, dest *model.Case) *gorm.DB {
	return tx.
		Where(map[string]interface{}{"userName": strings.TrimSpace(userName), "case_status": model.StatusPendingReview}).
		Order("id").
		First(dest)
}

func pendingResult(found *model.Case, err error) (*model.Case, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query fraud case: %w", err)
	}
	return found, nil
}

// resolveQuery 按主键原地更新状态、备注和核验标记。
func resolveQuery(tx *gorm.DB, id uint, status, outcome string) *gorm.DB {
	return tx.
		Model(&model.Case{}).
		Where(map[string]interface{}{"id": id}).
		Updates(map[string]interface{}{
			"case_status":        status,
			"outcome":            outcome,
			"verificationStatus": model.VerificationVerified,
		})
}

func resolveResult(id uint, rowsAffected int64, err error) error {
	if err != nil {
		return fmt.Errorf("update fraud case %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return ErrCaseNotFound
	}
	return nil
}

// Close releases the underlying pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// MemoryStore keeps cases in memory for local runs and tests.
type MemoryStore struct {
	mu    sync.Mutex
	cases map[uint]model.Case
}

// NewMemoryStore seeds a MemoryStore with the given cases.
func NewMemoryStore(cases ...model.Case) *MemoryStore {
	store := &MemoryStore{cases: make(map[uint]model.Case, len(cases))}
	for _, c := range cases {
		store.cases[c.ID] = c
	}
	return store
}

// FindPending implements Store. Name matching is exact, like the SQL lookup.
func (s *MemoryStore) FindPending(_ context.Context, userName string) (*model.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uint, 0, len(s.cases))
	for id := range s.cases {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	name := strings.TrimSpace(userName)
	for _, id := range ids {
		c := s.cases[id]
		if c.UserName == name && c.Status == model.StatusPendingReview {
			return &c, nil
		}
	}
	return nil, ErrCaseNotFound
}

// Resolve implements Store.
func (s *MemoryStore) Resolve(_ context.Context, id uint, status, outcome string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[id]
	if !ok {
		return ErrCaseNotFound
	}
	c.Status = status
	c.Outcome = outcome
	c.VerificationStatus = model.VerificationVerified
	s.cases[id] = c
	return nil
}

// Get returns a copy of a stored case.
func (s *MemoryStore) Get(id uint) (model.Case, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	return c, ok
}

// DemoCases is the sample data used when no database is configured.
func DemoCases() []model.Case {
	return []model.Case{
		{
			ID:                  1,
			UserName:            "John",
			SecurityIdentifier:  "12345",
			CardEnding:          "4242",
			Status:              model.StatusPendingReview,
			TransactionName:     "ABC Industry",
			TransactionTime:     "2025-11-25 14:32",
			TransactionCategory: "e-commerce",
			TransactionSource:   "alibaba.com",
			VerificationStatus:  model.VerificationUnverified,
		},
	}
}
