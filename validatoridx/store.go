package validatoridx

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// AuditEvent is one persisted change event.
type AuditEvent struct {
	ID        string `gorm:"primaryKey;column:id"`
	Seq       uint64 `gorm:"column:seq;index"`
	Kind      string `gorm:"column:kind"`
	Caller    string `gorm:"column:caller"`
	Owner     string `gorm:"column:owner;index"`
	MiningKey string `gorm:"column:mining_key;index"`
	Fields    string `gorm:"column:fields"`
	Snapshot  string `gorm:"column:snapshot"`
	Time      uint64 `gorm:"column:time"`
}

// TableName overrides default table name
func (AuditEvent) TableName() string {
	return "audit_event"
}

// ChangeEvent converts the row back into the event it was stored from.
func (a AuditEvent) ChangeEvent() (types.ChangeEvent, error) {
	ev := types.ChangeEvent{
		ID:        a.ID,
		Kind:      types.ChangeKind(a.Kind),
		Seq:       a.Seq,
		Time:      a.Time,
		Caller:    common.HexToAddress(a.Caller),
		Owner:     common.HexToAddress(a.Owner),
		MiningKey: common.HexToAddress(a.MiningKey),
	}
	if a.Fields != "" {
		ev.Fields = strings.Split(a.Fields, ",")
	}
	if a.Snapshot != "" {
		ev.Validator = new(types.ValidatorSnapshot)
		if err := json.Unmarshal([]byte(a.Snapshot), ev.Validator); err != nil {
			return ev, err
		}
	}
	return ev, nil
}

// Store is the sqlite-backed audit trail.
type Store struct {
	db *gorm.DB
}

// OpenStore opens the audit store at path, creating it if needed. An empty
// path opens a private in-memory database.
func OpenStore(path string) (*Store, error) {
	var dsn string
	if path == "" {
		dsn = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index dir: %w", err)
		}
		// WAL journal mode, relaxed sync; the trail can be rebuilt from receipts.
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&AuditEvent{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Append stores events. Events already present are skipped, so replaying a
// range of receipts is harmless.
func (s *Store) Append(events []types.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]AuditEvent, 0, len(events))
	for _, ev := range events {
		row := AuditEvent{
			ID:        ev.ID,
			Seq:       ev.Seq,
			Kind:      string(ev.Kind),
			Caller:    ev.Caller.Hex(),
			Owner:     ev.Owner.Hex(),
			MiningKey: ev.MiningKey.Hex(),
			Fields:    strings.Join(ev.Fields, ","),
			Time:      ev.Time,
		}
		if ev.Validator != nil {
			snap, err := json.Marshal(ev.Validator)
			if err != nil {
				return err
			}
			row.Snapshot = string(snap)
		}
		rows = append(rows, row)
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// History returns every stored event concerning mining, oldest first.
func (s *Store) History(mining common.Address) ([]AuditEvent, error) {
	var rows []AuditEvent
	err := s.db.Where("mining_key = ?", mining.Hex()).Order("seq").Order("id").Find(&rows).Error
	return rows, err
}

// LastSeq returns the highest stored sequence number.
func (s *Store) LastSeq() (uint64, bool, error) {
	var row AuditEvent
	err := s.db.Order("seq desc").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return row.Seq, true, nil
}

// Count returns the number of stored events.
func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.Model(&AuditEvent{}).Count(&n).Error
	return n, err
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
