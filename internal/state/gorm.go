package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/learningequality/kolibri-desktop/internal/domain"
)

// viewStateRow is the singleton row holding the restorable webview state.
type viewStateRow struct {
	ID           uint `gorm:"primaryKey"`
	UpdatedAt    time.Time
	LastURL      string
	ZoomLevel    int
	WindowWidth  int
	WindowHeight int
	WindowX      int
	WindowY      int
}

func (viewStateRow) TableName() string { return "view_state" }

type settingRow struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

func (settingRow) TableName() string { return "settings" }

// GormStore is the SQLite-backed Store.
type GormStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open opens (or creates) the state database at path.
func Open(path string, log zerolog.Logger) (*GormStore, error) {
	// WAL lets pooled reader connections proceed while another writes.
	if !strings.Contains(path, "?") {
		path += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(30000)"
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}

	if err := db.AutoMigrate(&viewStateRow{}, &settingRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}

	log.Debug().Str("path", path).Msg("State database opened")
	return &GormStore{db: db, log: log}, nil
}

func (s *GormStore) ViewState() (domain.ViewState, error) {
	var row viewStateRow
	err := s.db.First(&row, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ViewState{}, nil
	}
	if err != nil {
		return domain.ViewState{}, fmt.Errorf("load view state: %w", err)
	}
	return domain.ViewState{
		UpdatedAt:    row.UpdatedAt,
		LastURL:      row.LastURL,
		ZoomLevel:    row.ZoomLevel,
		WindowWidth:  row.WindowWidth,
		WindowHeight: row.WindowHeight,
		WindowX:      row.WindowX,
		WindowY:      row.WindowY,
	}, nil
}

// mutate loads the singleton row, applies the change, and saves it back.
func (s *GormStore) mutate(apply func(*viewStateRow)) error {
	var row viewStateRow
	err := s.db.First(&row, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = viewStateRow{ID: 1}
	} else if err != nil {
		return fmt.Errorf("load view state: %w", err)
	}
	apply(&row)
	if err := s.db.Save(&row).Error; err != nil {
		return fmt.Errorf("save view state: %w", err)
	}
	return nil
}

func (s *GormStore) SaveLastURL(url string) error {
	return s.mutate(func(row *viewStateRow) { row.LastURL = url })
}

func (s *GormStore) SaveZoom(level int) error {
	return s.mutate(func(row *viewStateRow) { row.ZoomLevel = level })
}

func (s *GormStore) SaveGeometry(width, height, x, y int) error {
	return s.mutate(func(row *viewStateRow) {
		row.WindowWidth = width
		row.WindowHeight = height
		row.WindowX = x
		row.WindowY = y
	})
}

func (s *GormStore) Setting(key string) (string, error) {
	var row settingRow
	err := s.db.First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load setting %s: %w", key, err)
	}
	return row.Value, nil
}

func (s *GormStore) SetSetting(key, value string) error {
	row := settingRow{Key: key, Value: value, UpdatedAt: time.Now()}
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Vacuum() error {
	return s.db.Exec("VACUUM").Error
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
