package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/joe/nexus-library/internal/launcher"
	liberrors "github.com/joe/nexus-library/pkg/errors"
)

// SQLStore keeps records in a gorm database.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLite opens or creates the database at dsn and migrates the games
// table. ":memory:" gives a private in-memory database.
func OpenSQLite(dsn string) (*SQLStore, error) {
	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), recordDirPerms); err != nil {
			return nil, liberrors.Wrap(err, liberrors.KindStore, "open").WithPath(dsn)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, liberrors.Wrap(err, liberrors.KindStore, "open").WithPath(dsn)
	}

	if dsn == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, liberrors.Wrap(err, liberrors.KindStore, "open").WithPath(dsn)
		}

		sqlDB.SetMaxOpenConns(1)
	}

	return NewSQLStore(db)
}

// NewSQLStore wraps an open database and migrates the games table.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, liberrors.Wrapf(err, liberrors.KindStore, "migrate", "failed to migrate games table")
	}

	return &SQLStore{db: db}, nil
}

// FindAll returns every record ordered by id.
func (s *SQLStore) FindAll(ctx context.Context) ([]Record, error) {
	var records []Record
	if err := s.db.WithContext(ctx).Order(ColumnAppID).Find(&records).Error; err != nil {
		return nil, liberrors.Wrap(err, liberrors.KindStore, "find all")
	}

	return records, nil
}

// FindOne returns the record for id.
func (s *SQLStore) FindOne(ctx context.Context, id string) (Record, error) {
	var record Record

	err := s.db.WithContext(ctx).Where(ColumnAppID+" = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, liberrors.Wrap(ErrNotFound, liberrors.KindStore, "find one").WithPath(id)
	}

	if err != nil {
		return Record{}, liberrors.Wrap(err, liberrors.KindStore, "find one").WithPath(id)
	}

	return record, nil
}

// Create inserts record.
func (s *SQLStore) Create(ctx context.Context, record Record) error {
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return liberrors.Wrapf(err, liberrors.KindStore, "create", "failed to create record %s", record.SteamAppID)
	}

	return nil
}

// Update sets the columns in fields on the record for id.
func (s *SQLStore) Update(ctx context.Context, id string, fields Fields) error {
	columns := make(map[string]any, len(fields))

	for column, value := range fields {
		if column == ColumnAppID {
			continue
		}

		columns[column] = normalizeColumn(value)
	}

	if len(columns) == 0 {
		_, err := s.FindOne(ctx, id)
		return err
	}

	result := s.db.WithContext(ctx).Model(&Record{}).Where(ColumnAppID+" = ?", id).Updates(columns)
	if result.Error != nil {
		return liberrors.Wrap(result.Error, liberrors.KindStore, "update").WithPath(id)
	}

	if result.RowsAffected == 0 {
		return liberrors.Wrap(ErrNotFound, liberrors.KindStore, "update").WithPath(id)
	}

	return nil
}

// normalizeColumn turns named string types into plain strings for the driver.
func normalizeColumn(value any) any {
	switch v := value.(type) {
	case Status:
		return string(v)
	case launcher.Kind:
		return string(v)
	default:
		return value
	}
}
