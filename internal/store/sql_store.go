// internal/store/sql_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/javajoker/rifas-backend/internal/database"
)

// recordRow is one stored record. Collection and ID form the key.
type recordRow struct {
	Collection string    `gorm:"primaryKey;size:64"`
	ID         string    `gorm:"primaryKey;size:255"`
	Version    int64     `gorm:"not null"`
	Data       []byte    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (recordRow) TableName() string { return "records" }

// attrRow indexes one filterable attribute of a record.
type attrRow struct {
	Collection string `gorm:"primaryKey;size:64"`
	RecordID   string `gorm:"primaryKey;size:255"`
	AttrKey    string `gorm:"primaryKey;size:64"`
	AttrValue  string `gorm:"size:255;index:idx_record_attrs_lookup"`
}

func (attrRow) TableName() string { return "record_attrs" }

// SQLTables lists the models the SQL store needs migrated.
func SQLTables() []interface{} {
	return []interface{}{&recordRow{}, &attrRow{}}
}

// SQLStore persists records through gorm. It works against both the
// postgres and mysql drivers.
type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, collection, id string) (Record, error) {
	var row recordRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, unavailable("get", err)
	}

	var attrs []attrRow
	if err := s.db.WithContext(ctx).
		Where("collection = ? AND record_id = ?", collection, id).
		Find(&attrs).Error; err != nil {
		return Record{}, unavailable("get attrs", err)
	}

	rec := Record{ID: row.ID, Version: row.Version, Data: row.Data}
	if len(attrs) > 0 {
		rec.Attrs = make(map[string]string, len(attrs))
		for _, a := range attrs {
			rec.Attrs[a.AttrKey] = a.AttrValue
		}
	}
	return rec, nil
}

func (s *SQLStore) List(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	query := s.db.WithContext(ctx).Where("collection = ?", collection)

	// One subquery per filter attribute
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sub := s.db.WithContext(ctx).Model(&attrRow{}).
			Select("record_id").
			Where("collection = ? AND attr_key = ? AND attr_value = ?", collection, k, filter[k])
		query = query.Where("id IN (?)", sub)
	}

	var rows []recordRow
	if err := query.Order("id").Find(&rows).Error; err != nil {
		return nil, unavailable("list", err)
	}
	if len(rows) == 0 {
		return []Record{}, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	var attrs []attrRow
	if err := s.db.WithContext(ctx).
		Where("collection = ? AND record_id IN ?", collection, ids).
		Find(&attrs).Error; err != nil {
		return nil, unavailable("list attrs", err)
	}
	byID := make(map[string]map[string]string)
	for _, a := range attrs {
		if byID[a.RecordID] == nil {
			byID[a.RecordID] = make(map[string]string)
		}
		byID[a.RecordID][a.AttrKey] = a.AttrValue
	}

	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = Record{ID: r.ID, Version: r.Version, Attrs: byID[r.ID], Data: r.Data}
	}
	return out, nil
}

func (s *SQLStore) Put(ctx context.Context, collection string, rec Record) (Record, error) {
	now := time.Now().UTC()
	newVersion := rec.Version + 1

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if rec.Version == 0 {
			row := recordRow{
				Collection: collection,
				ID:         rec.ID,
				Version:    newVersion,
				Data:       rec.Data,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := tx.Create(&row).Error; err != nil {
				if isUniqueViolation(err) {
					return ErrAlreadyExists
				}
				return err
			}
		} else {
			result := tx.Model(&recordRow{}).
				Where("collection = ? AND id = ? AND version = ?", collection, rec.ID, rec.Version).
				Updates(map[string]interface{}{
					"version":    newVersion,
					"data":       rec.Data,
					"updated_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				var count int64
				if err := tx.Model(&recordRow{}).
					Where("collection = ? AND id = ?", collection, rec.ID).
					Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return ErrNotFound
				}
				return ErrVersionConflict
			}
			if err := tx.Where("collection = ? AND record_id = ?", collection, rec.ID).
				Delete(&attrRow{}).Error; err != nil {
				return err
			}
		}

		if len(rec.Attrs) == 0 {
			return nil
		}
		rows := make([]attrRow, 0, len(rec.Attrs))
		for k, v := range rec.Attrs {
			rows = append(rows, attrRow{Collection: collection, RecordID: rec.ID, AttrKey: k, AttrValue: v})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		if isStoreError(err) {
			return Record{}, err
		}
		return Record{}, unavailable("put", err)
	}

	return Record{ID: rec.ID, Version: newVersion, Attrs: copyAttrs(rec.Attrs), Data: copyData(rec.Data)}, nil
}

func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Where("collection = ? AND record_id = ?", collection, id).
			Delete(&attrRow{}).Error; err != nil {
			return err
		}
		return tx.Where("collection = ? AND id = ?", collection, id).
			Delete(&recordRow{}).Error
	})
	if err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	database.Close(s.db)
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isStoreError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrVersionConflict)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
