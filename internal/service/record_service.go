package service

import (
	"fmt"
	"math"

	"recordstore/internal/database"
	"recordstore/internal/model"
)

// ListParams narrows, orders and pages a record listing.
type ListParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string // "asc" or "desc"
	Name      string // substring match
	Gender    string // exact match
	AgeMin    int
	AgeMax    int
}

// RecordService exposes record operations to the HTTP and CLI surfaces.
// Every mutating call runs as its own session commit.
type RecordService struct {
	engine *database.Engine
}

// NewRecordService creates a record service over the engine.
func NewRecordService(engine *database.Engine) *RecordService {
	return &RecordService{engine: engine}
}

// List returns one page of records plus the total row and page counts.
func (s *RecordService) List(p ListParams) ([]model.Record, int64, int, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = "id"
	}
	if !model.Columns[sortBy] {
		return nil, 0, 0, fmt.Errorf("%w: %q", database.ErrInvalidColumn, sortBy)
	}
	order := "asc"
	if p.SortOrder == "desc" {
		order = "desc"
	}

	dbQuery := s.engine.DB().Model(&model.Record{})
	if p.Name != "" {
		dbQuery = dbQuery.Where("name LIKE ?", "%"+p.Name+"%")
	}
	if p.Gender != "" {
		dbQuery = dbQuery.Where("gender = ?", p.Gender)
	}
	if p.AgeMin > 0 {
		dbQuery = dbQuery.Where("age >= ?", p.AgeMin)
	}
	if p.AgeMax > 0 {
		dbQuery = dbQuery.Where("age <= ?", p.AgeMax)
	}

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, 0, 0, err
	}

	var recs []model.Record
	err := dbQuery.Order(sortBy + " " + order).
		Offset((p.Page - 1) * p.Limit).
		Limit(p.Limit).
		Find(&recs).Error
	if err != nil {
		return nil, 0, 0, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(p.Limit)))
	return recs, total, totalPages, nil
}

// Count returns the number of records in the store.
func (s *RecordService) Count() (int64, error) {
	var count int64
	err := s.engine.DB().Model(&model.Record{}).Count(&count).Error
	return count, err
}

// Get returns the record with the given id, or database.ErrNotFound.
func (s *RecordService) Get(id int64) (*model.Record, error) {
	sess := s.engine.NewSession()
	defer sess.Close()
	return sess.First("id", id)
}

// Create inserts a record in its own unit of work.
func (s *RecordService) Create(rec *model.Record) error {
	sess := s.engine.NewSession()
	defer sess.Close()
	if err := sess.Insert(rec); err != nil {
		return err
	}
	return sess.Commit()
}

// UpdateColumn loads the record with the given id, applies one column
// change and commits it. The updated record is returned.
func (s *RecordService) UpdateColumn(id int64, column string, value any) (*model.Record, error) {
	sess := s.engine.NewSession()
	defer sess.Close()
	rec, err := sess.First("id", id)
	if err != nil {
		return nil, err
	}
	if err := sess.Update(rec, column, value); err != nil {
		return nil, err
	}
	if err := sess.Commit(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes the record with the given id.
func (s *RecordService) Delete(id int64) error {
	sess := s.engine.NewSession()
	defer sess.Close()
	rec, err := sess.First("id", id)
	if err != nil {
		return err
	}
	if err := sess.Delete(rec); err != nil {
		return err
	}
	return sess.Commit()
}

// AdjustAges shifts every record's age by delta in one transaction.
func (s *RecordService) AdjustAges(delta int) error {
	sess := s.engine.NewSession()
	defer sess.Close()
	if err := sess.Increment(nil, "age", delta); err != nil {
		return err
	}
	return sess.Commit()
}

// Seed loads the bundled sample data set. It is a no-op when the table
// already has rows; the number of inserted records is returned.
func (s *RecordService) Seed() (int, error) {
	var count int64
	if err := s.engine.DB().Model(&model.Record{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	recs := model.SampleRecords()
	sess := s.engine.NewSession()
	defer sess.Close()
	if err := sess.Insert(recs...); err != nil {
		return 0, err
	}
	if err := sess.Commit(); err != nil {
		return 0, err
	}
	return len(recs), nil
}
