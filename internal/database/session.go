package database

import (
	"fmt"

	"gorm.io/gorm"

	"recordstore/internal/model"
	"recordstore/internal/query"
)

type opKind int

const (
	opInsert opKind = iota
	opUpdate
	opDelete
	opUpdateAll
	opIncrement
)

// stagedOp is one pending change, applied in staging order on Commit.
type stagedOp struct {
	kind   opKind
	rec    *model.Record // insert only
	id     int64         // update/delete target, captured at staging time
	pred   *query.Predicate
	column string
	value  any
	delta  int
}

// Session is a unit of work over the engine's store. Mutations are
// staged in memory and applied as a single transaction by Commit;
// Rollback discards them. Reads observe committed state only. A session
// is not safe for concurrent use.
type Session struct {
	db     *gorm.DB
	staged []stagedOp
	closed bool
}

// Insert stages one or more new records. Nothing reaches the store
// until Commit.
func (s *Session) Insert(recs ...*model.Record) error {
	if s.closed {
		return ErrSessionClosed
	}
	for _, rec := range recs {
		s.staged = append(s.staged, stagedOp{kind: opInsert, rec: rec})
	}
	return nil
}

// Update assigns value to the record's column in memory and stages the
// column write. The target row is the record's id at the time of the
// call, so staging an id change still updates the original row.
func (s *Session) Update(rec *model.Record, column string, value any) error {
	if s.closed {
		return ErrSessionClosed
	}
	if err := validColumn(column); err != nil {
		return err
	}
	target := rec.ID
	if err := rec.SetColumn(column, value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidColumn, err)
	}
	// Stage the converted value, not the caller's raw one, so the store
	// sees the column's Go type (JSON decoding hands numbers over as
	// float64).
	typed, err := rec.Column(column)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidColumn, err)
	}
	s.staged = append(s.staged, stagedOp{kind: opUpdate, id: target, column: column, value: typed})
	return nil
}

// Delete stages removal of the record, keyed by its id.
func (s *Session) Delete(rec *model.Record) error {
	if s.closed {
		return ErrSessionClosed
	}
	s.staged = append(s.staged, stagedOp{kind: opDelete, id: rec.ID})
	return nil
}

// UpdateAll stages a bulk column write for every record matching pred;
// a nil predicate targets all records.
func (s *Session) UpdateAll(pred *query.Predicate, column string, value any) error {
	if s.closed {
		return ErrSessionClosed
	}
	if err := validColumn(column); err != nil {
		return err
	}
	if err := validPredicate(pred); err != nil {
		return err
	}
	s.staged = append(s.staged, stagedOp{kind: opUpdateAll, pred: pred, column: column, value: value})
	return nil
}

// Increment stages a relative bulk update, column = column + delta, for
// every record matching pred; a nil predicate targets all records.
func (s *Session) Increment(pred *query.Predicate, column string, delta int) error {
	if s.closed {
		return ErrSessionClosed
	}
	if err := validColumn(column); err != nil {
		return err
	}
	if err := validPredicate(pred); err != nil {
		return err
	}
	s.staged = append(s.staged, stagedOp{kind: opIncrement, pred: pred, column: column, delta: delta})
	return nil
}

// Pending reports how many staged operations await Commit.
func (s *Session) Pending() int {
	return len(s.staged)
}

// Commit applies every staged operation, in order, inside one
// transaction. On failure the transaction is rolled back, nothing is
// applied, and the staged operations are retained; the caller should
// Rollback before reusing the session.
func (s *Session) Commit() error {
	if s.closed {
		return ErrSessionClosed
	}
	if len(s.staged) == 0 {
		return nil
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, op := range s.staged {
			if err := applyOp(tx, op); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return classify(err)
	}
	s.staged = nil
	return nil
}

// Rollback discards all staged, uncommitted changes.
func (s *Session) Rollback() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.staged = nil
	return nil
}

// Close discards any staged changes and marks the session unusable.
// Closing twice is harmless.
func (s *Session) Close() error {
	s.staged = nil
	s.closed = true
	return nil
}

func applyOp(tx *gorm.DB, op stagedOp) error {
	switch op.kind {
	case opInsert:
		return tx.Create(op.rec).Error
	case opUpdate:
		return tx.Model(&model.Record{}).Where("id = ?", op.id).Update(op.column, op.value).Error
	case opDelete:
		return tx.Delete(&model.Record{}, op.id).Error
	case opUpdateAll, opIncrement:
		q := tx.Model(&model.Record{})
		if op.pred != nil {
			clause, args, err := op.pred.SQL(model.Columns)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidColumn, err)
			}
			q = q.Where(clause, args...)
		} else {
			q = q.Session(&gorm.Session{AllowGlobalUpdate: true})
		}
		if op.kind == opIncrement {
			return q.Update(op.column, gorm.Expr(op.column+" + ?", op.delta)).Error
		}
		return q.Update(op.column, op.value).Error
	}
	return fmt.Errorf("unknown staged operation kind %d", op.kind)
}

// All returns every record in the store, ordered by id.
func (s *Session) All() ([]model.Record, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	var recs []model.Record
	if err := s.db.Order("id").Find(&recs).Error; err != nil {
		return nil, classify(err)
	}
	return recs, nil
}

// First returns the lowest-id record whose column equals value, or
// ErrNotFound when there is none.
func (s *Session) First(column string, value any) (*model.Record, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if err := validColumn(column); err != nil {
		return nil, err
	}
	var rec model.Record
	if err := s.db.Where(column+" = ?", value).First(&rec).Error; err != nil {
		return nil, classify(err)
	}
	return &rec, nil
}

// FindBy returns every record whose column equals value.
func (s *Session) FindBy(column string, value any) ([]model.Record, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if err := validColumn(column); err != nil {
		return nil, err
	}
	var recs []model.Record
	if err := s.db.Where(column+" = ?", value).Order("id").Find(&recs).Error; err != nil {
		return nil, classify(err)
	}
	return recs, nil
}

// Find returns the records matching the predicate expression, ordered
// by id.
func (s *Session) Find(pred *query.Predicate) ([]model.Record, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	clause, args, err := pred.SQL(model.Columns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidColumn, err)
	}
	var recs []model.Record
	if err := s.db.Where(clause, args...).Order("id").Find(&recs).Error; err != nil {
		return nil, classify(err)
	}
	return recs, nil
}

// Sorted returns up to limit records ordered by column, descending when
// desc is set. limit <= 0 returns all matches.
func (s *Session) Sorted(column string, desc bool, limit int) ([]model.Record, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if err := validColumn(column); err != nil {
		return nil, err
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	q := s.db.Order(column + " " + dir)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []model.Record
	if err := q.Find(&recs).Error; err != nil {
		return nil, classify(err)
	}
	return recs, nil
}

// Select combines a predicate with ordering and a limit. A nil
// predicate matches everything, an empty orderBy falls back to id, and
// limit <= 0 returns all matches.
func (s *Session) Select(pred *query.Predicate, orderBy string, desc bool, limit int) ([]model.Record, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	q := s.db
	if pred != nil {
		clause, args, err := pred.SQL(model.Columns)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidColumn, err)
		}
		q = q.Where(clause, args...)
	}

	if orderBy == "" {
		orderBy = "id"
	}
	if err := validColumn(orderBy); err != nil {
		return nil, err
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	q = q.Order(orderBy + " " + dir)
	if limit > 0 {
		q = q.Limit(limit)
	}

	var recs []model.Record
	if err := q.Find(&recs).Error; err != nil {
		return nil, classify(err)
	}
	return recs, nil
}

func validColumn(column string) error {
	if !model.Columns[column] {
		return fmt.Errorf("%w: %q", ErrInvalidColumn, column)
	}
	return nil
}

func validPredicate(pred *query.Predicate) error {
	if pred == nil {
		return nil
	}
	if _, _, err := pred.SQL(model.Columns); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidColumn, err)
	}
	return nil
}
