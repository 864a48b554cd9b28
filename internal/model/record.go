package model

import "fmt"

// Record is a row of the records table. IDs are caller-supplied; the
// store's primary-key constraint is the uniqueness authority.
type Record struct {
	ID     int64  `gorm:"primaryKey" json:"id"`
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `gorm:"size:1" json:"gender"` // 'M' or 'F'
}

// TableName fixes the table name regardless of pluralization settings.
func (Record) TableName() string { return "records" }

// Columns is the set of queryable column names. Every dynamically built
// column or sort reference must pass through this allowlist before it is
// interpolated into a statement.
var Columns = map[string]bool{
	"id":     true,
	"name":   true,
	"age":    true,
	"gender": true,
}

// SetColumn assigns value to the field backing column. Numeric values
// may arrive as float64 (JSON decoding) and are accepted when whole.
func (r *Record) SetColumn(column string, value any) error {
	switch column {
	case "id":
		v, ok := toInt64(value)
		if !ok {
			return fmt.Errorf("column id needs an integer, got %T", value)
		}
		r.ID = v
	case "name":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("column name needs a string, got %T", value)
		}
		r.Name = s
	case "age":
		v, ok := toInt64(value)
		if !ok {
			return fmt.Errorf("column age needs an integer, got %T", value)
		}
		r.Age = int(v)
	case "gender":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("column gender needs a string, got %T", value)
		}
		r.Gender = s
	default:
		return fmt.Errorf("unknown column %q", column)
	}
	return nil
}

// Column returns the typed value of the field backing column.
func (r *Record) Column(column string) (any, error) {
	switch column {
	case "id":
		return r.ID, nil
	case "name":
		return r.Name, nil
	case "age":
		return r.Age, nil
	case "gender":
		return r.Gender, nil
	}
	return nil, fmt.Errorf("unknown column %q", column)
}

func (r *Record) String() string {
	return fmt.Sprintf("Record(id=%d, name=%q, age=%d, gender=%q)", r.ID, r.Name, r.Age, r.Gender)
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	}
	return 0, false
}

// SampleRecords returns a fresh copy of the bundled sample data set.
func SampleRecords() []*Record {
	return []*Record{
		{ID: 1, Name: "Jay Mondal", Age: 22, Gender: "M"},
		{ID: 2, Name: "Aditi Chakraborty", Age: 21, Gender: "F"},
		{ID: 3, Name: "Joyabrata Mondal", Age: 21, Gender: "M"},
		{ID: 4, Name: "Chandan Das", Age: 22, Gender: "M"},
		{ID: 5, Name: "Dipanjan Mondal", Age: 22, Gender: "M"},
	}
}
