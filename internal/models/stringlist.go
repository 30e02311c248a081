package models

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringList is a list of strings stored as a native text[] column on
// PostgreSQL. Other dialects keep the same array literal in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return pq.StringArray{}.Value()
	}
	return pq.StringArray(l).Value()
}

func (l *StringList) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*l = StringList(arr)
	return nil
}

func (StringList) GormDataType() string {
	return "text[]"
}

func (StringList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
