package model

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringList stores a list of strings as a native text[] on postgres and as
// array-literal text elsewhere (the sqlite test driver).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	return pq.StringArray(l).Value()
}

func (l *StringList) Scan(value interface{}) error {
	return (*pq.StringArray)(l).Scan(value)
}

// GormDataType gives the schema parser a resolvable column type; without it
// a Valuer slice field is mistaken for a relation.
func (StringList) GormDataType() string {
	return "text"
}

func (StringList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
