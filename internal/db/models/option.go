package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Option is one named record of the key-value option store. The whole value
// is replaced on every write; there are no partial updates.
type Option struct {
	Name      string    `gorm:"primaryKey;size:191" json:"name"`
	Value     JSONText  `json:"value"`
	Autoload  bool      `gorm:"not null;default:false" json:"autoload"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Option) TableName() string {
	return "options"
}

// JSONText is a JSON document stored byte for byte. MySQL's JSON type
// re-sorts object keys, so the column is LONGTEXT there; other dialects
// keep the text of a json column as written.
type JSONText datatypes.JSON

// GormDataType is the generic type name.
func (JSONText) GormDataType() string {
	return "json"
}

// GormDBDataType picks the column type per dialect.
func (JSONText) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "mysql" {
		return "LONGTEXT"
	}
	return "JSON"
}

// Value implements driver.Valuer.
func (j JSONText) Value() (driver.Value, error) {
	return datatypes.JSON(j).Value()
}

// Scan implements sql.Scanner.
func (j *JSONText) Scan(value interface{}) error {
	return (*datatypes.JSON)(j).Scan(value)
}

// MarshalJSON embeds the document as is.
func (j JSONText) MarshalJSON() ([]byte, error) {
	return datatypes.JSON(j).MarshalJSON()
}

// UnmarshalJSON keeps the raw document.
func (j *JSONText) UnmarshalJSON(b []byte) error {
	return (*datatypes.JSON)(j).UnmarshalJSON(b)
}
