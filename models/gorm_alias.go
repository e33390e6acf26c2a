package models

import "time"

// Alias represents an alternative name for a story entity in the database using GORM.
// It corresponds to the 'aliases' table. EntityType/EntityID form the polymorphic
// reference to a row in characters, places or items.
type Alias struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	EntityType EntityType `gorm:"type:varchar(50);not null;index:idx_alias_entity" json:"entity_type"`
	EntityID   uint       `gorm:"not null;index:idx_alias_entity" json:"entity_id"`
	Name       string     `gorm:"column:alias;type:varchar(255);not null" json:"alias"`
	CreatedAt  time.Time  `json:"-"`
}

// TableName explicitly sets the table name for GORM.
func (Alias) TableName() string {
	return "aliases"
}

// AliasNames flattens aliases into their text values
func AliasNames(aliases []Alias) []string {
	names := make([]string, 0, len(aliases))
	for _, a := range aliases {
		names = append(names, a.Name)
	}
	return names
}
