package models

import "time"

// Item represents a story object in the database using GORM.
// It corresponds to the 'items' table.
type Item struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	Physical   string    `gorm:"type:text;default:''" json:"physical"`
	Function   string    `gorm:"type:text;default:''" json:"function"`
	Origin     string    `gorm:"type:text;default:''" json:"origin"`
	Ownership  string    `gorm:"type:text;default:''" json:"ownership"`
	Properties string    `gorm:"type:text;default:''" json:"properties"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`

	Aliases []Alias `gorm:"polymorphic:Entity;polymorphicValue:item" json:"aliases"`
}

// TableName explicitly sets the table name for GORM.
func (Item) TableName() string {
	return "items"
}

func (i *Item) GetID() uint         { return i.ID }
func (i *Item) GetName() string     { return i.Name }
func (i *Item) SetName(name string) { i.Name = name }
func (i *Item) Type() EntityType    { return EntityTypeItem }
func (i *Item) GetAliases() []Alias { return i.Aliases }

func (i *Item) field(name string) *string {
	switch name {
	case "physical":
		return &i.Physical
	case "function":
		return &i.Function
	case "origin":
		return &i.Origin
	case "ownership":
		return &i.Ownership
	case "properties":
		return &i.Properties
	}
	return nil
}

func (i *Item) Attribute(field string) (string, bool) {
	if f := i.field(field); f != nil {
		return *f, true
	}
	return "", false
}

func (i *Item) SetAttribute(field, value string) bool {
	f := i.field(field)
	if f == nil {
		return false
	}
	*f = value
	return true
}
