package models

import "time"

// Place represents a story location in the database using GORM.
// It corresponds to the 'places' table.
type Place struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Physical    string    `gorm:"type:text;default:''" json:"physical"`
	Environment string    `gorm:"type:text;default:''" json:"environment"`
	Purpose     string    `gorm:"type:text;default:''" json:"purpose"`
	History     string    `gorm:"type:text;default:''" json:"history"`
	Location    string    `gorm:"type:text;default:''" json:"location"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`

	Aliases []Alias `gorm:"polymorphic:Entity;polymorphicValue:place" json:"aliases"`
}

// TableName explicitly sets the table name for GORM.
func (Place) TableName() string {
	return "places"
}

func (p *Place) GetID() uint         { return p.ID }
func (p *Place) GetName() string     { return p.Name }
func (p *Place) SetName(name string) { p.Name = name }
func (p *Place) Type() EntityType    { return EntityTypePlace }
func (p *Place) GetAliases() []Alias { return p.Aliases }

func (p *Place) field(name string) *string {
	switch name {
	case "physical":
		return &p.Physical
	case "environment":
		return &p.Environment
	case "purpose":
		return &p.Purpose
	case "history":
		return &p.History
	case "location":
		return &p.Location
	}
	return nil
}

func (p *Place) Attribute(field string) (string, bool) {
	if f := p.field(field); f != nil {
		return *f, true
	}
	return "", false
}

func (p *Place) SetAttribute(field, value string) bool {
	f := p.field(field)
	if f == nil {
		return false
	}
	*f = value
	return true
}
