package models

import "time"

// Character represents a story character in the database using GORM.
// It corresponds to the 'characters' table.
type Character struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	Physical      string    `gorm:"type:text;default:''" json:"physical"`
	Personality   string    `gorm:"type:text;default:''" json:"personality"`
	Background    string    `gorm:"type:text;default:''" json:"background"`
	Goals         string    `gorm:"type:text;default:''" json:"goals"`
	Relationships string    `gorm:"type:text;default:''" json:"relationships"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`

	Aliases []Alias `gorm:"polymorphic:Entity;polymorphicValue:character" json:"aliases"`
}

// TableName explicitly sets the table name for GORM.
func (Character) TableName() string {
	return "characters"
}

func (c *Character) GetID() uint         { return c.ID }
func (c *Character) GetName() string     { return c.Name }
func (c *Character) SetName(name string) { c.Name = name }
func (c *Character) Type() EntityType    { return EntityTypeCharacter }
func (c *Character) GetAliases() []Alias { return c.Aliases }

func (c *Character) field(name string) *string {
	switch name {
	case "physical":
		return &c.Physical
	case "personality":
		return &c.Personality
	case "background":
		return &c.Background
	case "goals":
		return &c.Goals
	case "relationships":
		return &c.Relationships
	}
	return nil
}

func (c *Character) Attribute(field string) (string, bool) {
	if p := c.field(field); p != nil {
		return *p, true
	}
	return "", false
}

func (c *Character) SetAttribute(field, value string) bool {
	p := c.field(field)
	if p == nil {
		return false
	}
	*p = value
	return true
}
