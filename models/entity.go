package models

import (
	"errors"
	"fmt"
	"strings"
)

// EntityType discriminates the three entity tables. The value is also what
// gets stored in aliases.entity_type.
type EntityType string

const (
	EntityTypeCharacter EntityType = "character"
	EntityTypePlace     EntityType = "place"
	EntityTypeItem      EntityType = "item"
)

// EntityTypes lists every entity type in the order used for listings and detection.
var EntityTypes = []EntityType{EntityTypeCharacter, EntityTypePlace, EntityTypeItem}

var ErrInvalidEntityType = errors.New("invalid entity type")

var entityFields = map[EntityType][]string{
	EntityTypeCharacter: {"physical", "personality", "background", "goals", "relationships"},
	EntityTypePlace:     {"physical", "environment", "purpose", "history", "location"},
	EntityTypeItem:      {"physical", "function", "origin", "ownership", "properties"},
}

// ParseEntityType validates a raw path/query value.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if _, ok := entityFields[t]; !ok {
		return "", fmt.Errorf("%w: %s. Must be 'character', 'place', or 'item'", ErrInvalidEntityType, s)
	}
	return t, nil
}

// Fields returns the attribute fields of the type, in display order.
func (t EntityType) Fields() []string {
	fields := entityFields[t]
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// HasField reports whether field is an attribute of the type.
func (t EntityType) HasField(field string) bool {
	for _, f := range entityFields[t] {
		if f == field {
			return true
		}
	}
	return false
}

// Plural is the key used when entities are grouped by type in responses.
func (t EntityType) Plural() string {
	return string(t) + "s"
}

// Title returns the capitalised type name, e.g. "Character".
func (t EntityType) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// Attributes maps attribute field names to their free text.
type Attributes map[string]string

// HasContent reports whether any value is non-blank.
func (a Attributes) HasContent() bool {
	for _, v := range a {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// Entity is implemented by Character, Place and Item.
type Entity interface {
	GetID() uint
	GetName() string
	SetName(name string)
	Type() EntityType
	Attribute(field string) (string, bool)
	SetAttribute(field, value string) bool
	GetAliases() []Alias
}

// AttributesOf returns an ordered snapshot of the entity's attribute values.
func AttributesOf(e Entity) Attributes {
	attrs := make(Attributes, len(entityFields[e.Type()]))
	for _, f := range entityFields[e.Type()] {
		v, _ := e.Attribute(f)
		attrs[f] = v
	}
	return attrs
}

// NewEntity returns an empty model of the given type, ready to be filled by GORM.
func NewEntity(t EntityType) (Entity, error) {
	switch t {
	case EntityTypeCharacter:
		return &Character{}, nil
	case EntityTypePlace:
		return &Place{}, nil
	case EntityTypeItem:
		return &Item{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidEntityType, t)
	}
}

// BuildEntity creates a new unsaved entity with a name and initial attributes.
// Unknown attribute keys are ignored.
func BuildEntity(t EntityType, name string, attrs Attributes) (Entity, error) {
	e, err := NewEntity(t)
	if err != nil {
		return nil, err
	}
	e.SetName(name)
	for k, v := range attrs {
		e.SetAttribute(k, v)
	}
	return e, nil
}
