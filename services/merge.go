package services

import (
	"strings"

	"github.com/camden-git/loreboardbackend/models"
)

// MergeAttributes folds updates into e and returns the fields that changed.
// New text is appended after a blank line unless the existing value already
// contains it. Blank updates and keys that are not attributes of e are
// ignored, except "name" which renames the entity.
func MergeAttributes(e models.Entity, updates models.Attributes) []string {
	var changed []string

	if name := strings.TrimSpace(updates["name"]); name != "" && name != e.GetName() {
		e.SetName(name)
		changed = append(changed, "name")
	}

	for _, field := range e.Type().Fields() {
		incoming := strings.TrimSpace(updates[field])
		if incoming == "" {
			continue
		}
		current, _ := e.Attribute(field)
		switch {
		case strings.TrimSpace(current) == "":
			e.SetAttribute(field, incoming)
		case strings.Contains(strings.ToLower(current), strings.ToLower(incoming)):
			continue
		default:
			e.SetAttribute(field, current+paragraphSeparator+incoming)
		}
		changed = append(changed, field)
	}
	return changed
}
