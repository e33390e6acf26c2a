package llm

import (
	"fmt"
	"strings"

	"github.com/camden-git/loreboardbackend/models"
)

// categoryDescriptions documents each attribute field for the model.
var categoryDescriptions = map[models.EntityType]map[string]string{
	models.EntityTypeCharacter: {
		"physical":      "Physical appearance and characteristics",
		"personality":   "Personality traits, behaviors, and mannerisms",
		"background":    "History, origin, and past experiences",
		"goals":         "Motivations, desires, and objectives",
		"relationships": "Connections with other characters or entities",
	},
	models.EntityTypePlace: {
		"physical":    "Physical attributes, appearance, and characteristics",
		"environment": "Surrounding environment, atmosphere, and conditions",
		"purpose":     "Function, role, or purpose of the place",
		"history":     "Background, past events, and origin",
		"location":    "Where this place is situated relative to other locations",
	},
	models.EntityTypeItem: {
		"physical":   "Physical appearance, size, material, and other characteristics",
		"function":   "Purpose, use, and functionality",
		"origin":     "Where it came from, who made it, its history",
		"ownership":  "Who owns it or has possessed it",
		"properties": "Special properties, powers, or unique attributes",
	},
}

func categoryList(t models.EntityType) string {
	var b strings.Builder
	for _, f := range t.Fields() {
		fmt.Fprintf(&b, "- %s: %s\n", f, categoryDescriptions[t][f])
	}
	return b.String()
}

// existingInfo renders non-empty attributes as "field: value" blocks.
func existingInfo(t models.EntityType, existing models.Attributes) string {
	var b strings.Builder
	for _, f := range t.Fields() {
		if v := existing[f]; strings.TrimSpace(v) != "" {
			fmt.Fprintf(&b, "%s: %s\n\n", f, v)
		}
	}
	return b.String()
}

// ExtractionPrompt asks for all categories of a newly created entity.
func ExtractionPrompt(t models.EntityType, name string) string {
	return fmt.Sprintf(`You are an assistant helping to extract information about a %[1]s in a story.
The %[1]s's name is %[2]s.
From the provided text, identify and extract relevant details about this %[1]s.

Organize the information into these categories:
%[3]s
Keep each category concise but comprehensive. If information for a category is not present, provide an empty string for that category.
Format your response as a JSON object with these categories as keys.`, t, name, categoryList(t))
}

// CategoryUpdatePrompt asks for plain text to append to one category.
func CategoryUpdatePrompt(t models.EntityType, name string, existing models.Attributes, category string) string {
	return fmt.Sprintf(`You are an assistant helping to update information about a %[1]s in a story.
The %[1]s's name is %[2]s.

Here is the existing information about this %[1]s:
%[3]s
From the new text context, extract any new or updated information about the '%[4]s' category ONLY.
Do not repeat information that is already included in the existing data.
Format your response as text that can be appended to the existing information.`, t, name, existingInfo(t, existing), category)
}

// GeneralUpdatePrompt asks for new information across all categories.
func GeneralUpdatePrompt(t models.EntityType, name string, existing models.Attributes) string {
	return fmt.Sprintf(`You are an assistant helping to update information about a %[1]s in a story.
The %[1]s's name is %[2]s.

Here is the existing information about this %[1]s:
%[3]s
From the new text context, identify and extract any new or updated information about this %[1]s.
Do not repeat information that is already included in the existing data.

Organize any new information into these categories:
%[4]s
Format your response as a JSON object with these categories as keys. Include only categories that have new information.`, t, name, existingInfo(t, existing), categoryList(t))
}

// BulkUpdatePrompt is used when many entities are refreshed from one passage.
func BulkUpdatePrompt(t models.EntityType, name string) string {
	return fmt.Sprintf(`You are an assistant helping to update information about a %[1]s in a story.
The %[1]s's name is %[2]s.

From the provided text, identify and extract any new information about this %[1]s.

Organize any new information into these categories:
%[3]s
Format your response as a JSON object with these categories as keys.
Include only categories that have new information.
If no new information is found, return an empty JSON object.`, t, name, categoryList(t))
}

func contextMessage(text string) string {
	return "Here is the text context:\n\n" + text
}

func newContextMessage(text string) string {
	return "Here is the new text context:\n\n" + text
}
