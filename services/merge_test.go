package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/loreboardbackend/models"
)

func TestMergeAttributes(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		incoming string
		want     string
		changed  bool
	}{
		{"fills empty", "", "  tall  ", "tall", true},
		{"appends new", "Tall.", "Has a scar.", "Tall.\n\nHas a scar.", true},
		{"skips contained", "Tall with a scar on her cheek.", "A SCAR ON HER CHEEK", "Tall with a scar on her cheek.", false},
		{"keeps on blank", "Tall.", "   ", "Tall.", false},
		{"replaces whitespace only", "  ", "Short.", "Short.", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := models.BuildEntity(models.EntityTypeCharacter, "Elena", models.Attributes{"physical": tt.existing})
			require.NoError(t, err)

			changed := MergeAttributes(e, models.Attributes{"physical": tt.incoming})
			got, _ := e.Attribute("physical")
			assert.Equal(t, tt.want, got)
			if tt.changed {
				assert.Equal(t, []string{"physical"}, changed)
			} else {
				assert.Empty(t, changed)
			}
		})
	}
}

func TestMergeAttributes_IgnoresForeignKeysAndRenames(t *testing.T) {
	e, err := models.BuildEntity(models.EntityTypeItem, "Dawnblade", nil)
	require.NoError(t, err)

	changed := MergeAttributes(e, models.Attributes{
		"goals":    "conquer",
		"function": "cuts shadows",
		"name":     " The Dawnblade ",
	})

	assert.ElementsMatch(t, []string{"name", "function"}, changed)
	assert.Equal(t, "The Dawnblade", e.GetName())
	_, ok := e.Attribute("goals")
	assert.False(t, ok)

	assert.Empty(t, MergeAttributes(e, models.Attributes{"name": ""}))
	assert.Equal(t, "The Dawnblade", e.GetName())
}
