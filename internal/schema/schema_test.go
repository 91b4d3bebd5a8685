package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monitoria/schedconv/internal/schedule"
)

func TestGenerate(t *testing.T) {
	s := Generate("fisica", schedule.DefaultWeekdays().Codes())

	assert.Equal(t, []string{"fisica"}, s.Required)

	doc, ok := s.Properties.Get("fisica")
	require.True(t, ok)
	assert.Equal(t, "object", doc.Type)
	assert.ElementsMatch(t, []string{"duracaoMonitoria", "observacao", "horarios", "monitores"}, doc.Required)

	monitores, ok := doc.Properties.Get("monitores")
	require.True(t, ok)
	require.NotNil(t, monitores.Items)

	week, ok := monitores.Items.Properties.Get("horarios")
	require.True(t, ok)
	assert.Equal(t, []string{"segunda", "terça", "quarta", "quinta", "sexta", "sábado"}, week.Required)

	sabado, ok := week.Properties.Get("sábado")
	require.True(t, ok)
	assert.Equal(t, "array", sabado.Type)
	assert.Equal(t, "string", sabado.Items.Type)
}

func TestGenerate_MarshalsKeysInOrder(t *testing.T) {
	s := Generate("quimica", []schedule.Weekday{"mon", "tue"})

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "https://json-schema.org/draft/2020-12/schema", back["$schema"])

	props := back["properties"].(map[string]any)
	assert.Contains(t, props, "quimica")
	assert.Contains(t, string(data), `"mon":{"items":{"type":"string"},"type":"array"},"tue"`)
}
