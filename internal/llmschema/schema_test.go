package llmschema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func domainSchema() *Schema {
	return Object(map[string]*Schema{
		"technologies": Array(Object(map[string]*Schema{
			"name":        String("name"),
			"description": String("desc"),
			"confidence":  Number("0..1"),
		}, "name")),
	}, "technologies")
}

func TestValidateJSONAccepts(t *testing.T) {
	raw := json.RawMessage(`{"technologies":[{"name":"Kafka","description":"broker","confidence":0.9}]}`)
	require.NoError(t, domainSchema().ValidateJSON(raw))
}

func TestValidateJSONMissingRequired(t *testing.T) {
	raw := json.RawMessage(`{"technologies":[{"description":"no name"}]}`)
	err := domainSchema().ValidateJSON(raw)
	require.Error(t, err)
	require.Contains(t, err.Error(), `"name"`)
}

func TestValidateJSONWrongTypes(t *testing.T) {
	for _, raw := range []string{
		`{"technologies":"not an array"}`,
		`{"technologies":[42]}`,
		`[]`,
		`{"technologies":[{"name":1}]}`,
	} {
		require.Error(t, domainSchema().ValidateJSON(json.RawMessage(raw)), "payload %s", raw)
	}
}

func TestValidateJSONMalformed(t *testing.T) {
	require.Error(t, domainSchema().ValidateJSON(json.RawMessage(`{`)))
}

func TestValidateOptionalFieldMayBeAbsent(t *testing.T) {
	raw := json.RawMessage(`{"technologies":[{"name":"Kafka"}]}`)
	require.NoError(t, domainSchema().ValidateJSON(raw))
}

func TestFingerprintStable(t *testing.T) {
	a := domainSchema()
	b := domainSchema()
	require.Equal(t, a.Fingerprint(), b.Fingerprint())

	c := Object(map[string]*Schema{"other": String("")}, "other")
	require.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
