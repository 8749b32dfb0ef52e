package docs

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocIsValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc()
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))
	assert.Equal(t, "/api/v1", parsed["basePath"])

	paths, ok := parsed["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/subscriptions/{id}/requeue")
	assert.Contains(t, paths, "/admin/plans/{name}")
}

func TestSwaggerDocRefsResolve(t *testing.T) {
	doc, err := swag.ReadDoc()
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))

	defs, ok := parsed["definitions"].(map[string]any)
	require.True(t, ok)
	for _, name := range []string{
		"response.Response", "response.ErrorResponse",
		"models.Plan", "models.Subscription", "models.UserSubscriptions",
		"models.SubscribeResult", "models.CancelResult",
		"models.Dashboard", "models.PlanStat", "models.UserSummary", "models.UserHistory",
		"models.RegisterRequest", "models.LoginRequest", "models.PlanRequest", "models.PlanUpdate",
		"models.SubscribeRequest",
	} {
		assert.Contains(t, defs, name)
	}

	stat := defs["models.PlanStat"].(map[string]any)["properties"].(map[string]any)
	assert.Contains(t, stat, "profit_margin")

	refs := collectRefs(parsed["paths"], nil)
	refs = collectRefs(defs, refs)
	require.NotEmpty(t, refs)
	for _, ref := range refs {
		name := strings.TrimPrefix(ref, "#/definitions/")
		assert.Contains(t, defs, name, "dangling %s", ref)
	}

	cancel := parsed["paths"].(map[string]any)["/subscriptions/{id}/cancel"].(map[string]any)["post"].(map[string]any)
	params := cancel["parameters"].([]any)
	require.Len(t, params, 1)
	assert.Equal(t, "path", params[0].(map[string]any)["in"])
	assert.Contains(t, cancel["responses"], "409")
}

func collectRefs(v any, acc []string) []string {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			if s, ok := child.(string); ok && k == "$ref" {
				acc = append(acc, s)
				continue
			}
			acc = collectRefs(child, acc)
		}
	case []any:
		for _, child := range node {
			acc = collectRefs(child, acc)
		}
	}
	return acc
}
