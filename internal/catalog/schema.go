package catalog

// documentSchema is the JSON schema a catalog file must satisfy before
// structural validation runs. It checks shape only; id uniqueness and
// per-type correctness data are checked by validateTrails.
var documentSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"version": map[string]any{
			"type":        "string",
			"description": "Catalog content version, semver with leading v (e.g. v1.4.0)",
		},
		"trails": map[string]any{
			"type":  "array",
			"items": trailSchema,
		},
	},
	"required":             []any{"version", "trails"},
	"additionalProperties": false,
}

var trailSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id":    map[string]any{"type": "string", "minLength": 1},
		"title": map[string]any{"type": "string"},
		"phases": map[string]any{
			"type":  "array",
			"items": phaseSchema,
		},
	},
	"required": []any{"id", "phases"},
}

var phaseSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id":    map[string]any{"type": "string", "minLength": 1},
		"title": map[string]any{"type": "string"},
		"stages": map[string]any{
			"type":  "array",
			"items": stageSchema,
		},
	},
	"required": []any{"id", "stages"},
}

var stageSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id": map[string]any{"type": "string", "minLength": 1},
		"questions": map[string]any{
			"type":  "array",
			"items": questionSchema,
		},
	},
	"required": []any{"id", "questions"},
}

var questionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id":     map[string]any{"type": "string", "minLength": 1},
		"type":   map[string]any{"enum": []any{"boolean", "choice", "ordering", "matching"}},
		"prompt": map[string]any{"type": "string"},
		"answer": map[string]any{"type": "boolean"},
		"options": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"correct": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "integer", "minimum": 0},
		},
		"items": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"pairs": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"left":  map[string]any{"type": "string"},
					"right": map[string]any{"type": "string"},
				},
				"required": []any{"left", "right"},
			},
		},
	},
	"required": []any{"id", "type"},
}
