package analyze

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FormatSuffix describes the expected response shape. It is appended to
// every prompt: JSON-constrained decoding guarantees an object but not
// which fields it carries.
func FormatSuffix(outputFields []string) string {
	return fmt.Sprintf("Your response must be a json object with the following fields: %s. The response must start with {, not with ```json.",
		strings.Join(outputFields, ", "))
}

// InputFieldsAndValues renders the named fields and their row values as
// fenced blocks for the prompt.
func InputFieldsAndValues(fields []string, get func(field string) string) string {
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s:\n```\n%s\n```", field, get(field)))
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt assembles the full per-row prompt: the user's prompt, the
// row's input fields, and the response format description.
func BuildPrompt(userPrompt string, inputFields, outputFields []string, get func(field string) string) string {
	return fmt.Sprintf("%s\n%s\n%s",
		userPrompt,
		InputFieldsAndValues(inputFields, get),
		FormatSuffix(outputFields))
}

// ParseResponse parses a model completion into field values. It fails when
// the completion is not a JSON object or is missing any of the output
// fields; the caller then tries the next completion or retries.
func ParseResponse(content string, outputFields []string) (map[string]interface{}, error) {
	var response map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &response); err != nil {
		return nil, fmt.Errorf("not a valid JSON object: %w", err)
	}

	var missing []string
	for _, field := range outputFields {
		if _, ok := response[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("response is missing fields %v", missing)
	}

	return response, nil
}

// CellValue converts a parsed response value to a cell string. Lists become
// comma-separated values; anything else non-string is rendered as JSON.
func CellValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, CellValue(item))
		}
		return strings.Join(parts, ", ")
	case float64:
		// JSON numbers decode as float64; render integers without a point
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	case nil:
		return ""
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
