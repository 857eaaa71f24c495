package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const topicSchemaJSON = `{
  "type": "object",
  "required": ["topicName", "position"],
  "properties": {
    "_id": {"type": "string", "format": "uuid"},
    "topicName": {"type": "string", "minLength": 1, "maxLength": 200},
    "position": {"type": "integer", "minimum": 0},
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["problem"],
        "properties": {
          "_id": {"type": "string", "format": "uuid"},
          "problem": {"type": "string", "minLength": 1},
          "URL": {"type": "string"},
          "URL2": {"type": "string"}
        }
      }
    }
  }
}`

var topicSchema = mustSchema(topicSchemaJSON)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("catalog: invalid topic schema: %v", err))
	}
	return schema
}

// ValidationError lists the problems found in a topic document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid topic: " + strings.Join(e.Problems, "; ")
}

// ParseTopic validates raw against the topic schema and decodes it.
func ParseTopic(raw []byte) (Topic, error) {
	if err := ValidateTopicJSON(raw); err != nil {
		return Topic{}, err
	}
	var t Topic
	if err := json.Unmarshal(raw, &t); err != nil {
		return Topic{}, &ValidationError{Problems: []string{err.Error()}}
	}
	return t, nil
}

// ValidateTopicJSON checks raw against the topic schema.
func ValidateTopicJSON(raw []byte) error {
	result, err := topicSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &ValidationError{Problems: []string{"body is not valid JSON"}}
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		problems = append(problems, re.String())
	}
	return &ValidationError{Problems: problems}
}
