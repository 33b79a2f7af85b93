package data

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

var recognizedExtensions = []string{".json", ".yaml", ".yml"} //nolint:gochecknoglobals

// IsDataFile reports whether name ends in one of the structured-data extensions that the loader
// understands.
func IsDataFile(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range recognizedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ParseJSONOrYAML is used in the same way as json.Unmarshal, but if the data is YAML and not
// JSON, it will convert the YAML to JSON and then parse it as JSON.
func ParseJSONOrYAML(data []byte, target interface{}) error {
	if err := json.Unmarshal(data, target); err == nil {
		return nil
	}
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	normalized, err := normalizeYAML(raw)
	if err != nil {
		return err
	}
	jsonData, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, target)
}

// ParseMap parses a document whose top level must be an object. An empty document yields an
// empty map.
func ParseMap(data []byte) (map[string]interface{}, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]interface{}{}, nil
	}
	var ret map[string]interface{}
	if err := ParseJSONOrYAML(data, &ret); err != nil {
		return nil, err
	}
	if ret == nil {
		ret = map[string]interface{}{}
	}
	return ret, nil
}

func normalizeYAML(value interface{}) (interface{}, error) {
	switch value := value.(type) {
	case []interface{}:
		out := make([]interface{}, 0, len(value))
		for _, v := range value {
			v1, err := normalizeYAML(v)
			if err != nil {
				return nil, err
			}
			out = append(out, v1)
		}
		return out, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(value))
		for k, v := range value {
			v1, err := normalizeYAML(v)
			if err != nil {
				return nil, err
			}
			out[k] = v1
		}
		return out, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(value))
		for k, v := range value {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("YAML data contained a map key of type %T; only string keys are allowed", k)
			}
			v1, err := normalizeYAML(v)
			if err != nil {
				return nil, err
			}
			out[key] = v1
		}
		return out, nil
	default:
		return value, nil
	}
}
