package endpoint

import (
	"fmt"
	"strconv"
)

// FormatValue renders a decoded JSON value as it should appear in a path, header, query
// parameter, or form field. Whole numbers have no decimal point.
func FormatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
