package admin

import (
	"fmt"
	"strconv"
	"strings"
)

// decode converts a submitted value for f. It returns a user-facing
// message when the value is not acceptable.
func decode(f Field, raw interface{}) (interface{}, string) {
	switch f.Kind {
	case KindInt:
		n, err := toInt(raw)
		if err != nil {
			return nil, "Enter a whole number."
		}
		if f.NonNegative && n < 0 {
			return nil, "Ensure this value is greater than or equal to 0."
		}
		return n, ""
	case KindBool:
		return toBool(raw), ""
	case KindRef:
		n, err := toInt(raw)
		if err != nil || n <= 0 {
			return nil, "Select a valid choice. That choice is not one of the available choices."
		}
		return uint(n), ""
	case KindChoice:
		s := toString(raw)
		for _, c := range f.Choices {
			if c.Value == s {
				return s, ""
			}
		}
		return nil, fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", s)
	default:
		s := strings.TrimSpace(toString(raw))
		if f.Required && s == "" {
			return nil, "This field is required."
		}
		if f.MaxLength > 0 && len([]rune(s)) > f.MaxLength {
			return nil, fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", f.MaxLength, len([]rune(s)))
		}
		return s, ""
	}
}

func toString(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case []string:
		if len(v) == 0 {
			return ""
		}
		return v[0]
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func toInt(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("not a whole number: %v", v)
		}
		return int(v), nil
	case int:
		return v, nil
	default:
		return strconv.Atoi(strings.TrimSpace(toString(raw)))
	}
}

func toBool(raw interface{}) bool {
	if b, ok := raw.(bool); ok {
		return b
	}
	switch strings.ToLower(strings.TrimSpace(toString(raw))) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
