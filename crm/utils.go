package crm

import (
	"strconv"
	"strings"
)

func toBoolean(intf any) (result bool, ok bool) {
	if intf == nil {
		return
	}
	var supportedValue any
	switch fv := intf.(type) {
	case bool, string:
		supportedValue = fv
	case []any:
		if len(fv) > 0 {
			switch fv[0].(type) {
			case bool, string:
				supportedValue = fv[0]
			}
		}
	}
	if supportedValue != nil {
		switch fv := supportedValue.(type) {
		case bool:
			result = fv
			ok = true
		case string:
			switch strings.ToLower(fv) {
			case "1", "true", "ok":
				result = true
				ok = true
			case "0", "false":
				result = false
				ok = true
			}
		}
	}
	return
}

func toString(intf any) (result string, ok bool) {
	if intf == nil {
		return
	}
	result, ok = intf.(string)
	return
}

func toFloat64(intf any) (result float64, ok bool) {
	if intf == nil {
		return
	}
	ok = true
	switch iv := intf.(type) {
	case int:
		result = float64(iv)
	case int32:
		result = float64(iv)
	case int64:
		result = float64(iv)
	case float32:
		result = float64(iv)
	case float64:
		result = iv
	case string:
		if irv, err := strconv.ParseFloat(iv, 64); err == nil {
			result = irv
		} else {
			ok = false
		}
	case []any:
		if len(iv) > 0 {
			return toFloat64(iv[0])
		}
		ok = false
	default:
		ok = false
	}
	return
}
