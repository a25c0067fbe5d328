package catalog

import "strings"

// ResolveViewParams substitutes ${name} placeholders in a table name or
// filter expression with bound ViewParamValues. The schema is already
// concrete by this point; this only substitutes parameter values into its
// table/filter text. View registration itself is an external loader's job.
func ResolveViewParams(template string, declared []ViewParam, bound map[string]ViewParamValue) (string, error) {
	out := template
	for _, p := range declared {
		v, ok := bound[p.Name]
		if !ok {
			continue // substitution is best-effort; missing params leave the placeholder for a later pass to catch
		}
		out = strings.ReplaceAll(out, "${"+p.Name+"}", viewParamLiteral(v))
	}
	return out, nil
}

func viewParamLiteral(v ViewParamValue) string {
	switch v.Type {
	case ViewParamInt:
		return itoa(v.Int)
	case ViewParamBool:
		if v.Bool {
			return "1"
		}
		return "0"
	default:
		return v.Str
	}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// RequireViewParams validates that every param the schema declares for a
// view-parameterized label/type has a bound value, returning
// ErrUnknownViewParam for any that's missing. Called when resolving a scan
// to its concrete table name.
func RequireViewParams(viewName string, declared []ViewParam, bound map[string]ViewParamValue) error {
	for _, p := range declared {
		if _, ok := bound[p.Name]; !ok {
			return ErrUnknownViewParam.New(viewName, p.Name)
		}
	}
	return nil
}
