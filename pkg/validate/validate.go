// Package validate implements struct-tag validation for request inputs.
//
// Rules (comma-separated in the `validate` tag):
//
//	required            field must not be zero/empty (pointers: must be non-nil)
//	nullable            if empty, skip all remaining rules for this field
//	email               valid email address
//	url                 valid http/https URL
//	uuid                valid UUID
//	hex_color           "#RGB" or "#RRGGBB"
//	alpha_dash          letters, digits, hyphens, underscores
//	numeric / integer   string holds a number / whole number
//	min=N / max=N       string: rune length | slice: length | number: value
//	gt=N gte=N lt=N lte=N
//	between=lo,hi       number or string length, inclusive
//	in=a,b,c            value must be one of the listed items
//	regex=pattern       value must match (avoid commas in pattern)
//	dive                validate the nested struct, *struct or []struct too
//
// Pointer fields are dereferenced before the rules run, so an optional
// `*string` tagged "nullable,in=a,b" is checked only when present.
// Numbers include any type with an InexactFloat64() method (decimal.Decimal).
//
// Nested errors are keyed by path: "theme_colors.primary", "items[1].quantity".
package validate

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// Struct validates all exported fields of v that carry a `validate` tag.
// Returns fieldPath → message; an empty map means v is valid.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return errs
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		walk(rv, "", errs)
	}
	return errs
}

// HasErrors returns true when the errs map is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func walk(rv reflect.Value, prefix string, errs map[string]string) {
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		name := prefix + jsonFieldName(field)
		value := rv.Field(i)
		rules := splitRules(tag)

		if hasRule(rules, "nullable") && isEmpty(value) {
			continue
		}

		if hasRule(rules, "required") && isEmpty(value) {
			errs[name] = fmt.Sprintf("The %s field is required.", name)
			continue
		}

		// Absent optional pointer: nothing more to check.
		if value.Kind() == reflect.Ptr && value.IsNil() {
			continue
		}

		// Length rules apply to the slice itself before diving.
		target := indirect(value)
		failed := false
		for _, rule := range rules {
			switch rule {
			case "required", "nullable", "dive":
				continue
			}
			if msg := applyRule(rule, name, target); msg != "" {
				errs[name] = msg
				failed = true
				break
			}
		}

		if !failed && hasRule(rules, "dive") {
			dive(target, name, errs)
		}
	}
}

func dive(v reflect.Value, name string, errs map[string]string) {
	switch v.Kind() {
	case reflect.Struct:
		walk(v, name+".", errs)
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			el := indirect(v.Index(i))
			if el.Kind() == reflect.Struct {
				walk(el, fmt.Sprintf("%s[%d].", name, i), errs)
			}
		}
	}
}

// ─── Core dispatcher ──────────────────────────────────────────────────────────

func applyRule(rule, field string, v reflect.Value) string {
	raw := stringOf(v)
	key, param, _ := strings.Cut(rule, "=")

	switch key {
	case "email":
		if !emailRE.MatchString(raw) {
			return fmt.Sprintf("The %s must be a valid email address.", field)
		}
	case "url":
		u, err := url.ParseRequestURI(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Sprintf("The %s must be a valid URL.", field)
		}
	case "uuid":
		if !uuidRE.MatchString(raw) {
			return fmt.Sprintf("The %s must be a valid UUID.", field)
		}
	case "hex_color":
		if !hexColorRE.MatchString(raw) {
			return fmt.Sprintf("The %s must be a hex colour like #D4AF37.", field)
		}
	case "alpha_dash":
		for _, c := range raw {
			if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '-' && c != '_' {
				return fmt.Sprintf("The %s field may only contain letters, numbers, dashes, and underscores.", field)
			}
		}
	case "numeric":
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return fmt.Sprintf("The %s field must be a number.", field)
		}
	case "integer":
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			return fmt.Sprintf("The %s field must be an integer.", field)
		}

	case "min":
		n := mustParseFloat(param)
		switch {
		case isNumeric(v):
			if toFloat(v) < n {
				return fmt.Sprintf("The %s must be at least %s.", field, param)
			}
		case isCollection(v):
			if float64(v.Len()) < n {
				return fmt.Sprintf("The %s must have at least %s items.", field, param)
			}
		default:
			if float64(len([]rune(raw))) < n {
				return fmt.Sprintf("The %s must be at least %s characters.", field, param)
			}
		}
	case "max":
		n := mustParseFloat(param)
		switch {
		case isNumeric(v):
			if toFloat(v) > n {
				return fmt.Sprintf("The %s must not be greater than %s.", field, param)
			}
		case isCollection(v):
			if float64(v.Len()) > n {
				return fmt.Sprintf("The %s must not have more than %s items.", field, param)
			}
		default:
			if float64(len([]rune(raw))) > n {
				return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
			}
		}
	case "gt":
		if toFloat(v) <= mustParseFloat(param) {
			return fmt.Sprintf("The %s must be greater than %s.", field, param)
		}
	case "gte":
		if toFloat(v) < mustParseFloat(param) {
			return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
		}
	case "lt":
		if toFloat(v) >= mustParseFloat(param) {
			return fmt.Sprintf("The %s must be less than %s.", field, param)
		}
	case "lte":
		if toFloat(v) > mustParseFloat(param) {
			return fmt.Sprintf("The %s must be less than or equal to %s.", field, param)
		}
	case "between":
		lo, hi, ok := strings.Cut(param, ",")
		if !ok {
			return ""
		}
		l, h := mustParseFloat(lo), mustParseFloat(hi)
		if isNumeric(v) {
			if f := toFloat(v); f < l || f > h {
				return fmt.Sprintf("The %s must be between %s and %s.", field, lo, hi)
			}
		} else if n := float64(len([]rune(raw))); n < l || n > h {
			return fmt.Sprintf("The %s must be between %s and %s characters.", field, lo, hi)
		}

	case "in":
		for _, a := range strings.Split(param, ",") {
			if raw == strings.TrimSpace(a) {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field)

	case "regex":
		re, err := compile(param)
		if err != nil {
			return fmt.Sprintf("The %s has an invalid validation pattern.", field)
		}
		if !re.MatchString(raw) {
			return fmt.Sprintf("The %s format is invalid.", field)
		}
	}

	return ""
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

var (
	emailRE    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	uuidRE     = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	hexColorRE = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

	regexCache sync.Map // pattern → *regexp.Regexp
)

func compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := regexCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexCache.Store(pattern, re)
	return re, nil
}

type floatLike interface{ InexactFloat64() float64 }

func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

func stringOf(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}
	if v.CanInterface() {
		return fmt.Sprintf("%v", v.Interface())
	}
	return ""
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool:
		return false // false is a value, not an absence
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}
	return false
}

func isCollection(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

func isNumeric(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	if v.CanInterface() {
		_, ok := v.Interface().(floatLike)
		return ok
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	if v.CanInterface() {
		if f, ok := v.Interface().(floatLike); ok {
			return f.InexactFloat64()
		}
	}
	f, _ := strconv.ParseFloat(stringOf(v), 64)
	return f
}

func mustParseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func jsonFieldName(f reflect.StructField) string {
	name := f.Tag.Get("json")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	if idx := strings.Index(name, ","); idx != -1 {
		name = name[:idx]
	}
	return name
}

// splitRules splits the tag on commas while keeping multi-value parameters
// intact: "required,in=glass,solid,max=10" → ["required","in=glass,solid","max=10"].
func splitRules(tag string) []string {
	var rules []string
	var current strings.Builder
	inParam := false

	for i := 0; i < len(tag); i++ {
		ch := tag[i]
		if ch != ',' {
			current.WriteByte(ch)
			if !inParam {
				s := current.String()
				inParam = s == "in=" || s == "between="
			}
			continue
		}
		if inParam && !looksLikeNewRule(tag[i+1:]) {
			current.WriteByte(ch)
			continue
		}
		rules = append(rules, current.String())
		current.Reset()
		inParam = false
	}
	if current.Len() > 0 {
		rules = append(rules, current.String())
	}
	return rules
}

var knownRules = []string{
	"required", "nullable", "email", "url", "uuid", "hex_color", "alpha_dash",
	"numeric", "integer", "dive", "regex=", "min=", "max=", "gt=", "gte=",
	"lt=", "lte=", "in=", "between=",
}

func looksLikeNewRule(s string) bool {
	for _, k := range knownRules {
		if !strings.HasPrefix(s, k) {
			continue
		}
		// "min=" etc. are unambiguous; bare keywords must end the token.
		if strings.HasSuffix(k, "=") || len(s) == len(k) || s[len(k)] == ',' {
			return true
		}
	}
	return false
}

func hasRule(rules []string, target string) bool {
	for _, r := range rules {
		if strings.TrimSpace(r) == target {
			return true
		}
	}
	return false
}
