// Package validate provides struct-tag validation with Portuguese messages.
//
// Supported rules (comma-separated in the `validate` tag):
//
//	required       field must not be zero/empty
//	nullable       if empty or nil, skip the remaining rules for this field
//	email          valid email address
//	uuid           valid UUID
//	min=N          string: min length | number: min value | slice: min items
//	max=N          string: max length | number: max value | slice: max items
//	gt=N, gte=N    number greater than (or equal to) N
//	lte=N          number less than or equal to N
//	in=a,b,c       value must be one of the listed items
//	dive           validate every struct element of a slice; keys become
//	               "field.<index>.<child>"
//
// Numbers include every Go numeric kind plus any type with a
// Float64() (float64, bool) method, such as decimal.Decimal.
//
//	type ItemInput struct {
//	    ProdutoID  string `json:"produto_id" validate:"required,uuid"`
//	    Quantidade int    `json:"quantidade" validate:"required,gte=1"`
//	}
//	type Input struct {
//	    Forma string      `json:"forma_pagamento" validate:"nullable,in=dinheiro,pix"`
//	    Itens []ItemInput `json:"itens" validate:"required,min=1,dive"`
//	}
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Struct validates all exported fields of v that carry a `validate` tag.
// Returns field name → message; an empty map means no errors.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return errs
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	validateStruct(rv, "", errs)
	return errs
}

// HasErrors returns true when errs is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func validateStruct(rv reflect.Value, prefix string, errs map[string]string) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || !field.IsExported() {
			continue
		}

		name := prefix + jsonFieldName(field)
		value := rv.Field(i)
		rules := splitRules(tag)

		if value.Kind() == reflect.Ptr && !value.IsNil() {
			value = value.Elem()
		}
		if hasRule(rules, "nullable") && isEmpty(value) {
			continue
		}

		failed := false
		for _, rule := range rules {
			if rule == "nullable" || rule == "dive" {
				continue
			}
			if msg := applyRule(rule, name, value); msg != "" {
				errs[name] = msg
				failed = true
				break
			}
		}

		if !failed && hasRule(rules, "dive") && value.Kind() == reflect.Slice {
			for j := 0; j < value.Len(); j++ {
				elem := value.Index(j)
				if elem.Kind() == reflect.Ptr {
					if elem.IsNil() {
						continue
					}
					elem = elem.Elem()
				}
				if elem.Kind() == reflect.Struct {
					validateStruct(elem, fmt.Sprintf("%s.%d.", name, j), errs)
				}
			}
		}
	}
}

func applyRule(rule, field string, v reflect.Value) string {
	key, param, _ := strings.Cut(rule, "=")
	raw := display(v)

	switch key {
	case "required":
		if isEmpty(v) {
			return fmt.Sprintf("O campo %s é obrigatório.", field)
		}

	case "email":
		if !emailRE.MatchString(raw) {
			return fmt.Sprintf("O campo %s deve ser um email válido.", field)
		}
	case "uuid":
		if !uuidRE.MatchString(raw) {
			return fmt.Sprintf("O campo %s deve ser um identificador válido.", field)
		}

	case "min":
		n := mustParseFloat(param)
		switch {
		case isNumeric(v):
			if toFloat(v) < n {
				return fmt.Sprintf("O campo %s deve ser no mínimo %s.", field, param)
			}
		case v.Kind() == reflect.Slice:
			if float64(v.Len()) < n {
				return fmt.Sprintf("O campo %s deve ter pelo menos %s item(ns).", field, param)
			}
		default:
			if float64(len([]rune(raw))) < n {
				return fmt.Sprintf("O campo %s deve ter pelo menos %s caracteres.", field, param)
			}
		}
	case "max":
		n := mustParseFloat(param)
		switch {
		case isNumeric(v):
			if toFloat(v) > n {
				return fmt.Sprintf("O campo %s deve ser no máximo %s.", field, param)
			}
		case v.Kind() == reflect.Slice:
			if float64(v.Len()) > n {
				return fmt.Sprintf("O campo %s deve ter no máximo %s item(ns).", field, param)
			}
		default:
			if float64(len([]rune(raw))) > n {
				return fmt.Sprintf("O campo %s deve ter no máximo %s caracteres.", field, param)
			}
		}
	case "gt":
		if !isNumeric(v) || toFloat(v) <= mustParseFloat(param) {
			return fmt.Sprintf("O campo %s deve ser maior que %s.", field, param)
		}
	case "gte":
		if !isNumeric(v) || toFloat(v) < mustParseFloat(param) {
			return fmt.Sprintf("O campo %s deve ser maior ou igual a %s.", field, param)
		}
	case "lte":
		if !isNumeric(v) || toFloat(v) > mustParseFloat(param) {
			return fmt.Sprintf("O campo %s deve ser menor ou igual a %s.", field, param)
		}

	case "in":
		for _, a := range strings.Split(param, ",") {
			if raw == strings.TrimSpace(a) {
				return ""
			}
		}
		return fmt.Sprintf("O valor de %s é inválido.", field)
	}

	return ""
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

var (
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	uuidRE  = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// floater matches decimal.Decimal and similar numeric structs.
type floater interface {
	Float64() (float64, bool)
}

type zeroer interface {
	IsZero() bool
}

func display(v reflect.Value) string {
	if !v.IsValid() || (v.Kind() == reflect.Ptr && v.IsNil()) {
		return ""
	}
	return fmt.Sprintf("%v", v.Interface())
}

func isEmpty(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool:
		return false
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Struct:
		if z, ok := v.Interface().(zeroer); ok {
			return z.IsZero()
		}
	}
	return false
}

func isNumeric(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Struct:
		_, ok := v.Interface().(floater)
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
	if f, ok := v.Interface().(floater); ok {
		n, _ := f.Float64()
		return n
	}
	return 0
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

var knownRules = []string{
	"required", "nullable", "email", "uuid", "dive",
	"min=", "max=", "gt=", "gte=", "lte=", "in=",
}

// splitRules splits the tag by comma while keeping the values of in= intact:
// "required,in=a,b,c,max=10" → ["required", "in=a,b,c", "max=10"].
func splitRules(tag string) []string {
	var rules []string
	var current strings.Builder
	inList := false

	for i := 0; i < len(tag); i++ {
		ch := tag[i]
		if ch != ',' {
			current.WriteByte(ch)
			if !inList && current.String() == "in=" {
				inList = true
			}
			continue
		}
		if inList && !startsRule(tag[i+1:]) {
			current.WriteByte(ch)
			continue
		}
		rules = append(rules, current.String())
		current.Reset()
		inList = false
	}
	if current.Len() > 0 {
		rules = append(rules, current.String())
	}
	return rules
}

func startsRule(s string) bool {
	for _, k := range knownRules {
		if s == k || strings.HasPrefix(s, k+",") || (strings.HasSuffix(k, "=") && strings.HasPrefix(s, k)) {
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
