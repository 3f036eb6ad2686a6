package binder

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// bindToStruct copies values into the fields of the struct pointed to by v
// carrying tag. Supported field kinds: string, bool, ints, []string and
// pointers to those scalars. Absent values leave fields untouched.
func bindToStruct(v any, tag string, values url.Values, errKind error) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrInvalidTarget
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
		if name == "" || name == "-" {
			continue
		}
		vals, ok := values[name]
		if !ok || len(vals) == 0 {
			continue
		}
		if err := setField(rv.Field(i), vals); err != nil {
			return fmt.Errorf("%w: %s: %v", errKind, name, err)
		}
	}
	return nil
}

func setField(f reflect.Value, vals []string) error {
	switch f.Kind() {
	case reflect.Pointer:
		elem := reflect.New(f.Type().Elem())
		if err := setScalar(elem.Elem(), vals[0]); err != nil {
			return err
		}
		f.Set(elem)
		return nil
	case reflect.Slice:
		if f.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", f.Type())
		}
		f.Set(reflect.ValueOf(append([]string(nil), vals...)).Convert(f.Type()))
		return nil
	default:
		return setScalar(f, vals[0])
	}
}

func setScalar(f reflect.Value, s string) error {
	switch f.Kind() {
	case reflect.String:
		f.SetString(s)
	case reflect.Bool:
		b, err := parseBool(s)
		if err != nil {
			return err
		}
		f.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetInt(n)
	default:
		return fmt.Errorf("unsupported field type %s", f.Type())
	}
	return nil
}

// parseBool also accepts "on", the value browsers send for checked checkboxes.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes":
		return true, nil
	case "off", "no", "":
		return false, nil
	}
	return strconv.ParseBool(s)
}
