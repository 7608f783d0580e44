package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Setting is one leaf of the config file, addressed by its dotted JSON
// path such as "brave.requests_per_second".
type Setting struct {
	Key    string
	Secret bool
	field  reflect.Value
}

// Settings lists every leaf of cfg in file order. The returned settings
// write through to cfg.
func Settings(cfg *Config) []Setting {
	var out []Setting
	collect("", reflect.ValueOf(cfg).Elem(), &out)
	return out
}

func collect(prefix string, v reflect.Value, out *[]Setting) {
	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct {
			collect(key, v.Field(i), out)
			continue
		}
		*out = append(*out, Setting{Key: key, Secret: f.Tag.Get("secret") == "true", field: v.Field(i)})
	}
}

// Lookup finds the setting under key.
func (c *Config) Lookup(key string) (Setting, bool) {
	for _, s := range Settings(c) {
		if s.Key == key {
			return s, true
		}
	}
	return Setting{}, false
}

// Set parses value according to the type of the setting under key.
func (c *Config) Set(key, value string) error {
	s, ok := c.Lookup(key)
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	return s.set(value)
}

// IsSecretKey reports whether key names a credential.
func IsSecretKey(key string) bool {
	s, ok := Default().Lookup(key)
	return ok && s.Secret
}

// Value returns the setting's current value.
func (s Setting) Value() any {
	return s.field.Interface()
}

// String formats the value the way Set accepts it.
func (s Setting) String() string {
	switch s.field.Kind() {
	case reflect.String:
		return s.field.String()
	case reflect.Int:
		return strconv.FormatInt(s.field.Int(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(s.field.Float(), 'g', -1, s.field.Type().Bits())
	default:
		return fmt.Sprint(s.field.Interface())
	}
}

// Display is String with credentials reduced to their last four
// characters.
func (s Setting) Display() string {
	v := s.String()
	if !s.Secret || v == "" {
		return v
	}
	if len(v) <= 4 {
		return "***"
	}
	return "***" + v[len(v)-4:]
}

func (s Setting) set(value string) error {
	switch s.field.Kind() {
	case reflect.String:
		s.field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s expects an integer, got %q", s.Key, value)
		}
		s.field.SetInt(int64(n))
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), s.field.Type().Bits())
		if err != nil {
			return fmt.Errorf("%s expects a number, got %q", s.Key, value)
		}
		s.field.SetFloat(f)
	default:
		return fmt.Errorf("%s cannot be set from the command line", s.Key)
	}
	return nil
}
