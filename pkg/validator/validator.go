package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// MinPasswordLength is the shortest password accepted for new accounts
const MinPasswordLength = 6

// FieldError reports the first rule a request field violated
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Message
}

// ValidateStruct validates a struct based on validate tags.
// Supported rules: required, email, uuid, min=N, max=N and oneof=a b c.
// Field names in errors use the json tag when present.
func ValidateStruct(s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return errors.New("not a struct")
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		value := v.Field(i)
		if value.Kind() == reflect.Ptr {
			if value.IsNil() {
				if slices.Contains(strings.Split(tag, ","), "required") {
					return &FieldError{Field: fieldName(field), Message: "is required"}
				}
				continue
			}
			value = value.Elem()
		}

		for _, rule := range strings.Split(tag, ",") {
			if msg := checkRule(value, rule); msg != "" {
				return &FieldError{Field: fieldName(field), Message: msg}
			}
		}
	}

	return nil
}

func fieldName(f reflect.StructField) string {
	if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
		return name
	}
	return f.Name
}

// checkRule returns a message when value breaks rule, or "" when it holds
func checkRule(value reflect.Value, rule string) string {
	name, arg, _ := strings.Cut(rule, "=")

	switch name {
	case "required":
		if isZero(value) {
			return "is required"
		}
	case "email":
		if value.Kind() == reflect.String && value.String() != "" && ValidateEmail(value.String()) != nil {
			return "must be a valid email"
		}
	case "uuid":
		if value.Kind() == reflect.String && value.String() != "" {
			if _, err := uuid.Parse(value.String()); err != nil {
				return "must be a valid id"
			}
		}
	case "min", "max":
		n, err := strconv.Atoi(arg)
		if err != nil || value.Kind() != reflect.String {
			return ""
		}
		length := utf8.RuneCountInString(value.String())
		if name == "min" && length < n {
			return fmt.Sprintf("must be at least %d characters", n)
		}
		if name == "max" && length > n {
			return fmt.Sprintf("must be at most %d characters", n)
		}
	case "oneof":
		// empty values are left to "required"
		if value.Kind() == reflect.String && value.String() != "" {
			options := strings.Fields(arg)
			if !slices.Contains(options, value.String()) {
				return "must be one of: " + strings.Join(options, ", ")
			}
		}
	}
	return ""
}

// isZero checks if a value is zero/empty
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return false
	}
}

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

// ValidatePassword validates a password
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password is required")
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	return nil
}

// SanitizeString sanitizes a string by removing potentially dangerous characters
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(SanitizeString(email))
}
