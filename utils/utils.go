package utils

import "fmt"

// Str renders loosely-typed JSON values as strings, empty on nil.
func Str(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
