package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict убирает всю разметку, оставляя текст
var strict = bluemonday.StrictPolicy()

// Text очищает пользовательский текст от HTML и пробелов по краям
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// OptionalText очищает необязательное поле. Пустой результат превращается в nil
func OptionalText(s *string) *string {
	if s == nil {
		return nil
	}
	clean := Text(*s)
	if clean == "" {
		return nil
	}
	return &clean
}
