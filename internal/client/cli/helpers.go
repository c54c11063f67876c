package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iudanet/fieldkeeper/internal/models"
)

// parseFields разбирает аргументы вида key=value в поля записи.
// Значение сначала пробуем разобрать как JSON (числа, bool, списки),
// если не вышло - оставляем строкой.
func parseFields(args []string) (models.Fields, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no fields given, expected key=value arguments")
	}

	fields := models.Fields{}
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field argument %q, expected key=value", arg)
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		fields[key] = value
	}

	return fields, nil
}

// shortID обрезает UUID для табличного вывода
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
