// Package conflict обнаруживает и разрешает конкурентные правки одной
// записи с разных устройств. Стратегия слияния выбирается по категории
// поля: свободный текст сливается по последней записи, статусные поля
// всегда требуют ручного решения, коллекции позиций объединяются
// поэлементно, производные суммы пересчитываются, справочные данные
// принимает сторона сервера.
package conflict

import "strings"

// Category определяет стратегию слияния для поля.
type Category string

const (
	// CategoryFreeText - свободный текст и контактные данные,
	// последняя правка по wall-clock времени выигрывает
	CategoryFreeText Category = "free_text"
	// CategoryStatus - статус и жизненный цикл записи,
	// автослияние запрещено
	CategoryStatus Category = "status"
	// CategoryLineItems - коллекция позиций с стабильными ID,
	// объединение добавлений, свежая правка на позицию,
	// конкурентное удаление позиции сильнее правки
	CategoryLineItems Category = "line_items"
	// CategoryDerived - вычисляемые суммы, никогда не сливаются
	// напрямую, пересчитываются из слитых входов
	CategoryDerived Category = "derived"
	// CategoryReference - разделяемые справочные данные,
	// серверная версия выигрывает
	CategoryReference Category = "reference"
)

type rule struct {
	prefix   string
	category Category
}

// Registry сопоставляет путям полей категории слияния.
// Правила сравниваются по префиксу сегментов пути
// ("items" покрывает "items.<itemID>.price"), выигрывает самый длинный.
type Registry struct {
	rules    []rule
	fallback Category
}

// NewRegistry creates an empty registry with the given fallback category
func NewRegistry(fallback Category) *Registry {
	return &Registry{fallback: fallback}
}

// Register adds a path-prefix rule. Later registrations of the same
// prefix override earlier ones.
func (r *Registry) Register(prefix string, category Category) {
	for i := range r.rules {
		if r.rules[i].prefix == prefix {
			r.rules[i].category = category
			return
		}
	}
	r.rules = append(r.rules, rule{prefix: prefix, category: category})
}

// Categorize returns the merge category for a field path.
// Побеждает самое длинное совпадение по сегментам пути.
func (r *Registry) Categorize(path string) Category {
	best := r.fallback
	bestLen := -1

	for _, rl := range r.rules {
		if !segmentPrefix(path, rl.prefix) {
			continue
		}
		if len(rl.prefix) > bestLen {
			best = rl.category
			bestLen = len(rl.prefix)
		}
	}

	return best
}

// segmentPrefix проверяет, что prefix совпадает с началом path
// по границам сегментов ("item" не покрывает "items").
func segmentPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+".")
}

// DefaultRegistry returns the field categories of the field-records domain:
// статусы и жизненный цикл, позиции сметы, вычисляемые суммы и
// справочник цен; все остальное считается свободным текстом.
func DefaultRegistry() *Registry {
	r := NewRegistry(CategoryFreeText)

	r.Register("status", CategoryStatus)
	r.Register("lifecycle", CategoryStatus)
	r.Register("approval", CategoryStatus)

	r.Register("items", CategoryLineItems)

	r.Register("total", CategoryDerived)
	r.Register("subtotal", CategoryDerived)
	r.Register("tax_total", CategoryDerived)

	r.Register("price_list", CategoryReference)
	r.Register("catalog", CategoryReference)

	return r
}
