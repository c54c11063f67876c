// Package vclock реализует версионные векторы (version vectors) для
// установления причинно-следственного порядка между мутациями,
// сделанными на разных устройствах без общих часов.
package vclock

// Ordering представляет результат сравнения двух версионных векторов.
type Ordering int

const (
	// Equal - векторы идентичны
	Equal Ordering = iota
	// Before - первый вектор причинно предшествует второму
	Before
	// After - первый вектор причинно следует за вторым
	After
	// Concurrent - ни один вектор не доминирует (сигнал конфликта)
	Concurrent
)

// String возвращает текстовое представление результата сравнения.
func (o Ordering) String() string {
	switch o {
	case Equal:
		return "equal"
	case Before:
		return "before"
	case After:
		return "after"
	case Concurrent:
		return "concurrent"
	default:
		return "unknown"
	}
}

// VersionVector отображает deviceID в монотонно растущий счетчик мутаций
// этого устройства. Инвариант: устройство увеличивает только свой счетчик.
// Векторы сравниваются и объединяются, но никогда не изменяются на месте -
// все операции копирующие (copy-on-write).
type VersionVector map[string]uint64

// New создает новый вектор с нулевым счетчиком для заданного устройства.
func New(deviceID string) VersionVector {
	return VersionVector{deviceID: 0}
}

// Clone создает глубокую копию вектора.
// Для nil вектора возвращается пустой вектор.
func (v VersionVector) Clone() VersionVector {
	clone := make(VersionVector, len(v))
	for device, counter := range v {
		clone[device] = counter
	}
	return clone
}

// Counter возвращает счетчик устройства (0, если устройство не встречалось).
func (v VersionVector) Counter(deviceID string) uint64 {
	return v[deviceID]
}

// Increment возвращает новый вектор, в котором счетчик deviceID увеличен
// на единицу. Исходный вектор не изменяется.
func Increment(v VersionVector, deviceID string) VersionVector {
	next := v.Clone()
	next[deviceID]++
	return next
}

// Compare сравнивает два вектора и возвращает их причинный порядок.
// a Before b, если a[d] <= b[d] для каждого устройства d и a != b.
// Симметрично для After. Если ни один не доминирует - Concurrent.
func Compare(a, b VersionVector) Ordering {
	aLessEq := true // a[d] <= b[d] для всех d
	bLessEq := true // b[d] <= a[d] для всех d

	for device, counter := range a {
		if counter > b[device] {
			aLessEq = false
		}
	}
	for device, counter := range b {
		if counter > a[device] {
			bLessEq = false
		}
	}

	switch {
	case aLessEq && bLessEq:
		return Equal
	case aLessEq:
		return Before
	case bLessEq:
		return After
	default:
		return Concurrent
	}
}

// Merge возвращает поэлементный максимум двух векторов.
// Результат доминирует над обоими аргументами. Операция коммутативна,
// ассоциативна и идемпотентна. Используется после успешной синхронизации
// и после автоматического слияния конфликта.
func Merge(a, b VersionVector) VersionVector {
	merged := a.Clone()
	for device, counter := range b {
		if counter > merged[device] {
			merged[device] = counter
		}
	}
	return merged
}

// Dominates сообщает, покрывает ли вектор v другой вектор: все счетчики
// other не превышают счетчики v.
func (v VersionVector) Dominates(other VersionVector) bool {
	ord := Compare(v, other)
	return ord == After || ord == Equal
}
