package conflict

import "time"

// Коллекция позиций представлена как map[itemID]позиция, где позиция -
// объект с опциональными служебными полями "updated_at" (RFC3339) и
// "deleted" (tombstone). Удаление позиции записывается tombstone-ом,
// а не удалением ключа, иначе конкурентное удаление неотличимо от
// добавления на другой стороне.

// mergeLineItems сливает две конкурентные версии коллекции позиций:
//   - позиция только на одной стороне: добавление, включается в результат
//   - позиция на обеих сторонах: при наличии tombstone с любой стороны
//     удаление выигрывает, иначе остается более свежая правка
//
// Результат не зависит от порядка аргументов: при равных временах
// тай-брейк по лексикографически большему устройству.
func mergeLineItems(localVal, remoteVal any, localDevice, remoteDevice string) any {
	localItems := asItemMap(localVal)
	remoteItems := asItemMap(remoteVal)

	merged := make(map[string]any, len(localItems)+len(remoteItems))

	for id, item := range localItems {
		merged[id] = cloneAny(item)
	}

	for id, remoteItem := range remoteItems {
		localItem, both := localItems[id]
		if !both {
			merged[id] = cloneAny(remoteItem)
			continue
		}

		// Конкурентное удаление позиции сильнее конкурентной правки
		if isDeleted(localItem) {
			merged[id] = cloneAny(localItem)
			continue
		}
		if isDeleted(remoteItem) {
			merged[id] = cloneAny(remoteItem)
			continue
		}

		if newerItem(remoteItem, localItem, remoteDevice, localDevice) {
			merged[id] = cloneAny(remoteItem)
		}
	}

	return merged
}

// asItemMap приводит значение поля к карте позиций.
// Не-карта (поврежденное или пустое значение) трактуется как пустая коллекция.
func asItemMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}

func isDeleted(item any) bool {
	m, ok := item.(map[string]any)
	if !ok {
		return false
	}
	deleted, _ := m["deleted"].(bool)
	return deleted
}

// newerItem определяет, свежее ли a чем b, по полю updated_at.
// При равенстве выигрывает большее устройство - тот же тай-брейк,
// что и у LWW-полей, чтобы слияние было симметричным.
func newerItem(a, b any, aDevice, bDevice string) bool {
	aTime := itemTime(a)
	bTime := itemTime(b)

	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	return aDevice > bDevice
}

func itemTime(item any) time.Time {
	m, ok := item.(map[string]any)
	if !ok {
		return time.Time{}
	}

	raw, ok := m["updated_at"].(string)
	if !ok {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
