package docstore

import (
	"encoding/json"
	"time"
)

// Типизированные аксессоры полей документа. Декодеры коллекций строятся на
// них вместо рассыпанных type assertion: числовые значения нормализуются
// независимо от того, пришёл документ из памяти (int64) или из jsonb (float64).

// timeWireFormat — фиксированная ширина дробной части, чтобы строковый порядок
// совпадал с хронологическим.
const timeWireFormat = "2006-01-02T15:04:05.000000000Z07:00"

// EncodeTime сериализует время для хранения в документе.
func EncodeTime(t time.Time) string {
	return t.UTC().Format(timeWireFormat)
}

// GetString возвращает строковое поле документа.
func GetString(data map[string]any, key string) (string, bool) {
	v, ok := data[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt возвращает целочисленное поле, нормализуя числовые представления.
func GetInt(data map[string]any, key string) (int64, bool) {
	v, ok := data[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return i, true
	default:
		return 0, false
	}
}

// GetBool возвращает булево поле документа.
func GetBool(data map[string]any, key string) (bool, bool) {
	v, ok := data[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// GetTime разбирает поле со временем, записанное EncodeTime (принимается любой
// RFC3339-совместимый вариант). Отсутствие или нечитаемое значение — ok=false.
func GetTime(data map[string]any, key string) (time.Time, bool) {
	s, ok := GetString(data, key)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
