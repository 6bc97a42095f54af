package docstore

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Cursor — декодированная позиция пагинации: значение сортировочного поля и
// идентификатор последнего выданного документа. Следующая страница начинается
// строго после этой позиции в порядке сортировки запроса.
type Cursor struct {
	Value any    `json:"v"`
	ID    string `json:"id"`
}

// EncodeCursor упаковывает позицию в opaque-строку для клиента.
func EncodeCursor(value any, id string) string {
	raw, err := json.Marshal(Cursor{Value: value, ID: id})
	if err != nil {
		// Значения курсора приходят из уже сериализованных документов,
		// несериализуемое значение здесь — ошибка программиста.
		panic(fmt.Sprintf("docstore: encode cursor: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor разбирает opaque-курсор; пустая строка означает первую страницу.
func DecodeCursor(s string) (Cursor, bool, error) {
	if s == "" {
		return Cursor{}, false, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, false, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, false, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return c, true, nil
}

// CompareValues сравнивает значения документных полей для сортировки и
// курсоров: числа сравниваются численно (включая смешанные int64/float64 после
// JSON-раундтрипа), строки и булевы — естественным порядком, разные типы — по
// имени типа, чтобы порядок был тотальным и стабильным.
func CompareValues(a, b any) int {
	if na, aNum := asFloat(a); aNum {
		if nb, bNum := asFloat(b); bNum {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			default:
				return 0
			}
		}
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case nil:
		if b == nil {
			return 0
		}
		return -1
	}

	ta, tb := typeRank(a), typeRank(b)
	switch {
	case ta < tb:
		return -1
	case ta > tb:
		return 1
	default:
		return 0
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int, int32, int64, float32, float64, json.Number:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}
