// Package normalize приводит документы хранилища к каноническим записям.
//
// Документы, созданные разными версиями оформления заказа, называют одни и те же
// поля по-разному (shipping_info и shippingAddress, total и totalAmount и т. п.).
// Ядро видит только результат этого пакета.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMalformed возвращается для документа без обязательных полей или с полями неверного типа.
var ErrMalformed = errors.New("malformed document")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

type document map[string]json.RawMessage

func parse(data []byte) (document, error) {
	var d document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, malformed("decode: %v", err)
	}
	if d == nil {
		return nil, malformed("document is null")
	}
	return d, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// first возвращает значение первого присутствующего непустого ключа.
func (d document) first(keys ...string) (json.RawMessage, string, bool) {
	for _, k := range keys {
		if raw, ok := d[k]; ok && !isNull(raw) {
			return raw, k, true
		}
	}
	return nil, "", false
}

func (d document) str(keys ...string) string {
	raw, _, ok := d.first(keys...)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	// числовые идентификаторы встречаются в старых документах
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func (d document) sub(keys ...string) document {
	raw, _, ok := d.first(keys...)
	if !ok {
		return nil
	}
	var s document
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return s
}

func (d document) list(keys ...string) ([]json.RawMessage, error) {
	raw, key, ok := d.first(keys...)
	if !ok {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, malformed("%s is not a list", key)
	}
	return items, nil
}

func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(s)
	}
	return decimal.NewFromString(string(bytes.TrimSpace(raw)))
}

// amount возвращает денежное значение, записанное числом или строкой.
func (d document) amount(keys ...string) (decimal.Decimal, bool, error) {
	raw, key, ok := d.first(keys...)
	if !ok {
		return decimal.Zero, false, nil
	}
	v, err := parseAmount(raw)
	if err != nil {
		return decimal.Zero, false, malformed("%s is not a number", key)
	}
	return v, true, nil
}

func (d document) integer(keys ...string) (int, bool, error) {
	v, ok, err := d.amount(keys...)
	if err != nil || !ok {
		return 0, ok, err
	}
	return int(v.IntPart()), true, nil
}

func (d document) boolean(keys ...string) (bool, bool) {
	raw, _, ok := d.first(keys...)
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return v, true
		}
	}
	return false, false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime понимает строки RFC 3339, Unix-время в секундах или миллисекундах
// и объекты вида {"seconds": ..., "nanoseconds": ...}.
// Строки без смещения считаются временем UTC.
func parseTime(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unknown time format %q", s)
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		v, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return time.Time{}, err
			}
			v = int64(f)
		}
		if v > 1e11 {
			return time.UnixMilli(v).UTC(), nil
		}
		return time.Unix(v, 0).UTC(), nil
	}

	var ts struct {
		Seconds      *int64 `json:"seconds"`
		Nanoseconds  int64  `json:"nanoseconds"`
		LSeconds     *int64 `json:"_seconds"`
		LNanoseconds int64  `json:"_nanoseconds"`
	}
	if err := json.Unmarshal(raw, &ts); err == nil {
		switch {
		case ts.Seconds != nil:
			return time.Unix(*ts.Seconds, ts.Nanoseconds).UTC(), nil
		case ts.LSeconds != nil:
			return time.Unix(*ts.LSeconds, ts.LNanoseconds).UTC(), nil
		}
	}
	return time.Time{}, errors.New("unsupported time value")
}

func (d document) timestamp(keys ...string) (time.Time, bool, error) {
	raw, key, ok := d.first(keys...)
	if !ok {
		return time.Time{}, false, nil
	}
	t, err := parseTime(raw)
	if err != nil {
		return time.Time{}, false, malformed("%s: %v", key, err)
	}
	return t, true, nil
}
