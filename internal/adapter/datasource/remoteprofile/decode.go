// file: internal/adapter/datasource/remoteprofile/decode.go
package remoteprofile

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Kind 标记 Value 实际承载的 JSON 类型。
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value 是无模式解析出的 JSON 值。对象保留键的出现顺序 (Keys)，
// 数字以 json.Number 保存，避免大整数经 float64 转换失真。
type Value struct {
	Kind Kind
	Bool bool
	Num  json.Number
	Str  string
	Arr  []Value
	Keys []string
	Obj  map[string]Value
}

// Field 返回对象值中指定键的字段。非对象值一律返回未命中。
func (v Value) Field(key string) (Value, bool) {
	if v.Kind != KindObject {
		return Value{}, false
	}
	f, ok := v.Obj[key]
	return f, ok
}

// Interface 将 Value 还原为普通 Go 值，供 Row 使用。
func (v Value) Interface() any {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Num
	case KindString:
		return v.Str
	case KindArray:
		out := make([]any, len(v.Arr))
		for i, e := range v.Arr {
			out[i] = e.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.Obj))
		for k, e := range v.Obj {
			out[k] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// parseBody 将原始响应体解析为单个 Value。体内只允许一个顶层 JSON 值。
func parseBody(body string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	val, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}

	// 顶层值之后不允许有额外内容
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("JSON 顶层值之后存在多余内容")
	}
	return val, nil
}

// decodeValue 从解码器读取一个完整的 JSON 值。
func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return Value{}, fmt.Errorf("非预期的 JSON 定界符: %v", t)
		}
	case bool:
		return Value{Kind: KindBool, Bool: t}, nil
	case json.Number:
		return Value{Kind: KindNumber, Num: t}, nil
	case string:
		return Value{Kind: KindString, Str: t}, nil
	case nil:
		return Value{Kind: KindNull}, nil
	default:
		return Value{}, fmt.Errorf("非预期的 JSON token: %v", tok)
	}
}

// decodeObject 读取对象剩余部分。重复键以后者为准，但 Keys 中只记录一次。
func decodeObject(dec *json.Decoder) (Value, error) {
	v := Value{
		Kind: KindObject,
		Obj:  make(map[string]Value),
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("对象键类型非法: %v", keyTok)
		}
		field, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		if _, seen := v.Obj[key]; !seen {
			v.Keys = append(v.Keys, key)
		}
		v.Obj[key] = field
	}
	// 消费收尾的 '}'
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return v, nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	v := Value{Kind: KindArray}
	for dec.More() {
		elem, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		v.Arr = append(v.Arr, elem)
	}
	// 消费收尾的 ']'
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return v, nil
}
