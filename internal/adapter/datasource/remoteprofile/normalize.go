// file: internal/adapter/datasource/remoteprofile/normalize.go
package remoteprofile

import (
	"ProfileRelay/internal/core/port"
	"fmt"
)

// normalize 把远端返回的原始响应体归一化为原始条目序列。
//
// 远端可能返回四种形态：单个对象、裸数组、含 items 列表的信封、错误信封。
// 旧实现通过在原始文本上拼接 `{"items": ...}` 再解析来统一形态，并用
// `"items":` 子串探测信封；这里改为对解析后的值做结构判断，语义等价但不会
// 被嵌套内容中恰好出现的 items 键误导（错误信封优先于一切形态判断）。
//
// 条目顺序与远端列表顺序一致，不排序。
func normalize(body string) ([]Value, error) {
	val, err := parseBody(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrMalformedResponse, err)
	}

	switch val.Kind {
	case KindObject:
		if errEnvelope, ok := val.Field("error"); ok {
			return nil, remoteError(errEnvelope)
		}
		if items, ok := val.Field("items"); ok && items.Kind == KindArray {
			return collectItems(items.Arr)
		}
		// 无 items 键的对象即为单行结果
		return []Value{val}, nil

	case KindArray:
		return collectItems(val.Arr)

	default:
		return nil, fmt.Errorf("%w: 顶层值既不是对象也不是数组", port.ErrMalformedResponse)
	}
}

// collectItems 校验列表中的每个元素都是对象，并按原序收集。
func collectItems(elems []Value) ([]Value, error) {
	items := make([]Value, 0, len(elems))
	for i, e := range elems {
		if e.Kind != KindObject {
			return nil, fmt.Errorf("%w: 第 %d 个条目不是对象", port.ErrMalformedResponse, i)
		}
		items = append(items, e)
	}
	return items, nil
}

// remoteError 从错误信封中提取第一条错误消息。
// 信封形如 {"error":{"errors":[{"message":"..."}]}}；errors 列表为空或缺失
// 视为信封自身畸形，按格式错误上抛。
func remoteError(envelope Value) error {
	errList, ok := envelope.Field("errors")
	if !ok || errList.Kind != KindArray || len(errList.Arr) == 0 {
		return fmt.Errorf("%w: 错误信封缺少非空的 errors 列表", port.ErrMalformedResponse)
	}

	first := errList.Arr[0]
	msg, ok := first.Field("message")
	if !ok || msg.Kind != KindString {
		return fmt.Errorf("%w: 错误条目缺少 message 字段", port.ErrMalformedResponse)
	}

	return &port.RemoteServiceError{Message: msg.Str}
}
