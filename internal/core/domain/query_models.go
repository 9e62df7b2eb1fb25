// Package domain file: internal/core/domain/query_models.go
package domain

// FilterNode 描述一棵布尔过滤树中的一个节点。
// 叶子节点 (Children 为空) 表达一个 "列 = 值" 的精确匹配谓词；
// 分支节点通过 Op ("and" / "or") 组合子节点。
type FilterNode struct {
	Op       string        `json:"op,omitempty"`
	Field    string        `json:"field,omitempty"`
	Value    string        `json:"value,omitempty"`
	Children []*FilterNode `json:"children,omitempty"`
}

// IsLeaf 判断节点是否为叶子谓词。
func (n *FilterNode) IsLeaf() bool {
	return n != nil && len(n.Children) == 0
}

// Leaves 按先序遍历展开过滤树的所有叶子谓词。
// 遍历顺序即文档顺序，调用方依赖该顺序实现 "后者覆盖前者" 的语义。
func (n *FilterNode) Leaves() []*FilterNode {
	if n == nil {
		return nil
	}
	if n.IsLeaf() {
		return []*FilterNode{n}
	}
	var leaves []*FilterNode
	for _, child := range n.Children {
		leaves = append(leaves, child.Leaves()...)
	}
	return leaves
}

// Row 是归一化后返回给调用方的扁平键值记录。
// 除远端返回的原始字段外，还可能包含合成的 ExternalId / DisplayUrl 键。
// Row 一经构建便移交所有权，适配器不再持有或修改。
type Row map[string]any

// LocalAccount 是本地账户实体，间接查找列通过 external_login 字段与其关联。
type LocalAccount struct {
	ID            int64  `json:"id"`
	ExternalLogin string `json:"external_login"`
	DisplayName   string `json:"display_name"`
}
