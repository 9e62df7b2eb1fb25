// file: internal/service/query_service_test.go
package service

import (
	"ProfileRelay/internal/core/domain"
	"reflect"
	"testing"
)

func sampleRows() []domain.Row {
	return []domain.Row{
		{"login": "alpha", "company": "GitHub", "followers": 10},
		{"login": "beta", "company": "GitHub", "followers": 30},
		{"login": "gamma", "company": "Acme", "followers": 20},
	}
}

func TestEvalFilter_Leaf(t *testing.T) {
	row := domain.Row{"login": "alpha", "followers": 10}

	if !EvalFilter(&domain.FilterNode{Field: "login", Value: "alpha"}, row) {
		t.Error("命中的叶子谓词应为真")
	}
	if EvalFilter(&domain.FilterNode{Field: "login", Value: "beta"}, row) {
		t.Error("未命中的叶子谓词应为假")
	}
	// 数值列经字符串化比较
	if !EvalFilter(&domain.FilterNode{Field: "followers", Value: "10"}, row) {
		t.Error("数值字段应按字符串化后的值比较")
	}
	// 缺失的列永不命中
	if EvalFilter(&domain.FilterNode{Field: "missing", Value: ""}, row) {
		t.Error("行中不存在的列不应命中")
	}
}

func TestEvalFilter_Branches(t *testing.T) {
	row := domain.Row{"login": "alpha", "company": "GitHub"}

	and := &domain.FilterNode{Op: "and", Children: []*domain.FilterNode{
		{Field: "login", Value: "alpha"},
		{Field: "company", Value: "GitHub"},
	}}
	if !EvalFilter(and, row) {
		t.Error("and 分支所有子节点命中时应为真")
	}

	or := &domain.FilterNode{Op: "or", Children: []*domain.FilterNode{
		{Field: "login", Value: "nope"},
		{Field: "company", Value: "GitHub"},
	}}
	if !EvalFilter(or, row) {
		t.Error("or 分支任一子节点命中时应为真")
	}

	if EvalFilter(&domain.FilterNode{Op: "or", Children: []*domain.FilterNode{
		{Field: "login", Value: "nope"},
	}}, row) {
		t.Error("or 分支无子节点命中时应为假")
	}

	if !EvalFilter(nil, row) {
		t.Error("nil 过滤器应恒为真")
	}
}

func TestFilterRows_KeepsOrder(t *testing.T) {
	rows := FilterRows(sampleRows(), &domain.FilterNode{Field: "company", Value: "GitHub"})
	if len(rows) != 2 {
		t.Fatalf("期望 2 行, got=%d", len(rows))
	}
	if rows[0]["login"] != "alpha" || rows[1]["login"] != "beta" {
		t.Errorf("过滤后应保持原顺序, got=%v, %v", rows[0]["login"], rows[1]["login"])
	}
}

func TestSortRows(t *testing.T) {
	rows := sampleRows()
	SortRows(rows, "login", true)

	var got []string
	for _, r := range rows {
		got = append(got, r["login"].(string))
	}
	want := []string{"gamma", "beta", "alpha"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("降序排序不正确\n  got : %v\n  want: %v", got, want)
	}

	// 空字段名不动原顺序
	rows2 := sampleRows()
	SortRows(rows2, "", false)
	if rows2[0]["login"] != "alpha" {
		t.Error("field 为空时不应排序")
	}
}

func TestPaginate(t *testing.T) {
	rows := sampleRows()

	page2 := Paginate(rows, 2, 2)
	if len(page2) != 1 || page2[0]["login"] != "gamma" {
		t.Errorf("第二页应只含最后一行, got=%v", page2)
	}

	// 越界页码返回空集而非报错
	empty := Paginate(rows, 9, 2)
	if len(empty) != 0 {
		t.Errorf("越界页码应返回空集, got=%d 行", len(empty))
	}

	// page/size 非法值触发默认：page=1, size=50
	all := Paginate(rows, 0, 0)
	if len(all) != 3 {
		t.Errorf("默认分页应覆盖全部样本行, got=%d", len(all))
	}

	// size 超限被钳制到上限
	clamped := Paginate(rows, 1, maxPageSize+1)
	if len(clamped) != 3 {
		t.Errorf("超限 size 应被钳制而非报错, got=%d", len(clamped))
	}
}
