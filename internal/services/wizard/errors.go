package wizard

import (
	"errors"
	"sort"
	"strings"
)

// ErrFinished 表示表单已经提交，不能再修改或重复提交。
var ErrFinished = errors.New("form already finished")

// ValidationError 汇总阻止提交的字段错误，key 为 JSON 字段名。
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// add 记录一个字段错误；同一字段只保留第一条。
func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// orNil 没有字段错误时返回 nil。
func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
