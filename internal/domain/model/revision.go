package model

import "strings"

// RevisionTransferred 是“从其他设备调拨”的维修类型，
// 只有选择该类型时表单才会出现“来源发动机”字段。
const RevisionTransferred = "Transfert"

// DefaultRevisionTypes 是维修类型列表的出厂默认值（设置页可增删）。
func DefaultRevisionTypes() []string {
	return []string{
		"Préventive",
		"Corrective",
		"Complète",
		"Périodique",
		"Après panne",
		RevisionTransferred,
	}
}

// IsTransferred 判断维修类型是否为调拨（忽略大小写与首尾空白）。
func IsTransferred(revisionType string) bool {
	return strings.EqualFold(strings.TrimSpace(revisionType), RevisionTransferred)
}
