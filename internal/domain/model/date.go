package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout 是记录中 date 字段的格式（仅年月日，不涉及时区）。
const DateLayout = "2006-01-02"

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// ParseDate 解析 YYYY-MM-DD，返回 UTC 零点。
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expect YYYY-MM-DD)", s)
	}
	return t, nil
}

// FormatDate 将时间格式化为记录使用的 YYYY-MM-DD。
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatDateFR 输出报告抬头使用的法文长日期，例如 "05 mars 2025"。
// 无法解析时原样返回。
func FormatDateFR(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), frenchMonths[t.Month()-1], t.Year())
}

// FormatDateFile 输出文件名使用的 dd-MM-yyyy；无法解析时返回 "00-00-0000"。
func FormatDateFile(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return "00-00-0000"
	}
	return t.Format("02-01-2006")
}
