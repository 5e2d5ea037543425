package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"engine-inspector/internal/domain/model"
	"engine-inspector/internal/services/wizard"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
	headerColor  = color.New(color.FgCyan, color.Bold)
	mutedColor   = color.New(color.FgHiBlack)
)

func printSuccess(w io.Writer, format string, a ...any) {
	successColor.Fprint(w, "✓ ")
	fmt.Fprintf(w, format+"\n", a...)
}

func printWarning(w io.Writer, format string, a ...any) {
	warnColor.Fprint(w, "! ")
	fmt.Fprintf(w, format+"\n", a...)
}

func printHeader(w io.Writer, title string) {
	headerColor.Fprintln(w, title)
	mutedColor.Fprintln(w, strings.Repeat("─", len([]rune(title))))
}

// badge 按状态的固定外观着色输出“图标 + 标签”。
func badge(a model.Appearance) string {
	return color.RGB(a.Color.R, a.Color.G, a.Color.B).Sprintf("%s %s", a.Glyph, a.Label)
}

// cliNotifier 把表单提交结果打印到终端。
type cliNotifier struct {
	out io.Writer
}

func (n cliNotifier) Notify(_ context.Context, note wizard.Notification) {
	if note.Level == wizard.LevelWarning {
		printWarning(n.out, "%s: %s (%s)", note.Title, note.Message, note.EntryID)
	} else {
		printSuccess(n.out, "%s: %s (%s)", note.Title, note.Message, note.EntryID)
	}
	if note.PDFPath != "" {
		mutedColor.Fprintf(n.out, "  pdf: %s\n", note.PDFPath)
	}
}

func printWarnings(w io.Writer, warnings []string) {
	for _, m := range warnings {
		printWarning(w, "%s", m)
	}
}
