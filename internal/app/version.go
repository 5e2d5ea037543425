package app

// 构建信息，发布时通过 -ldflags "-X engine-inspector/internal/app.Version=..." 注入。
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)
