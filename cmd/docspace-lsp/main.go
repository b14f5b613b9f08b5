package main

import (
	"os"

	"github.com/jsvensson/docspace/internal/lsp"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var version = "dev"

// configure matches the defaults of "docspace serve".
func configure() {
	commonlog.Configure(1, nil)
	lsp.DetectDeadlocks(false)
}

func main() {
	configure()
	s := lsp.NewServer(version)
	if err := s.Run(); err != nil {
		os.Exit(1)
	}
}
