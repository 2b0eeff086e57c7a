package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
)

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	var code exitCode
	if errors.As(err, &code) {
		os.Exit(code.status)
	}
	fmt.Fprintln(os.Stderr, "error: "+err.Error())
	if hint := domain.HintFrom(err); hint != "" {
		fmt.Fprintln(os.Stderr, "hint: "+hint)
	}
	os.Exit(1)
}
