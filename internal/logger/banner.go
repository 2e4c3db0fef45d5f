package logger

import (
	"fmt"
	"strings"
)

const banner = `
  ____  _             _
 / ___|| |_ _ __ __ _| |_ _   _ ___
 \___ \| __| '__/ _` + "`" + ` | __| | | / __|
  ___) | |_| | | (_| | |_| |_| \__ \
 |____/ \__|_|  \__,_|\__|\__,_|___/
`

type StartupInfo struct {
	Version     string
	Addr        string
	DataDir     string
	StorageRoot string
	LogLevel    string
}

func PrintBanner(info StartupInfo) {
	fmt.Print(banner)
	fmt.Printf("                              v%s\n", info.Version)
	fmt.Println()

	maxWidth := 50
	fmt.Printf("  %s\n", strings.Repeat("─", maxWidth))
	fmt.Printf("  → Address:  http://%s\n", formatAddr(info.Addr))
	fmt.Printf("  → Data Dir: %s\n", info.DataDir)
	fmt.Printf("  → Storage:  %s\n", info.StorageRoot)
	fmt.Printf("  → Log Level: %s\n", info.LogLevel)
	fmt.Printf("  %s\n", strings.Repeat("─", maxWidth))
	fmt.Println()
}

func formatAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
