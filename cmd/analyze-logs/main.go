package main

import "github.com/replicatedhq/testlog-analyzer/cmd/analyze-logs/cli"

func main() {
	cli.InitAndExecute()
}
