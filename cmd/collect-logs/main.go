package main

import "github.com/replicatedhq/testlog-analyzer/cmd/collect-logs/cli"

func main() {
	cli.InitAndExecute()
}
