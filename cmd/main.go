package main

import (
	"github.com/pdu-collector/cmd/agent"
)

func main() {
	agent.Execute()
}
