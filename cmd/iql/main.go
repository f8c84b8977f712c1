package main

import (
	"fmt"
	"os"

	"github.com/brimdata/iql/cmd/iql/canon"
	"github.com/brimdata/iql/cmd/iql/root"
	"github.com/brimdata/iql/cmd/iql/run"
	"github.com/brimdata/iql/pkg/charm"
)

func main() {
	iql := root.IQL
	iql.Add(run.Cmd)
	iql.Add(canon.Cmd)
	iql.Add(charm.Help)
	if err := iql.ExecRoot(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
