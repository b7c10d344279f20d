// Command deltasat is the CLI front end of spec.md §6: it parses a
// subset-of-SMT-LIB2 script and drives the delta-complete QF_LRA/QF_LIA
// solver over it, printing "delta-sat" or "unsat" per check-sat.
package main

import (
	"os"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-hclog"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	log := hclog.New(&hclog.LoggerOptions{
		Name:  "deltasat",
		Level: hclog.Warn,
	})

	c := &cli.CLI{
		Name:     "deltasat",
		Args:     args,
		HelpFunc: cli.BasicHelpFunc("deltasat"),
		Commands: map[string]cli.CommandFactory{
			"solve": func() (cli.Command, error) {
				return &SolveCommand{Log: log}, nil
			},
		},
	}

	exitCode, err := c.Run()
	if err != nil {
		log.Error("command failed", "err", err)
		return 1
	}
	return exitCode
}
