package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/xDarkicex/deltasat/engine"
	"github.com/xDarkicex/deltasat/rational"
	"github.com/xDarkicex/deltasat/satengine"
	"github.com/xDarkicex/deltasat/smtlib"
	"github.com/xDarkicex/deltasat/theory"
)

// SolveCommand implements `deltasat solve <file.smt2> [flags]` per
// spec.md §6's flag table.
type SolveCommand struct {
	Log hclog.Logger
}

func (c *SolveCommand) Help() string {
	return strings.TrimSpace(`
Usage: deltasat solve <file.smt2> [flags]

  Runs the SMT-LIB2 script through the delta-complete QF_LRA/QF_LIA
  solver and prints "delta-sat" or "unsat" for each check-sat.

Flags:
  --lp-solver {qsoptex,soplex}        selects the rational LP backend label
  --precision <decimal>               sets delta > 0 (0 means exhaustive)
  --exhaustive                        equivalent to --precision 0
  --random-seed <n>                   seeds the SAT engine (0 = deterministic)
  --sat-default-phase {false,true,jw,rjw}
`)
}

func (c *SolveCommand) Synopsis() string {
	return "Solve a QF_LRA/QF_LIA SMT-LIB2 script"
}

func (c *SolveCommand) Run(args []string) int {
	fs := flag.NewFlagSet("solve", flag.ContinueOnError)
	lpSolver := fs.String("lp-solver", "soplex", "rational LP backend label (qsoptex, soplex)")
	precisionStr := fs.String("precision", "0", "delta precision, 0 means exhaustive")
	exhaustive := fs.Bool("exhaustive", false, "equivalent to --precision 0")
	randomSeed := fs.Int64("random-seed", 0, "SAT engine seed (0 = deterministic)")
	phaseStr := fs.String("sat-default-phase", "false", "SAT variable phase policy: false,true,jw,rjw")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	_ = lpSolver // both labels name the same built-in exact simplex today

	rest := fs.Args()
	// Flags may also follow the script path, as in the usage line.
	if len(rest) > 1 {
		path := rest[0]
		if err := fs.Parse(rest[1:]); err != nil {
			return 1
		}
		rest = append([]string{path}, fs.Args()...)
	}
	if len(rest) != 1 {
		c.Log.Error("expected exactly one script path", "got", rest)
		fmt.Fprintln(os.Stderr, c.Help())
		return 1
	}

	precision := rational.Zero()
	if !*exhaustive {
		q, err := rational.FromDecimal(*precisionStr)
		if err != nil {
			c.Log.Error("invalid --precision", "value", *precisionStr, "err", err)
			return 1
		}
		precision = q
	}

	phase, err := parsePhase(*phaseStr)
	if err != nil {
		c.Log.Error("invalid --sat-default-phase", "value", *phaseStr, "err", err)
		return 1
	}

	f, err := os.Open(rest[0])
	if err != nil {
		c.Log.Error("cannot open script", "path", rest[0], "err", err)
		return 1
	}
	cmds, err := (smtlib.SExprParser{}).Parse(f)
	closeErr := f.Close()

	var cleanupErrs *multierror.Error
	cleanupErrs = multierror.Append(cleanupErrs, closeErr)
	if err != nil {
		cleanupErrs = multierror.Append(cleanupErrs, err)
		c.Log.Error("parse error", "err", cleanupErrs.ErrorOrNil())
		return 1
	}

	ctx := engine.NewContext(engine.Config{
		Precision:        precision,
		Exhaustive:       *exhaustive,
		RandomSeed:       *randomSeed,
		SATDefaultPhase:  phase,
		ScopedAssertions: true,
		Log:              c.Log.Named("engine"),
	}, theory.NewSimplex())

	defer func() {
		ctx.Close()
		if err := cleanupErrs.ErrorOrNil(); err != nil {
			c.Log.Warn("cleanup reported errors", "err", err)
		}
	}()

	interp := smtlib.NewInterpreter(ctx)
	if err := interp.Run(cmds); err != nil {
		c.Log.Error("solve failed", "err", err)
		return 1
	}

	for _, r := range interp.Results() {
		printVerdict(r)
	}
	return 0
}

func parsePhase(s string) (satengine.Phase, error) {
	switch s {
	case "false":
		return satengine.PhaseFalse, nil
	case "true":
		return satengine.PhaseTrue, nil
	case "jw":
		return satengine.PhaseJeroslowWang, nil
	case "rjw":
		return satengine.PhaseRandomJeroslowWang, nil
	default:
		return 0, fmt.Errorf("unknown phase policy %q", s)
	}
}

func printVerdict(r smtlib.Result) {
	switch r.Verdict {
	case engine.VerdictUnsat:
		color.New(color.FgRed).Println("unsat")
		return
	case engine.VerdictSat:
		color.New(color.FgGreen).Println("delta-sat")
	case engine.VerdictDeltaSat:
		color.New(color.FgYellow).Printf("delta-sat (precision %s)\n", r.Precision)
	}
	if r.Model != nil {
		fmt.Println(r.Model.String())
	}
}
