// Command quest is the interpreter's CLI front end (§6 external
// interfaces): run a script file, or drop into a line-editing REPL
// when none is given.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/quest-lang/quest/internal/config"
	"github.com/quest-lang/quest/internal/value"
	"github.com/quest-lang/quest/interp"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		env              string
		configDir        string
		searchPath       []string
		stdlibOverlayDir string
		cloneDebug       bool
	)

	cmd := &cobra.Command{
		Use:   "quest [script] [args...]",
		Short: "Quest language interpreter",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configDir, env)
			if err != nil {
				return err
			}
			_ = cfg // Load has applied [os.environ]; the sections are not passed to the interpreter

			opts := interp.Options{
				Stdout:           cmd.OutOrStdout(),
				Stderr:           cmd.ErrOrStderr(),
				Stdin:            cmd.InOrStdin(),
				SearchPath:       searchPath,
				StdlibOverlayDir: stdlibOverlayDir,
				CloneDebug:       cloneDebug,
			}
			if len(args) == 0 {
				return runREPL(opts)
			}
			opts.Argv = args[1:]
			return runFile(opts, args[0])
		},
	}

	cmd.Flags().StringVar(&env, "env", os.Getenv("QUEST_ENV"), "environment name, selects quest.<env>.toml")
	cmd.Flags().StringVar(&configDir, "config-dir", "", "directory holding quest.toml and its overlays")
	cmd.Flags().StringArrayVar(&searchPath, "search-path", nil, "module search-path entry (repeatable)")
	cmd.Flags().StringVar(&stdlibOverlayDir, "stdlib-overlay", "", "directory of lib/<path>.q stdlib overlays")
	cmd.Flags().BoolVar(&cloneDebug, "clone-debug", os.Getenv("QUEST_CLONE_DEBUG") != "", "trace value-clone allocations")

	return cmd
}

func runFile(opts interp.Options, path string) error {
	ip := interp.New(opts)
	_, err := ip.EvalFile(path)
	return reportErr(opts.Stderr, err)
}

// reportErr renders a raised Quest exception in the §7 display form,
// colored the way the teacher colors its own debug trace output, and
// turns a sys.exit() signal into the process's real exit code.
func reportErr(w io.Writer, err error) error {
	if err == nil {
		return nil
	}
	if code, ok := interp.ExitCode(err); ok {
		if code != 0 {
			os.Exit(code)
		}
		return nil
	}
	red := color.New(color.FgRed, color.Bold)
	if exc, ok := interp.AsException(err); ok {
		red.Fprint(w, exc.Display())
	} else {
		red.Fprintln(w, err.Error())
	}
	return err
}

func runREPL(opts interp.Options) error {
	ip := interp.New(opts)
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	prompt := color.New(color.FgCyan).Sprint("quest> ")
	fmt.Fprintln(opts.Stdout, "Quest REPL — Ctrl-D to exit")
	for {
		text, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}
			return err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		line.AppendHistory(text)

		v, evalErr := ip.EvalString(text, "")
		if evalErr != nil {
			if code, ok := interp.ExitCode(evalErr); ok {
				os.Exit(code)
			}
			printReplErr(opts.Stderr, evalErr)
			continue
		}
		if v != nil && v != value.Nil {
			fmt.Fprintln(opts.Stdout, v.Rep())
		}
	}
}

func printReplErr(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	if exc, ok := interp.AsException(err); ok {
		red.Fprint(w, exc.Display())
		return
	}
	red.Fprintln(w, err.Error())
}
