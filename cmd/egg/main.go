package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/egg-lang/egg"
)

const version = "0.1.0"

type options struct {
	inputPath  string
	outputPath string
	name       string
	nameSet    bool
	noNorm     bool
	verbose    bool
}

var log = logrus.New()

func main() {
	if err := newRootCommand().Execute(); err != nil {
		var perr *egg.ParseError
		if errors.As(err, &perr) {
			fmt.Fprint(os.Stderr, perr.Report.String())
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "egg:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:     "egg [command] [flags] [input-file [output-file]]",
		Short:   "Parser generator for parsing expression grammars",
		Long:    "Egg reads a PEG grammar and emits a recursive-descent parser for it.",
		Version: version,
		Args:    cobra.MaximumNArgs(2),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				log.SetLevel(logrus.DebugLevel)
			}
			opts.nameSet = cmd.Flags().Changed("name")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, args, false)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.inputPath, "input", "i", "", "input file (default stdin)")
	flags.StringVarP(&opts.outputPath, "output", "o", "", "output file (default stdout)")
	flags.StringVarP(&opts.name, "name", "n", "", "grammar name (default derived from the output or input file name)")
	flags.BoolVar(&opts.noNorm, "no-norm", false, "turn off grammar normalization")
	flags.BoolVar(&opts.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(newCompileCommand(opts, flags))
	root.AddCommand(newPrintCommand(opts, flags))
	return root
}

func newCompileCommand(opts *options, flags *pflag.FlagSet) *cobra.Command {
	return &cobra.Command{
		Use:   "compile [flags] [input-file [output-file]]",
		Short: "Compile a grammar into a parser (the default)",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, args, false)
		},
	}
}

func newPrintCommand(opts *options, flags *pflag.FlagSet) *cobra.Command {
	return &cobra.Command{
		Use:   "print [flags] [input-file [output-file]]",
		Short: "Re-emit a grammar in Egg syntax",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, args, true)
		},
	}
}

func run(opts *options, args []string, printOnly bool) error {
	if len(args) > 0 && opts.inputPath == "" {
		opts.inputPath = args[0]
	}
	if len(args) > 1 && opts.outputPath == "" {
		opts.outputPath = args[1]
	}

	in, closeIn, err := openInput(opts.inputPath)
	if err != nil {
		return err
	}
	defer closeIn()

	out, closeOut, err := openOutput(opts.outputPath)
	if err != nil {
		return err
	}

	name := opts.name
	if !opts.nameSet {
		name = defaultName(opts.outputPath, opts.inputPath)
	} else {
		name = identPrefix(name)
	}

	compileOpts := egg.CompileOptions{
		Name:      name,
		Normalize: !opts.noNorm,
	}
	log.WithFields(logrus.Fields{
		"input":     displayPath(opts.inputPath),
		"output":    displayPath(opts.outputPath),
		"name":      name,
		"normalize": compileOpts.Normalize,
	}).Debug("starting run")

	if printOnly {
		err = egg.Print(in, out, compileOpts)
	} else {
		err = egg.Compile(in, out, compileOpts)
	}
	if err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening %s", path)
	}
	return bufio.NewReader(f), func() { f.Close() }, nil
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "creating %s", path)
	}
	w := bufio.NewWriter(f)
	return w, func() error {
		if err := w.Flush(); err != nil {
			f.Close()
			return errors.Wrapf(err, "flushing %s", path)
		}
		if err := f.Close(); err != nil {
			return errors.Wrapf(err, "closing %s", path)
		}
		return nil
	}, nil
}

// defaultName derives the grammar name from the output file name,
// falling back to the input file name: the longest prefix of the base
// name that is a valid Egg identifier.
func defaultName(outputPath, inputPath string) string {
	for _, path := range []string{outputPath, inputPath} {
		if path == "" {
			continue
		}
		if name := identPrefix(filepath.Base(path)); name != "" {
			return name
		}
	}
	return ""
}

// identPrefix returns the longest prefix of s that is a valid Egg
// identifier.
func identPrefix(s string) string {
	n := 0
	for ; n < len(s); n++ {
		c := s[n]
		alpha := c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_'
		if alpha {
			continue
		}
		if n > 0 && c >= '0' && c <= '9' {
			continue
		}
		break
	}
	return s[:n]
}

func displayPath(path string) string {
	if path == "" {
		return "<stdio>"
	}
	return path
}
