// Command gullian compiles a single Gullian source file to C, and
// optionally links it into a binary.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	gbuild "github.com/GullianLanguage/Gullian/internal/build"
	"github.com/GullianLanguage/Gullian/internal/checker"
	"github.com/GullianLanguage/Gullian/internal/config"
	"github.com/GullianLanguage/Gullian/internal/diagnostic"
	"github.com/GullianLanguage/Gullian/internal/emitter"
)

var (
	verbose  bool
	homeFlag string

	errColor = color.New(color.FgRed, color.Bold)
	okColor  = color.New(color.FgGreen)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printDiagnostic(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gullian <infile> [outfile]",
		Short:         "Compile a Gullian source file to C",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(args)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&homeFlag, "home", "", "GULLIAN_HOME override: fallback import search root")
	root.AddCommand(newBuildCmd())
	return root
}

func newBuildCmd() *cobra.Command {
	var cc string
	var cflags, ldflags []string
	var binOut string

	cmd := &cobra.Command{
		Use:           "build <infile> [outfile]",
		Short:         "Compile a Gullian source file to C and link it with a system C compiler",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			entry := args[0]
			manifest, err := config.Discover(".")
			if err != nil {
				return err
			}

			outPath := manifest.ResolveOutput(entry)
			if len(args) == 2 {
				outPath = args[1]
			}

			if err := emitTo(entry, outPath, manifest); err != nil {
				return err
			}

			binPath := binOut
			if binPath == "" {
				binPath = manifest.ResolveBinary(outPath)
			}
			opts := gbuild.Options{
				CC:         cc,
				CFlags:     cflags,
				LDFlags:    ldflags,
				OutputPath: binPath,
			}
			if manifest != nil {
				if opts.CC == "" {
					opts.CC = manifest.CC
				}
				opts.CFlags = append(opts.CFlags, manifest.CFlags...)
				opts.LDFlags = append(opts.LDFlags, manifest.LDFlags...)
			}
			opts.CFlags = append(opts.CFlags, gbuild.ParseFlags(os.Getenv("GULLIAN_CFLAGS"))...)
			opts.LDFlags = append(opts.LDFlags, gbuild.ParseFlags(os.Getenv("GULLIAN_LDFLAGS"))...)
			if err := gbuild.Build(outPath, opts); err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "built %s\n", binPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&cc, "cc", "", "C compiler to invoke (default cc)")
	cmd.Flags().StringArrayVar(&cflags, "cflags", nil, "extra compiler flags")
	cmd.Flags().StringArrayVar(&ldflags, "ldflags", nil, "extra linker flags")
	cmd.Flags().StringVarP(&binOut, "bin", "b", "", "output binary path")
	return cmd
}

func runEmit(args []string) error {
	entry := args[0]
	manifest, err := config.Discover(".")
	if err != nil {
		return err
	}

	outPath := manifest.ResolveOutput(entry)
	if len(args) == 2 {
		outPath = args[1]
	}
	return emitTo(entry, outPath, manifest)
}

func emitTo(entryPath, outPath string, manifest *config.Manifest) error {
	log := newLogger()

	home := homeFlag
	if home == "" {
		home = manifest.ResolveHome()
	}

	module, reg, err := checker.CompileFile(entryPath, home, log)
	if err != nil {
		return err
	}

	text, err := emitter.Emit(module, reg, log)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, []byte(text), 0644); err != nil {
		return diagnostic.Importf(module.Name, 0, "failed to write %s: %s", outPath, err.Error())
	}
	return nil
}

// newLogger builds a per-invocation logger tagged with a run id, so that
// debug lines from one `gullian` invocation can be grepped out of a shared
// log stream.
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log.With(zap.String("run_id", uuid.NewString()))
}

func printDiagnostic(err error) {
	if _, ok := err.(*diagnostic.Diagnostic); ok {
		errColor.Fprintln(os.Stderr, err.Error())
		return
	}
	errColor.Fprintf(os.Stderr, "error: %s\n", err.Error())
}
