package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mabhi256/gvm/internal/jvm"
	"github.com/mabhi256/gvm/internal/monitor"
	"github.com/mabhi256/gvm/utils"
	"github.com/spf13/cobra"
)

var (
	classpath  string
	heapSize   string
	output     string
	printTrace bool
)

var traceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CC3333")).Bold(true)

var runCmd = &cobra.Command{
	Use: "run [main-class] [java-args...]",
	Short: `Run the main method of a Java class.

The main class is looked up under the classpath root (--cp), with '.' or '/'
accepted as package separator. Remaining arguments are passed to main as a
String[].

Output Formats:
  cli   Plain program output (default)
  tui   Program output plus a live execution monitor

Examples:
  gvm run Hello						# Run Hello.class from the current directory
  gvm run --cp build com.example.Main a b c	# Classpath root and program arguments
  gvm run --print-trace Hello			# Log every interpreted instruction to stderr
  gvm run -o tui --heap 128M Hello		# Live monitor with a 128M heap`,
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completeMainClass,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		validFormats := []string{"cli", "tui"}
		if !slices.Contains(validFormats, output) {
			return fmt.Errorf("invalid output format: %s. Valid options: %v", output, validFormats)
		}

		if _, err := utils.ParseMemorySize(heapSize); err != nil {
			return fmt.Errorf("invalid heap size: %w", err)
		}

		info, err := os.Stat(classpath)
		if os.IsNotExist(err) {
			return fmt.Errorf("classpath does not exist: %s", classpath)
		}
		if err == nil && !info.IsDir() {
			return fmt.Errorf("classpath is not a directory: %s", classpath)
		}

		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		heap := utils.MustParseMemorySize(heapSize)

		vm, err := jvm.New(jvm.Options{
			Classpath:  classpath,
			HeapWords:  int(heap.Bytes() / 8),
			PrintTrace: printTrace,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error starting VM: %v\n", err)
			os.Exit(1)
		}

		var runErr error
		switch output {
		case "tui":
			done := make(chan error, 1)
			go func() {
				done <- vm.RunMain(args[0], args[1:])
			}()
			if err := monitor.Run(vm, done); err != nil {
				fmt.Fprintf(os.Stderr, "Monitor error: %v\n", err)
			}
			runErr = <-done
		default:
			runErr = vm.RunMain(args[0], args[1:])
		}

		if runErr != nil {
			var uncaught *jvm.UncaughtException
			if errors.As(runErr, &uncaught) {
				fmt.Fprintln(os.Stderr, traceStyle.Render(uncaught.Trace))
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
			}
			os.Exit(1)
		}
	},
}

// completeMainClass offers fully-qualified class names found under the
// classpath root, in dotted form. Only the first positional argument is a
// class name; everything after it goes to the program untouched.
func completeMainClass(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	prefix := strings.ReplaceAll(toComplete, "/", ".")
	var suggestions []string
	filepath.WalkDir(classpath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".class") {
			return nil
		}
		rel, err := filepath.Rel(classpath, path)
		if err != nil {
			return nil
		}
		name := strings.ReplaceAll(strings.TrimSuffix(rel, ".class"),
			string(filepath.Separator), ".")
		if strings.HasPrefix(name, prefix) {
			suggestions = append(suggestions, name)
		}
		return nil
	})

	slices.Sort(suggestions)
	return suggestions, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&classpath, "cp", ".", "Classpath root directory")
	runCmd.Flags().StringVar(&heapSize, "heap", "512M", "Object arena capacity")
	runCmd.Flags().StringVarP(&output, "output", "o", "cli", "Output format")
	runCmd.Flags().BoolVar(&printTrace, "print-trace", false, "Log every interpreted instruction")

	// When user types: gvm run Hello -o <TAB>
	runCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"cli", "tui"}, cobra.ShellCompDirectiveNoFileComp
	})
}
