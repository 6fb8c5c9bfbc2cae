package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Analyze *AnalyzeCommand
	Columns *ColumnsCommand
	Preview *PreviewCommand
	Serve   *ServeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "rankscope"
	parser.LongDescription = "Classify keyword-ranking exports by URL path and keyword, and roll matched traffic up through the site's folders."

	cmds := &commands{
		Analyze: &AnalyzeCommand{globals: &globals, version: version},
		Columns: &ColumnsCommand{globals: &globals, version: version},
		Preview: &PreviewCommand{globals: &globals, version: version},
		Serve:   &ServeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("analyze", "Classify rows and aggregate traffic by subfolder",
		"Classify every row of FILE (.xlsx or .csv) by URL path and keyword match, print the traffic summary and subfolder tables, and optionally export the results.", cmds.Analyze)
	parser.AddCommand("columns", "List the columns of an export",
		"List the columns of FILE and show which ones would be used as the URL, traffic and keyword columns.", cmds.Columns)
	parser.AddCommand("preview", "Print the first rows of an export",
		"Print the header and first rows of FILE.", cmds.Preview)
	parser.AddCommand("serve", "Start the local HTTP API",
		"Start the local HTTP API for uploading exports and downloading results.", cmds.Serve)

	return parser, &globals, cmds
}

// Run is the main entry point for the rankscope CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("rankscope %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
