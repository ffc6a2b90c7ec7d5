// tooldb-manager manages tool libraries and recommends feeds and speeds.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	clihander "github.com/apex/log/handlers/cli"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hzeller/tooldb/tooldb"
	"github.com/hzeller/tooldb/tooldb/serializer"
)

const usage = "tooldb-manager [-f FORMAT] [--config FILE] [-V] <name> COMMAND"

// app is the state shared by all commands of one invocation.
type app struct {
	v      *viper.Viper
	name   string // DB name; for file based formats the path
	format string

	supplier tooldb.ParamSupplier
	choose   tooldb.ChooseFunc
}

func (a *app) serializer() (tooldb.Serializer, error) {
	return serializer.New(a.format, a.name)
}

// load reads the whole database.
func (a *app) load() (*tooldb.ToolDB, tooldb.Serializer, error) {
	ser, err := a.serializer()
	if err != nil {
		return nil, nil, err
	}
	db := tooldb.NewToolDB()
	if err := db.Deserialize(ser); err != nil {
		return nil, nil, errors.Wrapf(err, "%s", a.name)
	}
	return db, ser, nil
}

type globalFlags struct {
	format  string
	cfgFile string
	verbose bool
}

// parseGlobalFlags parses the flags in front of the DB name. The name and
// everything after it is returned untouched; the command line after the
// name belongs to the subcommands.
func parseGlobalFlags(args []string) (*globalFlags, *pflag.FlagSet, []string, error) {
	g := &globalFlags{}
	fs := pflag.NewFlagSet("tooldb-manager", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&g.format, "format", "f", "freecad",
		"the type (format) of the library: "+strings.Join(serializer.Formats(), ", "))
	fs.StringVar(&g.cfgFile, "config", "", "config file (default is $HOME/.config/tooldb/config.yaml)")
	fs.BoolVarP(&g.verbose, "verbose", "V", false, "verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, fs, nil, err
	}
	return g, fs, fs.Args(), nil
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: %s\n\nFlags:\n%s\nCommands:\n", usage, fs.FlagUsages())
	for _, cmd := range newRootCmd(&app{}).Commands() {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.Name(), cmd.Short)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	g, fs, rest, err := parseGlobalFlags(args)
	if errors.Is(err, pflag.ErrHelp) {
		printUsage(stdout, fs)
		return nil
	}
	if err == nil && len(rest) == 0 {
		err = errors.New("missing DB name")
	}
	if err != nil {
		printUsage(stderr, fs)
		return err
	}
	if g.verbose {
		log.SetLevel(log.DebugLevel)
	}

	v, err := loadConfig(g.cfgFile)
	if err != nil {
		return err
	}
	if err := v.BindPFlag("format", fs.Lookup("format")); err != nil {
		return err
	}
	a := &app{
		v:        v,
		name:     rest[0],
		format:   v.GetString("format"),
		supplier: surveySupplier{},
		choose:   surveyChooser,
	}
	if _, err := a.serializer(); err != nil {
		printUsage(stderr, fs)
		return err
	}

	root := newRootCmd(a)
	root.SetArgs(rest[1:])
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "tooldb-manager [-f FORMAT] <name>",
		Short:         "CLI tool to manage a tool library",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "no command given, nothing to do")
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(
		newLsCmd(a),
		newExportCmd(a),
		newCreateCmd(a),
		newFeedsCmd(a),
		newMaterialsCmd(a),
		newSearchCmd(a),
		newServeCmd(a),
	)
	return root
}

func main() {
	log.SetHandler(clihander.Default)
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
