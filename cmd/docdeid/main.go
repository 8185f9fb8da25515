// Command docdeid de-identifies text using a YAML pipeline configuration.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cognicore/docdeid/internal/textsrc"
	"github.com/cognicore/docdeid/pkg/docdeid"
	"github.com/cognicore/docdeid/pkg/docdeid/config"
	"github.com/cognicore/docdeid/pkg/docdeid/lookup"
	"github.com/cognicore/docdeid/pkg/docdeid/store"
	"github.com/cognicore/docdeid/pkg/docdeid/store/sqlite"
)

// Globals are flags shared by every command.
type Globals struct {
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"warn" name:"log-level"`
}

// CLI defines the command-line interface
var CLI struct {
	Globals

	Run   RunCmd   `cmd:"" help:"De-identify a single text"`
	Batch BatchCmd `cmd:"" help:"De-identify a JSONL file of documents"`
	Dict  DictCmd  `cmd:"" help:"Manage dictionary lists in a SQLite store"`
}

// RunCmd de-identifies one text read from a file or stdin.
type RunCmd struct {
	Config  string   `help:"Pipeline configuration file" required:"" type:"existingfile"`
	Input   string   `help:"Input file, - for stdin" default:"-"`
	HTML    bool     `help:"Treat input as HTML and extract its text" name:"html"`
	Output  string   `help:"What to print: redacted text or inline annotations" enum:"redacted,flat,nested" default:"redacted"`
	Enable  []string `help:"Run only these processors"`
	Disable []string `help:"Skip these processors"`
	Meta    []string `help:"Metadata entries as key=value"`
}

func (cmd *RunCmd) Run(logger *zap.Logger) error {
	ctx := context.Background()
	deid, closeStore, err := loadDeidentifier(ctx, cmd.Config, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	text, err := readInput(cmd.Input)
	if err != nil {
		return err
	}
	if cmd.HTML {
		text = textsrc.HTMLText(text)
	}
	meta, err := parseMeta(cmd.Meta)
	if err != nil {
		return err
	}

	opts := []docdeid.Option{docdeid.WithMetadata(meta)}
	if len(cmd.Enable) > 0 {
		opts = append(opts, docdeid.WithEnabled(cmd.Enable...))
	}
	if len(cmd.Disable) > 0 {
		opts = append(opts, docdeid.WithDisabled(cmd.Disable...))
	}

	doc, err := deid.Deidentify(text, opts...)
	if err != nil {
		return err
	}
	out, err := render(doc, cmd.Output)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// BatchCmd de-identifies a JSONL file concurrently.
type BatchCmd struct {
	Config  string   `help:"Pipeline configuration file" required:"" type:"existingfile"`
	Input   string   `help:"JSONL input file, - for stdin" required:""`
	Workers int      `help:"Number of concurrent workers" default:"4"`
	Enable  []string `help:"Run only these processors"`
	Disable []string `help:"Skip these processors"`
}

func (cmd *BatchCmd) Run(logger *zap.Logger) error {
	ctx := context.Background()
	deid, closeStore, err := loadDeidentifier(ctx, cmd.Config, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := textsrc.LoadJSONL(cmd.Input, logger)
	if err != nil {
		return err
	}

	var opts []docdeid.Option
	if len(cmd.Enable) > 0 {
		opts = append(opts, docdeid.WithEnabled(cmd.Enable...))
	}
	if len(cmd.Disable) > 0 {
		opts = append(opts, docdeid.WithDisabled(cmd.Disable...))
	}

	docs, err := deid.DeidentifyBatch(ctx, toInputs(records), cmd.Workers, opts...)
	if err != nil {
		return err
	}
	logger.Info("batch complete", zap.Int("documents", len(docs)))
	return writeResults(os.Stdout, docs)
}

// DictCmd groups dictionary management commands.
type DictCmd struct {
	Import DictImportCmd `cmd:"" help:"Import a list file into the store"`
	List   DictListCmd   `cmd:"" help:"List dictionary names"`
	Show   DictShowCmd   `cmd:"" help:"Print the items of a dictionary"`
	Delete DictDeleteCmd `cmd:"" help:"Delete a dictionary"`
}

// DictImportCmd reads a list file and stores it under a name.
type DictImportCmd struct {
	DB       string `help:"SQLite database path" required:"" name:"db"`
	Name     string `help:"Dictionary name" required:""`
	File     string `help:"List file, one item per line" required:"" type:"existingfile"`
	NoStrip  bool   `help:"Keep surrounding whitespace of each line"`
	Encoding string `help:"File encoding label" default:"utf-8"`
	Append   bool   `help:"Add to the existing list instead of replacing it"`
}

func (cmd *DictImportCmd) Run(logger *zap.Logger) error {
	ctx := context.Background()
	lines, err := lookup.ReadLines(cmd.File, cmd.Encoding)
	if err != nil {
		return err
	}
	if !cmd.NoStrip {
		for i, l := range lines {
			lines[i] = strings.TrimSpace(l)
		}
	}
	items := store.Clean(lines)

	st, err := sqlite.OpenSQLite(ctx, cmd.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	if cmd.Append {
		err = st.AppendItems(ctx, cmd.Name, items)
	} else {
		err = st.PutList(ctx, cmd.Name, items)
	}
	if err != nil {
		return err
	}
	logger.Info("imported dictionary", zap.String("name", cmd.Name), zap.Int("items", len(items)))
	fmt.Printf("%s: %d items\n", cmd.Name, len(items))
	return nil
}

// DictListCmd prints every dictionary name with its size.
type DictListCmd struct {
	DB string `help:"SQLite database path" required:"" name:"db"`
}

func (cmd *DictListCmd) Run() error {
	ctx := context.Background()
	st, err := sqlite.OpenSQLite(ctx, cmd.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	names, err := st.Names(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		items, _, err := st.List(ctx, name)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%d\n", name, len(items))
	}
	return nil
}

// DictShowCmd prints the items of one dictionary.
type DictShowCmd struct {
	DB   string `help:"SQLite database path" required:"" name:"db"`
	Name string `help:"Dictionary name" required:""`
}

func (cmd *DictShowCmd) Run() error {
	ctx := context.Background()
	st, err := sqlite.OpenSQLite(ctx, cmd.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	items, ok, err := st.List(ctx, cmd.Name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("dictionary %q not found", cmd.Name)
	}
	for _, item := range items {
		fmt.Println(item)
	}
	return nil
}

// DictDeleteCmd removes a dictionary.
type DictDeleteCmd struct {
	DB   string `help:"SQLite database path" required:"" name:"db"`
	Name string `help:"Dictionary name" required:""`
}

func (cmd *DictDeleteCmd) Run() error {
	ctx := context.Background()
	st, err := sqlite.OpenSQLite(ctx, cmd.DB)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.DeleteList(ctx, cmd.Name)
}

func loadDeidentifier(ctx context.Context, path string, logger *zap.Logger) (*docdeid.Deidentifier, func(), error) {
	loader := config.Loader{ConfigPath: path}
	comp, err := loader.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if comp.Store != nil {
			if err := comp.Store.Close(); err != nil {
				logger.Warn("close store", zap.Error(err))
			}
		}
	}
	logger.Debug("loaded configuration",
		zap.String("config", path),
		zap.Strings("processors", comp.Processors.Names(true)),
		zap.Strings("lookups", comp.Lookups.Names()),
	)
	deid := docdeid.New(docdeid.Options{
		Tokenizers: comp.Tokenizers,
		Processors: comp.Processors,
		Logger:     logger,
	})
	return deid, closeStore, nil
}

func readInput(path string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("docdeid"),
		kong.Description("Rule-based text de-identification"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logger, err := newLogger(CLI.LogLevel)
	ctx.FatalIfErrorf(err)

	err = runCommand(ctx, logger)
	ctx.FatalIfErrorf(err)
}

type commandRunner interface {
	Run(binds ...any) error
}

// runCommand flushes the logger before returning, since a failed command
// exits the process without running deferred calls in main.
func runCommand(cmd commandRunner, logger *zap.Logger) error {
	defer logger.Sync() //nolint:errcheck
	return cmd.Run(logger)
}
