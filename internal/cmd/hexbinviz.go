// Package cmd owns the implementation details of the CLI command.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fredbi/hexbinviz/internal/pkg/chart"
	"github.com/fredbi/hexbinviz/internal/pkg/config"
	"github.com/fredbi/hexbinviz/internal/pkg/image"
	"github.com/fredbi/hexbinviz/internal/pkg/model"
	"github.com/fredbi/hexbinviz/internal/pkg/parser"
	"github.com/fredbi/hexbinviz/internal/pkg/server"
	"github.com/fredbi/hexbinviz/internal/pkg/visual"
	"github.com/fredbi/hexbinviz/internal/pkg/watch"
)

const stdio = "-"

// Command holds command line flags and executes the hexbinviz command.
//
// It knows how to load a configuration file in a [config.Config] and manage CLI flag configuration overrides.
//
// The main purpose of this package is to deal with io's: opening and closing files, signals and
// long-running modes. All other invoked functionalities deal with streams, except the table parser
// which may collect several files directly.
type Command struct {
	Config     string
	OutputFile string
	Format     string
	Query      string
	Width      float64
	Height     float64
	Radius     float64
	Fill       string
	Enumerate  string
	Report     bool
	Generate   bool
	Png        bool
	Watch      bool
	Serve      string
	Debug      bool
	L          *slog.Logger

	out io.Writer
}

// NewCommand builds a CLI command with registered flags and an injected logger.
func NewCommand() *Command {
	// inject a structured logger
	cli := &Command{
		L:   slog.Default().With(slog.String("module", "main")),
		out: os.Stdout,
	}

	cli.registerFlags()

	return cli
}

// Parse command line flags and arguments.
func (*Command) Parse() error {
	return flag.CommandLine.Parse(os.Args[1:])
}

// Fatalf logs an error message then exits. The output is spewed on both stderr and the structured logger output.
func (c *Command) Fatalf(err error) {
	c.L.Error(err.Error())
	log.Fatalf("%v", err)
}

// Execute the CLI with flags and extra arguments.
//
// If no argument is passed, command line arguments (i.e. [os.Args]) are used.
// Long-running modes (-watch, -serve) stop on SIGINT or SIGTERM.
func (c *Command) Execute(args ...string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.ExecuteContext(ctx, args...)
}

// ExecuteContext is like [Command.Execute], with long-running modes stopped when ctx is cancelled.
func (c *Command) ExecuteContext(ctx context.Context, args ...string) error {
	if args == nil { // passing explicit args allows for testing Execute without altering [os.Args]
		args = c.args()
	}
	if len(args) == 0 { // no file is provided: assume stdin
		args = append(args, stdio)
	}

	if c.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	cfg, cleanup, err := c.prepareConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	switch {
	case c.Report:
		// just want to report about the content of the input files
		return c.report(cfg, args)
	case c.Generate:
		return c.generate(cfg, args)
	case c.Enumerate != "":
		return c.enumerate(cfg)
	}

	// 1. parse input tables passed as CLI args
	table, err := parseTable(cfg, args)
	if err != nil {
		return err
	}

	v := visual.New(cfg)
	defer v.Destroy()

	switch {
	case c.Serve != "":
		return c.serve(ctx, cfg, v, table, args)
	case c.Watch:
		if err := c.render(ctx, cfg, v, table); err != nil {
			return err
		}

		return c.watch(ctx, cfg, args, func(ctx context.Context, table *model.Table) error {
			return c.render(ctx, cfg, v, table)
		})
	default:
		return c.render(ctx, cfg, v, table)
	}
}

func (*Command) args() []string {
	return flag.CommandLine.Args()
}

func (c *Command) registerFlags() {
	defaults := Command{
		Config:     "",
		OutputFile: stdio,
		Format:     "",
		Png:        false,
		Report:     false,
	}

	flag.StringVar(&c.Config, "config", defaults.Config, "config file (built-in defaults if empty)")
	flag.StringVar(&c.Config, "c", defaults.Config, "config file (shorthand)")
	flag.StringVar(&c.OutputFile, "output", defaults.OutputFile, "file output or - for standard output. A .svg extension renders the SVG scene")
	flag.StringVar(&c.OutputFile, "o", defaults.OutputFile, "file output or - for standard output (shorthand)")
	flag.StringVar(&c.Format, "format", defaults.Format, fmt.Sprintf("input format, one of %v", config.AllFormats()))
	flag.StringVar(&c.Format, "f", defaults.Format, "input format (shorthand)")
	flag.StringVar(&c.Query, "query", defaults.Query, "SQL query selecting rows from a SQLite input")
	flag.Float64Var(&c.Width, "width", defaults.Width, "viewport width in pixels")
	flag.Float64Var(&c.Height, "height", defaults.Height, "viewport height in pixels")
	flag.Float64Var(&c.Radius, "radius", defaults.Radius, "hexagon radius in pixels")
	flag.StringVar(&c.Fill, "fill", defaults.Fill, "hexagon fill color")
	flag.StringVar(&c.Enumerate, "enumerate", defaults.Enumerate, "print the instances of a formatting object as JSON")
	flag.BoolVar(&c.Report, "r", defaults.Report, "report input contents only, no rendering (shorthand)")
	flag.BoolVar(&c.Report, "report", defaults.Report, "report input contents only")
	flag.BoolVar(&c.Generate, "generate", defaults.Generate, "print a config file generated from the input columns")
	flag.BoolVar(&c.Png, "png", defaults.Png, "enable PNG screenshot output")
	flag.BoolVar(&c.Watch, "w", defaults.Watch, "render again whenever an input file changes (shorthand)")
	flag.BoolVar(&c.Watch, "watch", defaults.Watch, "render again whenever an input file changes")
	flag.StringVar(&c.Serve, "serve", defaults.Serve, "serve the visual over HTTP at this address, e.g. localhost:8080")
	flag.BoolVar(&c.Debug, "debug", defaults.Debug, "debug logging and dump of the update cycle on stderr")
}

func (c *Command) prepareConfig() (cfg *config.Config, cleanup func(), err error) {
	if c.Config == "" {
		cfg, err = config.LoadDefaults()
	} else {
		cfg, err = config.Load(c.Config)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if err = c.setConfig(cfg); err != nil {
		return nil, nil, fmt.Errorf("preparing config: %w", err)
	}

	if cfg.Outputs.IsTemp && !c.Report {
		cleanup = func() {
			_ = os.Remove(cfg.Outputs.HTMLFile)
		}

		return cfg, cleanup, err
	}

	return cfg, func() {}, err
}

// apply CLI flags overrides to YAML config.
func (c *Command) setConfig(cfg *config.Config) error {
	cfg.Debug = c.Debug

	if c.Format != "" {
		format := config.Format(strings.ToLower(c.Format))
		if !format.IsValid() {
			return fmt.Errorf("unknown input format: %q (should be one of %v)", c.Format, config.AllFormats())
		}
		cfg.Input.Format = format
	}

	if c.Query != "" {
		cfg.Input.Query = c.Query
	}

	if cfg.Input.Format == config.FormatSQLite && cfg.Input.Query == "" {
		return errors.New("a query is required to read a SQLite input")
	}

	if c.Width > 0 {
		cfg.Render.Viewport.Width = c.Width
	}

	if c.Height > 0 {
		cfg.Render.Viewport.Height = c.Height
	}

	if c.Radius > 0 {
		cfg.SetHexRadius(c.Radius)
	}

	if c.Fill != "" {
		cfg.SetFill(c.Fill)
	}

	if c.OutputFile != "" && c.OutputFile != stdio {
		if path.Ext(c.OutputFile) == ".svg" {
			cfg.Outputs.SVGFile = c.OutputFile
		} else {
			cfg.Outputs.HTMLFile = inferHTMLFile(c.OutputFile)
		}

		// an outfile is defined: infer the PNG file from the output file provided
		if cfg.Outputs.PngFile == "" && c.Png {
			cfg.Outputs.PngFile = inferImageFile(c.OutputFile)
		}
	}

	if c.Report || c.Generate || c.Enumerate != "" || cfg.Outputs.SVGFile != "" {
		return nil
	}

	switch {
	case cfg.Outputs.HTMLFile == "" && cfg.Outputs.PngFile == "":
		c.L.Info("output sent to standard output as HTML, no PNG image rendered")
		if c.Png {
			c.L.Info("set an output file to render a PNG image")
		}
		cfg.Outputs.HTMLFile = stdio
	case cfg.Outputs.HTMLFile == "" && cfg.Outputs.PngFile != "":
		c.L.Info("HTML generated as a temporary file to produce PNG")
		tmp, err := os.CreateTemp("", "hexbinviz.*.html")
		if err != nil {
			return err
		}
		cfg.Outputs.HTMLFile = tmp.Name()
		cfg.Outputs.IsTemp = true
		_ = tmp.Close()
	}

	return nil
}

// report produces a report that explores the input tables.
func (c *Command) report(cfg *config.Config, args []string) error {
	p := parser.New(cfg)
	t0 := time.Now()
	if err := p.ParseFiles(args...); err != nil {
		return fmt.Errorf("parsing files: %w", err)
	}
	c.L.Info("parsed input tables", slog.Duration("duration", time.Since(t0)))

	return c.encodeJSON(p.Report())
}

// generate prints a configuration with roles inferred from the positions of input columns.
func (c *Command) generate(cfg *config.Config, args []string) error {
	p := parser.New(cfg)
	if err := p.ParseFiles(args...); err != nil {
		return fmt.Errorf("parsing files: %w", err)
	}

	table := p.Table()
	columns := make([]string, 0, len(table.Columns))
	for _, column := range table.Columns {
		columns = append(columns, column.DisplayName)
	}

	generated := config.Generate(config.GenerateInput{
		Name:    cfg.Name,
		Format:  p.Format(),
		Columns: columns,
	})
	generated.Input.Query = cfg.Input.Query

	return generated.EncodeYAML(c.stdout())
}

// enumerate prints the current instances of a formatting object.
func (c *Command) enumerate(cfg *config.Config) error {
	instances := visual.New(cfg).Enumerate(c.Enumerate)
	if instances == nil {
		instances = []config.ObjectInstance{}
	}

	return c.encodeJSON(instances)
}

// render runs one update cycle and writes the requested outputs.
func (c *Command) render(ctx context.Context, cfg *config.Config, v *visual.Visual, table *model.Table) error {
	if cfg.Outputs.SVGFile != "" {
		return c.renderSVG(ctx, cfg, v, table)
	}

	// 2. run the update cycle, keeping only the pass: the HTML page is built from it
	pass, err := v.Update(io.Discard, visual.UpdateOptions{Table: table})
	if err != nil {
		return fmt.Errorf("updating visual: %w", err)
	}
	c.dump(cfg, pass)

	// 3. render the page as HTML, possibly to stdout, possibly to temp file
	htmlWriter, htmlCloser, err := c.getWriter(cfg.Outputs.HTMLFile, "HTML")
	if err != nil {
		return err
	}

	if err := chart.New(cfg, pass).BuildPage().Render(htmlWriter); err != nil {
		htmlCloser()
		return fmt.Errorf("rendering page: %w", err)
	}

	htmlCloser()

	if cfg.Outputs.PngFile == "" {
		// html only: we're done
		return nil
	}

	// 4. convert the HTML page to a PNG image
	return c.screenshot(ctx, cfg, pass, cfg.Outputs.HTMLFile, image.MediaHTML)
}

func (c *Command) renderSVG(ctx context.Context, cfg *config.Config, v *visual.Visual, table *model.Table) error {
	svgWriter, svgCloser, err := c.getWriter(cfg.Outputs.SVGFile, "SVG")
	if err != nil {
		return err
	}

	pass, err := v.Update(svgWriter, visual.UpdateOptions{Table: table})
	svgCloser()
	if err != nil {
		return fmt.Errorf("rendering scene: %w", err)
	}
	c.dump(cfg, pass)

	if cfg.Outputs.PngFile == "" {
		return nil
	}

	return c.screenshot(ctx, cfg, pass, cfg.Outputs.SVGFile, image.MediaSVG)
}

func (c *Command) screenshot(ctx context.Context, cfg *config.Config, pass *visual.Pass, source, mediaType string) error {
	kind := "HTML"
	if mediaType == image.MediaSVG {
		kind = "SVG"
	}

	reader, readerCloser, err := getReader(source, kind)
	if err != nil {
		return err
	}
	defer readerCloser()

	pngWriter, pngCloser, err := c.getWriter(cfg.Outputs.PngFile, "PNG")
	if err != nil {
		return err
	}
	defer pngCloser()

	r := image.New(
		image.WithViewport(pass.Viewport),
		image.WithSleep(cfg.Render.Screenshot.SleepDuration()),
		image.WithMediaType(mediaType),
	)

	if err = r.Render(ctx, pngWriter, reader); err != nil {
		return fmt.Errorf("rendering image: %w", err)
	}

	return nil
}

// serve exposes the visual over HTTP. With -watch, changes to input files replace the served table.
func (c *Command) serve(ctx context.Context, cfg *config.Config, v *visual.Visual, table *model.Table, args []string) error {
	srv := server.New(cfg, v, table, server.WithAddr(c.Serve))

	if !c.Watch {
		return srv.Run(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watchErr := make(chan error, 1)
	go func() {
		err := c.watch(ctx, cfg, args, func(_ context.Context, table *model.Table) error {
			srv.SetTable(table)

			return nil
		})
		if err != nil {
			cancel()
		}
		watchErr <- err
	}()

	err := srv.Run(ctx)
	cancel()

	return errors.Join(err, <-watchErr)
}

// watch parses input files again whenever one of them changes, then hands the new table over to update.
func (c *Command) watch(ctx context.Context, cfg *config.Config, args []string, update func(context.Context, *model.Table) error) error {
	files := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == stdio {
			continue
		}
		files = append(files, arg)
	}

	if len(files) == 0 {
		return errors.New("watch mode requires input files")
	}

	c.L.Info("watching input files", slog.Int("files", len(files)))

	w := watch.New(files, func(ctx context.Context, _ string) error {
		table, err := parseTable(cfg, files)
		if err != nil {
			return err
		}

		return update(ctx, table)
	})

	return w.Run(ctx)
}

// dump spews the pass on stderr in debug mode.
func (*Command) dump(cfg *config.Config, pass *visual.Pass) {
	if !cfg.Debug {
		return
	}

	dumper := spew.ConfigState{
		Indent:                  "  ",
		MaxDepth:                3,
		DisablePointerAddresses: true,
		SortKeys:                true,
	}
	dumper.Fdump(os.Stderr, pass.Options, pass.Viewport, pass.Colors, pass.Transition)
	dumper.Fdump(os.Stderr, pass.Bins)
}

func (c *Command) encodeJSON(data any) error {
	enc := json.NewEncoder(c.stdout())
	enc.SetIndent("", " ")

	return enc.Encode(data)
}

func (c *Command) stdout() io.Writer {
	if c.out == nil {
		return os.Stdout
	}

	return c.out
}

func getReader(file, kind string) (rdr *os.File, cleanup func(), err error) {
	rdr, err = os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s file: %q: %w", kind, file, err)
	}

	cleanup = func() {
		_ = rdr.Close()
	}

	return rdr, cleanup, nil
}

func (c *Command) getWriter(file, kind string) (wrt io.Writer, cleanup func(), err error) {
	if file == stdio {
		return c.stdout(), func() {}, nil
	}

	f, err := os.Create(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s file for writing: %q: %w", kind, file, err)
	}

	cleanup = func() {
		_ = f.Close()
	}

	return f, cleanup, nil
}

func parseTable(cfg *config.Config, args []string) (*model.Table, error) {
	p := parser.New(cfg)
	if err := p.ParseFiles(args...); err != nil {
		return nil, fmt.Errorf("parsing files: %w", err)
	}

	return p.Table(), nil
}

func inferHTMLFile(base string) string {
	ext := path.Ext(base)
	image, _ := strings.CutSuffix(base, ext)

	return image + ".html"
}

func inferImageFile(base string) string {
	ext := path.Ext(base)
	image, _ := strings.CutSuffix(base, ext)

	return image + ".png"
}
