package config

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fredbi/hexbinviz/internal/pkg/model"
	"github.com/go-viper/mapstructure/v2"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed default_config.yaml
var efs embed.FS

// Config holds the configuration for hexbinviz.
type Config struct {
	Name    string
	Debug   bool `mapstructure:"-"`
	Render  Rendering
	Objects map[string]any // Objects is the raw formatting options bag, as delivered by a host
	Input   Input
	Columns []ColumnRole // Columns tags input columns with data roles
	Outputs Output       `mapstructure:"-"`

	roleIndex   map[model.Role]string
	columnIndex map[string]model.Role
}

// RoleOf returns the data role configured for a column name.
func (c Config) RoleOf(column string) (model.Role, bool) {
	v, ok := c.columnIndex[column]

	return v, ok
}

// ColumnFor returns the name of the column configured for a data role.
func (c Config) ColumnFor(role model.Role) (string, bool) {
	v, ok := c.roleIndex[role]

	return v, ok
}

// HasColumnRoles reports whether the configuration tags any input column with a role.
func (c Config) HasColumnRoles() bool {
	return len(c.columnIndex) > 0
}

// Options resolves the formatting options currently held in the objects bag.
func (c Config) Options() Options {
	return ResolveOptions(c.Objects)
}

// SetHexRadius overrides the bin radius in the objects bag.
func (c *Config) SetHexRadius(radius float64) {
	c.general()[PropertyHexRadius] = radius
}

// SetFill overrides the fill color in the objects bag.
func (c *Config) SetFill(color string) {
	c.general()[PropertyFill] = map[string]any{
		"solid": map[string]any{
			"color": color,
		},
	}
}

func (c *Config) general() map[string]any {
	if c.Objects == nil {
		c.Objects = make(map[string]any)
	}

	general, ok := c.Objects[ObjectGeneral].(map[string]any)
	if !ok {
		general = make(map[string]any)
		c.Objects[ObjectGeneral] = general
	}

	return general
}

// EncodeYAML serializes a [Config] to YAML into the provided writer.
//
// Runtime-only fields (Debug, Outputs) are excluded from the output.
func (c *Config) EncodeYAML(w io.Writer) error {
	var raw map[string]any

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Squash: true,
		Deep:   true,
		Result: &raw,
	})
	if err != nil {
		return fmt.Errorf("creating mapstructure decoder: %w", err)
	}

	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("decoding config to map: %w", err)
	}

	return yaml.NewEncoder(w).Encode(raw)
}

// Rendering holds scene rendering settings.
type Rendering struct {
	Title      string
	Theme      string
	ColorBy    ColorBy
	ShowPoints bool
	DotRadius  int
	Viewport   model.Viewport
	Margin     model.Margin
	Transition string
	Screenshot Screenshot
	AssetsHost string // AssetsHost serves the echarts scripts of HTML pages, when not using the public CDN
}

// TransitionDuration parses the Transition field as a [time.Duration].
//
// An empty or invalid duration disables transitions.
func (r Rendering) TransitionDuration() time.Duration {
	d, err := time.ParseDuration(r.Transition)
	if err != nil || d < 0 {
		return 0
	}

	return d
}

// Screenshot configures the headless Chrome screenshot used for PNG rendering.
type Screenshot struct {
	Sleep string
}

// SleepDuration parses the Sleep field as a [time.Duration].
func (s Screenshot) SleepDuration() time.Duration {
	d, err := time.ParseDuration(s.Sleep)
	if d == 0 || err != nil {
		return 0
	}

	return d
}

// Input describes how input files are read.
type Input struct {
	Format Format
	Query  string // Query selects rows from a SQLite input
}

// ColumnRole tags an input column with a data role.
type ColumnRole struct {
	Name string
	Role model.Role
}

// Output holds the resolved output file paths for HTML, SVG and PNG rendering.
type Output struct {
	HTMLFile string
	SVGFile  string
	PngFile  string
	IsTemp   bool
}

// Load a configuration file from the local file system.
func Load(file string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, fmt.Errorf("loading default config: %w", err)
	}

	fsys := os.DirFS(filepath.Dir(file))
	pth := filepath.Join(".", filepath.Base(file))

	return load(fsys, pth, cfg)
}

// LoadDefaults loads the default configuration from the embedded default_config.yaml.
func LoadDefaults() (*Config, error) {
	return loadDefaults()
}

// loadDefaults loads the default configuration from embedded FS.
func loadDefaults() (*Config, error) {
	return load(efs, "default_config.yaml", &Config{})
}

func load(fsys fs.FS, file string, cfg *Config) (*Config, error) {
	content, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, err
	}

	var raw any
	err = yaml.Unmarshal(content, &raw)
	if err != nil {
		return nil, err
	}

	err = mapstructure.Decode(raw, cfg)
	if err != nil {
		return nil, err
	}

	cfg.roleIndex = make(map[model.Role]string, len(cfg.Columns))
	cfg.columnIndex = make(map[string]model.Role, len(cfg.Columns))

	if err = cfg.validateRender(); err != nil {
		return nil, err
	}

	if err = cfg.validateInput(); err != nil {
		return nil, err
	}

	if err = cfg.validateColumns(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validateRender() error {
	if c.Render.ColorBy == "" {
		c.Render.ColorBy = ColorBySum
	}

	if !c.Render.ColorBy.IsValid() {
		return fmt.Errorf("invalid render: unknown colorBy: %q (should be one of %v)", c.Render.ColorBy, AllColorBys())
	}

	if c.Render.Title == "" && c.Name != "" {
		c.Render.Title = titleize(c.Name)
	}

	if c.Render.DotRadius < 0 {
		return fmt.Errorf("invalid render: negative dotRadius: %d", c.Render.DotRadius)
	}

	if c.Render.Viewport.Width < 0 || c.Render.Viewport.Height < 0 {
		return fmt.Errorf("invalid render: negative viewport: %vx%v", c.Render.Viewport.Width, c.Render.Viewport.Height)
	}

	if c.Render.Transition != "" {
		if _, err := time.ParseDuration(c.Render.Transition); err != nil {
			return fmt.Errorf("invalid render: transition: %w", err)
		}
	}

	return nil
}

func (c *Config) validateInput() error {
	if c.Input.Format == "" {
		c.Input.Format = FormatCSV
	}

	if !c.Input.Format.IsValid() {
		return fmt.Errorf("invalid input: unknown format: %q (should be one of %v)", c.Input.Format, AllFormats())
	}

	if c.Input.Format == FormatSQLite && c.Input.Query == "" {
		return fmt.Errorf("invalid input: a query is required for format %q", FormatSQLite)
	}

	return nil
}

func (c *Config) validateColumns() error {
	for i, v := range c.Columns {
		if v.Name == "" {
			return fmt.Errorf("invalid columns: empty name found: columns[%d]", i)
		}
		if !v.Role.IsValid() {
			return fmt.Errorf("invalid columns: invalid role: columns[%d]=%v (should be one of %v)", i, v.Role, model.AllRoles())
		}
		if _, ok := c.columnIndex[v.Name]; ok {
			return fmt.Errorf("invalid columns: duplicate column name found: %s", v.Name)
		}
		if _, ok := c.roleIndex[v.Role]; ok {
			return fmt.Errorf("invalid columns: duplicate role found: %s", v.Role)
		}

		c.columnIndex[v.Name] = v.Role
		c.roleIndex[v.Role] = v.Name
	}

	return nil
}

type str interface {
	~string
}

// Titleize turns an identifier such as "sales_amount" into a display title ("Sales Amount").
func Titleize[T str](in T) string {
	return titleize(in)
}

func titleize[T str](in T) string {
	caser := cases.Title(language.English, cases.NoLower) // the case is stateful: cannot declare it globally

	return caser.String(strings.Map(func(r rune) rune {
		switch r {
		case '_', '-':
			return ' '
		default:
			return r
		}
	}, string(in),
	))
}

// GenerateInput holds the data needed by [Generate] to build a configuration
// from a parsed input table.
//
// This avoids importing the parser package (which imports [config]).
type GenerateInput struct {
	Name    string
	Format  Format
	Columns []string
}

// Generate builds a [Config] from the columns of a parsed input table.
//
// Columns are tagged in positional order: category, x, y and value. Extra columns are ignored.
func Generate(input GenerateInput) *Config {
	defaults, err := loadDefaults()
	if err != nil {
		// embedded config must always parse
		panic(fmt.Sprintf("loading embedded defaults: %v", err))
	}

	cfg := &Config{
		Name:    input.Name,
		Render:  defaults.Render,
		Objects: defaults.Objects,
		Input: Input{
			Format: input.Format,
		},
	}

	if cfg.Name == "" {
		cfg.Name = "Generated Config"
	}

	if cfg.Input.Format == "" {
		cfg.Input.Format = defaults.Input.Format
	}

	roles := model.AllRoles()
	seen := make(map[string]struct{}, len(input.Columns))
	for i, name := range input.Columns {
		if i >= len(roles) {
			break
		}
		if _, dup := seen[name]; dup || name == "" {
			continue
		}
		seen[name] = struct{}{}

		cfg.Columns = append(cfg.Columns, ColumnRole{
			Name: name,
			Role: roles[i],
		})
	}

	return cfg
}
