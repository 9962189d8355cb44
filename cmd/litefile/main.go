// Command litefile inspects and queries SQLite database files without
// linking a SQLite library: it reads the file format directly.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/driftdb/litefile/core/litefile"
	"github.com/driftdb/litefile/internal/fixtures"
	"github.com/driftdb/litefile/internal/logging"
)

const version = "0.1.0"

// CLI defines the command-line interface for litefile.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log format (text, json)"`

	Info     InfoCmd       `cmd:"" help:"Print database header and schema summary"`
	Tables   TablesCmd     `cmd:"" help:"List user table names"`
	Schema   SchemaCmd     `cmd:"" help:"Print the stored DDL of every user object"`
	Query    QueryCmd      `cmd:"" help:"Evaluate a SELECT statement"`
	Fixtures FixturesGroup `cmd:"" help:"Sample database management"`
	Version  VersionCmd    `cmd:"" help:"Print version information"`
}

// InfoCmd prints header fields and schema counts.
type InfoCmd struct {
	Path string `arg:"" help:"Database file" type:"existingfile"`
}

func (c *InfoCmd) Run() error {
	db, err := litefile.Open(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	info := db.Info()
	rows := []struct {
		label string
		value interface{}
	}{
		{"database page size", info.PageSize},
		{"reserved bytes", info.ReservedBytes},
		{"database page count", info.PageCount},
		{"freelist page count", info.FreelistPages},
		{"schema format", info.SchemaFormat},
		{"schema cookie", info.SchemaCookie},
		{"text encoding", info.TextEncoding},
		{"user version", info.UserVersion},
		{"number of tables", info.Tables},
		{"number of indexes", info.Indexes},
		{"number of views", info.Views},
		{"number of triggers", info.Triggers},
	}
	for _, r := range rows {
		fmt.Printf("%-21s%v\n", r.label+":", r.value)
	}
	return nil
}

// TablesCmd lists user tables on one line, sorted.
type TablesCmd struct {
	Path string `arg:"" help:"Database file" type:"existingfile"`
}

func (c *TablesCmd) Run() error {
	db, err := litefile.Open(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	names := db.TableNames()
	if len(names) > 0 {
		fmt.Println(strings.Join(names, " "))
	}
	return nil
}

// SchemaCmd prints stored DDL.
type SchemaCmd struct {
	Path string `arg:"" help:"Database file" type:"existingfile"`
}

func (c *SchemaCmd) Run() error {
	db, err := litefile.Open(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, sql := range db.SchemaSQL() {
		fmt.Printf("%s;\n", sql)
	}
	return nil
}

// QueryCmd evaluates a SELECT statement and prints pipe-separated rows.
type QueryCmd struct {
	Path string `arg:"" help:"Database file" type:"existingfile"`
	SQL  string `arg:"" help:"SELECT statement"`

	Header bool `help:"Print a header row with column names"`
}

func (c *QueryCmd) Run() error {
	db, err := litefile.Open(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := db.Query(c.SQL)
	if err != nil {
		return err
	}

	if c.Header {
		fmt.Println(strings.Join(res.Columns, "|"))
	}
	for _, row := range res.Rows {
		parts := make([]string, len(row))
		for i, v := range row {
			parts[i] = v.String()
		}
		fmt.Println(strings.Join(parts, "|"))
	}
	return nil
}

// FixturesGroup contains sample database operations.
type FixturesGroup struct {
	Fetch FixturesFetchCmd `cmd:"" help:"Download published sample databases"`
	Gen   FixturesGenCmd   `cmd:"" help:"Generate sample databases locally"`
	List  FixturesListCmd  `cmd:"" help:"List known sample databases"`
}

// FixturesFetchCmd downloads sample databases.
type FixturesFetchCmd struct {
	Names []string `arg:"" optional:"" help:"Sample names (default: all)"`
	Dir   string   `default:"." help:"Destination directory" type:"path"`
}

func (c *FixturesFetchCmd) Run() error {
	digests, err := fixtures.FetchAll(context.Background(), nil, c.Dir, c.Names...)
	if err != nil {
		return err
	}
	for name, digest := range digests {
		fmt.Printf("%s  blake3:%s\n", name, digest)
	}
	return nil
}

// FixturesGenCmd generates sample databases locally.
type FixturesGenCmd struct {
	Dir  string `default:"." help:"Destination directory" type:"path"`
	Rows int    `default:"500" help:"Row count for the indexed sample"`
}

func (c *FixturesGenCmd) Run() error {
	sample, err := fixtures.GenerateSample(c.Dir)
	if err != nil {
		return err
	}
	fmt.Println(sample)

	indexed, err := fixtures.GenerateIndexed(c.Dir, c.Rows)
	if err != nil {
		return err
	}
	fmt.Println(indexed)
	return nil
}

// FixturesListCmd lists the registered samples.
type FixturesListCmd struct{}

func (c *FixturesListCmd) Run() error {
	for _, s := range fixtures.Samples {
		fmt.Printf("%s  %s\n", s.Name, s.URL)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("litefile %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("litefile"),
		kong.Description("Read-only SQLite database file inspector"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	level, err := logging.ParseLevel(CLI.LogLevel)
	ctx.FatalIfErrorf(err)
	format, err := logging.ParseFormat(CLI.LogFormat)
	ctx.FatalIfErrorf(err)
	logging.InitLogger(level, format)

	err = ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
