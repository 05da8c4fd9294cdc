// Command fff is a thin CLI exercising the Facade end to end: fuzzy file
// search, live grep, index scanning, and a health check, all against a
// single base path given with --root.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/fff/internal/facade"
	"github.com/standardbeagle/fff/internal/fflog"
	"github.com/standardbeagle/fff/internal/grep"
	"github.com/standardbeagle/fff/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "fff",
		Usage:   "fuzzy file finder and live-grep engine",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory to index",
				Value:   ".",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON instead of a human-readable summary",
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "search",
				Aliases: []string{"s"},
				Usage:   "Fuzzy-match file paths in the indexed repository",
				Action:  searchCommand,
			},
			{
				Name:    "grep",
				Aliases: []string{"g"},
				Usage:   "Search file contents across the indexed repository",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "literal, regex, or fuzzy",
						Value: string(grep.ModeLiteral),
					},
					&cli.IntFlag{
						Name:  "page-limit",
						Usage: "Maximum matches to return",
						Value: 50,
					},
					&cli.StringFlag{
						Name:  "cursor",
						Usage: "Opaque cursor from a previous grep's next_cursor, for pagination",
					},
				},
				Action: grepCommand,
			},
			{
				Name:   "scan",
				Usage:  "Scan the index and wait for it to complete",
				Action: scanCommand,
			},
			{
				Name:   "health",
				Usage:  "Report facade health",
				Action: healthCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "fff:", err)
		os.Exit(1)
	}
}

func openHandle(c *cli.Context) (*facade.Handle, error) {
	return facade.Create(facade.InitOptions{
		BasePath: c.String("root"),
		LogLevel: fflog.LevelInfo,
	})
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: fff search <query>")
	}
	h, err := openHandle(c)
	if err != nil {
		return err
	}
	defer func() { _ = h.Destroy() }()

	h.WaitForScan(10_000)

	res, err := h.Search(c.Args().First(), facade.SearchOptions{})
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(res)
	}

	fmt.Printf("%d of %d files matched\n\n", res.TotalMatched, res.TotalFiles)
	for i, item := range res.Items {
		fmt.Printf("%s  (score %d)\n", item.RelativePath, res.Scores[i].Total)
	}
	return nil
}

func grepCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: fff grep <query>")
	}
	h, err := openHandle(c)
	if err != nil {
		return err
	}
	defer func() { _ = h.Destroy() }()

	h.WaitForScan(10_000)

	opts := grep.DefaultOptions()
	opts.Mode = grep.Mode(c.String("mode"))
	opts.PageLimit = c.Int("page-limit")
	opts.Cursor = c.String("cursor")

	res, err := h.LiveGrep(c.Args().First(), opts)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(res)
	}

	fmt.Printf("%d matches across %d files (of %d eligible)\n\n", res.TotalMatched, res.TotalFilesSearched, res.FilteredFileCount)
	for _, m := range res.Items {
		fmt.Printf("%s:%d:%d: %s\n", m.RelativePath, m.LineNumber, m.Col, m.LineContent)
	}
	if res.NextCursor != "" {
		fmt.Printf("\n(more results: --cursor %s)\n", res.NextCursor)
	}
	return nil
}

func scanCommand(c *cli.Context) error {
	h, err := openHandle(c)
	if err != nil {
		return err
	}
	defer func() { _ = h.Destroy() }()

	h.ScanFiles()
	h.WaitForScan(0)

	scanned, _, scanErr := h.ScanProgress()
	if scanErr != "" {
		return fmt.Errorf("scan failed: %s", scanErr)
	}
	fmt.Printf("scanned %d files\n", scanned)
	return nil
}

func healthCommand(c *cli.Context) error {
	root := c.String("root")
	var report facade.HealthReport
	if root != "" && root != "." {
		report = facade.HealthCheck(root)
	} else {
		report = facade.HealthCheck("")
	}

	if c.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(report)
	}

	fmt.Printf("healthy: %v\nversion: %s\nvcs library available: %v\nhas repository: %v\n",
		report.Healthy, report.Version, report.VCSLibraryAvailable, report.HasRepository)
	return nil
}
