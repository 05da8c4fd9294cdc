package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name: "fff",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Value: "."},
			&cli.BoolFlag{Name: "json"},
		},
		Commands: []*cli.Command{
			{Name: "search", Action: searchCommand},
			{Name: "grep", Flags: []cli.Flag{
				&cli.StringFlag{Name: "mode", Value: "literal"},
				&cli.IntFlag{Name: "page-limit", Value: 50},
			}, Action: grepCommand},
			{Name: "scan", Action: scanCommand},
			{Name: "health", Action: healthCommand},
		},
	}
}

func writeFixtureProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() { println(\"hello\") }\n"), 0644))
	return dir
}

func TestSearchCommandFindsFixtureFile(t *testing.T) {
	dir := writeFixtureProject(t)
	app := newApp()

	require.NoError(t, app.Run([]string{"fff", "--root", dir, "search", "main"}))
}

func TestGrepCommandFindsLine(t *testing.T) {
	dir := writeFixtureProject(t)
	app := newApp()

	var stdout bytes.Buffer
	app.Writer = &stdout

	require.NoError(t, app.Run([]string{"fff", "--root", dir, "grep", "hello"}))
}

func TestScanCommandCompletes(t *testing.T) {
	dir := writeFixtureProject(t)
	app := newApp()

	require.NoError(t, app.Run([]string{"fff", "--root", dir, "scan"}))
}

func TestHealthCommandWithoutRepository(t *testing.T) {
	dir := writeFixtureProject(t)
	app := newApp()

	var stdout bytes.Buffer
	app.Writer = &stdout

	require.NoError(t, app.Run([]string{"fff", "--root", dir, "--json", "health"}))
}

func TestSearchCommandRequiresAQuery(t *testing.T) {
	dir := writeFixtureProject(t)
	app := newApp()

	err := app.Run([]string{"fff", "--root", dir, "search"})
	require.Error(t, err)
}
