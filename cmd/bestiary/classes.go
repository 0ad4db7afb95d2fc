package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/bestiary/internal/lookup"
)

func classesCmd() *cobra.Command {
	var (
		pagesDir string
		mythic   string
		out      string
		aliases  bool
	)
	cmd := &cobra.Command{
		Use:   "classes",
		Short: "Build the class hit die table from saved class pages",
		Long: `Build the class table from a directory of saved class reference pages.
Each page is named after its class, e.g. Fighter.html.

Example:
  bestiary classes --pages ./classes --out class_hds.json
  bestiary classes --pages ./classes --mythic ./MythicPaths.html --out class_hds.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pagesDir == "" || out == "" {
				return fmt.Errorf("--pages and --out flags are required")
			}
			table, err := buildClassTable(pagesDir, mythic, aliases)
			if err != nil {
				return err
			}
			if err := table.SaveFile(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d classes to %s\n", table.Len(), out)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&pagesDir, "pages", "", "directory of <Class>.html pages")
	f.StringVar(&mythic, "mythic", "", "saved mythic paths index page")
	f.StringVarP(&out, "out", "o", "", "output table (.json or .csv)")
	f.BoolVar(&aliases, "aliases", true, "add kineticist elements and wizard schools")
	return cmd
}

func buildClassTable(pagesDir, mythic string, aliases bool) (*lookup.Table, error) {
	paths, err := filepath.Glob(filepath.Join(pagesDir, "*.htm*"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no class pages in %s", pagesDir)
	}
	slices.Sort(paths)

	b := lookup.NewBuilder()
	for _, p := range paths {
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		if err := addFile(p, func(f *os.File) error { return b.AddClassPage(name, f) }); err != nil {
			return nil, err
		}
	}
	if mythic != "" {
		if err := addFile(mythic, func(f *os.File) error {
			_, err := b.AddMythicPaths(f)
			return err
		}); err != nil {
			return nil, err
		}
	}
	if aliases {
		if err := b.AddAliases(lookup.DefaultAliases); err != nil {
			return nil, err
		}
	}
	return b.Table(), nil
}

func addFile(path string, fn func(*os.File) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}
