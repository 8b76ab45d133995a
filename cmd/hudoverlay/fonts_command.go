package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"hudoverlay/internal/fonts"
)

func newFontsCommand(ctx *commandContext) *cobra.Command {
	var owners []string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "fonts",
		Short: "Show resolved font sizes per owner",
		Long: "Resolve the normal and large font sizes for each owner and report which\n" +
			"level of the fallback chain (owner override, global, builtin) supplied them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			resolver := fonts.NewResolver(cfg)
			rows := fontRows(resolver, fontOwners(owners, cfg.Fonts.Overrides))
			if asJSON {
				return writeJSON(cmd, rows)
			}
			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				table = append(table, []string{
					row.Owner,
					strconv.Itoa(row.Normal.Size),
					strconv.Itoa(row.Large.Size),
					describeLevel(row.Normal),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"Owner", "Normal", "Large", "Source"},
				table,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&owners, "owner", nil, "Owner identity to resolve; repeatable (default: global plus each override key)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output resolutions as JSON")
	return cmd
}

type fontRow struct {
	Owner  string           `json:"owner"`
	Normal fonts.Resolution `json:"normal"`
	Large  fonts.Resolution `json:"large"`
}

// fontOwners returns the requested owners, or the empty owner followed by
// every override key in sorted order.
func fontOwners(requested []string, overrides map[string]int) []string {
	if len(requested) > 0 {
		return requested
	}
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return append([]string{""}, keys...)
}

func fontRows(resolver *fonts.Resolver, owners []string) []fontRow {
	rows := make([]fontRow, 0, len(owners))
	for _, owner := range owners {
		rows = append(rows, fontRow{
			Owner:  owner,
			Normal: resolver.Explain(owner, fonts.Normal),
			Large:  resolver.Explain(owner, fonts.Large),
		})
	}
	return rows
}

func describeLevel(res fonts.Resolution) string {
	if res.Level == fonts.LevelOwner {
		return fmt.Sprintf("owner override %q", res.Key)
	}
	return string(res.Level)
}
