package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/couchcryptid/roster-geo-etl/internal/domain"
	"github.com/couchcryptid/roster-geo-etl/internal/gazetteer"
	"github.com/spf13/cobra"
)

func newGazetteerCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gazetteer",
		Short: "Inspect and validate gazetteer tables",
	}
	cmd.AddCommand(newGazetteerValidateCommand(a), newGazetteerListCommand(a))
	return cmd
}

func newGazetteerValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [table.yaml]",
		Short: "Check a gazetteer table, or the built-in tables when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				g, err := gazetteer.LoadFile(args[0])
				if err != nil {
					return err
				}
				return printStats(a, g)
			}

			var errs []error
			for _, mode := range []domain.Mode{domain.ModePlacement, domain.ModeResidence} {
				g, err := loadGazetteer(mode, "")
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", mode, err))
					continue
				}
				if err := printStats(a, g); err != nil {
					return err
				}
			}
			return errors.Join(errs...)
		},
	}
}

func printStats(a *app, g *gazetteer.Gazetteer) error {
	s := g.Stats()
	_, err := fmt.Fprintf(a.out, "%s: ok (%d regions, %d aliases, %d postal codes, %d postal prefixes, %d states)\n",
		g.Name(), s.Regions, s.Aliases, s.FinePostal, s.CoarsePostal, s.States)
	return err
}

func newGazetteerListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "list [jp|us]",
		Short:     "List the canonical regions of a built-in table",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"jp", "us"},
		RunE: func(_ *cobra.Command, args []string) error {
			var mode domain.Mode
			switch args[0] {
			case "jp":
				mode = domain.ModePlacement
			case "us":
				mode = domain.ModeResidence
			default:
				return fmt.Errorf("unknown table %q (want jp or us)", args[0])
			}

			g, err := loadGazetteer(mode, "")
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME\tLAT\tLON")
			g.Each(func(r gazetteer.Region) bool {
				fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\n", r.Key, r.DisplayName, r.Lat, r.Lon)
				return true
			})
			return tw.Flush()
		},
	}
}
