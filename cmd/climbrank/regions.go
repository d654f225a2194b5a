package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"climbrank/internal/region"
)

var regionsCountry string

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List known ranking regions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		regions, err := region.List(regionsCountry)
		if err != nil {
			return err
		}
		if len(regions) == 0 {
			countries, err := region.Countries()
			if err != nil {
				return err
			}
			return fmt.Errorf("no regions for %q, known countries: %v", regionsCountry, countries)
		}
		renderRegions(regions)
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve QUERY",
	Short: "Resolve a region id, ranking URL or region name to a region id.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := region.Resolve(args[0])
		if err != nil {
			return err
		}
		if r.Name == "" {
			fmt.Println(r.ID)
			return nil
		}
		fmt.Printf("%s\t%s\n", r.ID, r.Label())
		return nil
	},
}

func init() {
	regionsCmd.Flags().StringVar(&regionsCountry, "country", "", "only regions in this country")
	rootCmd.AddCommand(regionsCmd, resolveCmd)
}
