package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List the countries present in the catalog",
	Run: func(_ *cobra.Command, _ []string) {
		_, _, m := prepare(context.Background())

		for _, country := range m.Countries() {
			fmt.Println(country)
		}
	},
}

func init() {
	rootCmd.AddCommand(countriesCmd)
}
