package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var presetsCmd = &cobra.Command{
	Use:   "presets [name]",
	Short: "List render presets, or print one as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPresets,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

func runPresets(_ *cobra.Command, args []string) error {
	if len(args) == 1 {
		p, err := lookupPreset(args[0])
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(map[string]any{"presets": map[string]any{p.Name: p}})
	}

	c, err := presets()
	if err != nil {
		return err
	}
	fmt.Println()
	for _, name := range c.Names() {
		p := c.Get(name)
		headerColor.Printf("  %-12s", name)
		fmt.Printf(" %-16s %3d levels  %-5s", p.Params.Algorithm, p.Params.ColorDepth, p.Format)
		dimColor.Printf("  %s\n", p.Description)
	}
	fmt.Println()
	return nil
}
