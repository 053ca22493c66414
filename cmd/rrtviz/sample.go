package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/preset"
)

var samplePreset string

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print a scene file to start from",
	Long: `sample prints the demo scene as YAML. With --preset it prints one of the
built-in presets instead; --preset list shows their names.`,
	Args: cobra.NoArgs,
	RunE: runSample,
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	sampleCmd.Flags().StringVarP(&samplePreset, "preset", "p", "", "Built-in preset id, or \"list\"")
}

func runSample(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if samplePreset == "list" {
		for _, p := range preset.Builtins() {
			fmt.Fprintf(out, "%-16s %s\n", p.ID, p.Description)
		}
		return nil
	}

	scene := document.NewSampleScene()
	if samplePreset != "" {
		var found bool
		for _, p := range preset.Builtins() {
			if strings.EqualFold(p.ID, samplePreset) {
				s := p.Scene
				scene, found = &s, true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown preset %q", samplePreset)
		}
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(scene); err != nil {
		return err
	}
	return enc.Close()
}
