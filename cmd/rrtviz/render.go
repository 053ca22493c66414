package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	renderResult string
	renderOutput string
)

var renderCmd = &cobra.Command{
	Use:   "render [scene]",
	Short: "Render a scene and an optional result to PNG",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderResult, "result", "r", "", "Planner response JSON to draw")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "rrt-visualization.png", "Output PNG file")
}

func runRender(cmd *cobra.Command, args []string) error {
	scene, err := readScene(args[0])
	if err != nil {
		return err
	}
	e, canvas, err := staticEngine(scene)
	if err != nil {
		return err
	}

	if renderResult != "" {
		resp, err := readResponse(renderResult)
		if err != nil {
			return err
		}
		res, err := resp.Result()
		if err != nil {
			return err
		}
		e.IngestResult(res, resp.Details)
	}

	if err := writePNG(renderOutput, canvas); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", renderOutput)
	return nil
}
