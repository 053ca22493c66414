package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/planner"
)

var (
	planURL       string
	planTimeout   time.Duration
	planAlgorithm string
	planOutput    string
	planImage     string
)

var planCmd = &cobra.Command{
	Use:   "plan [scene]",
	Short: "Ask the planner service for a path through a scene",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVar(&planURL, "planner", "http://localhost:5000/plan", "Planner endpoint")
	planCmd.Flags().DurationVar(&planTimeout, "timeout", 30*time.Second, "Planner request timeout")
	planCmd.Flags().StringVarP(&planAlgorithm, "algorithm", "a", "", "Override the scene's algorithm")
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "", "Write the planner response JSON here")
	planCmd.Flags().StringVar(&planImage, "png", "", "Render the result to this PNG file")
}

func runPlan(cmd *cobra.Command, args []string) error {
	scene, err := readScene(args[0])
	if err != nil {
		return err
	}

	algorithm := scene.Algorithm
	if planAlgorithm != "" {
		if algorithm, err = document.ParseAlgorithm(planAlgorithm); err != nil {
			return err
		}
	}

	e, canvas, err := staticEngine(scene)
	if err != nil {
		return err
	}

	client := planner.NewClient(planURL, planTimeout)
	req := document.NewPlanRequest(e.State(), algorithm, scene.Parameters)
	resp, planErr := client.Plan(cmd.Context(), req)
	if planErr != nil && !errors.Is(planErr, planner.ErrPlanningFailed) {
		return planErr
	}

	// A failed plan still carries the planner's message; keep it on disk.
	if planOutput != "" {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(planOutput, data, 0644); err != nil {
			return err
		}
	}

	// An unsuccessful plan still renders the explored tree.
	if planErr != nil && resp.Error != "" {
		return planErr
	}

	res, err := resp.Result()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", resp.Details.Name)
	fmt.Fprintln(out, "====================")
	for _, row := range resp.Details.Rows() {
		fmt.Fprintf(out, "%s: %s\n", row.Label, row.Value)
	}
	if len(res.Path) == 0 {
		fmt.Fprintln(out, "No path found")
	}

	if planImage != "" {
		e.IngestResult(res, resp.Details)
		if err := writePNG(planImage, canvas); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", planImage)
	}
	return nil
}
