package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rrtviz/rrtviz/backend-go/internal/engine"
	"github.com/rrtviz/rrtviz/backend-go/internal/export"
	"github.com/rrtviz/rrtviz/backend-go/internal/surface"
)

var (
	framesResult string
	framesDir    string
	framesSpeed  float64
	framesVideo  string
	framesFPS    int
	framesFfmpeg string
)

var framesCmd = &cobra.Command{
	Use:   "frames [scene]",
	Short: "Replay a result's animation as numbered PNG frames",
	Long: `frames plays a planner result back the way the visualizer animates it and
writes one PNG per animation step. With --video the frames are encoded with
ffmpeg into mp4, gif or webm.`,
	Args: cobra.ExactArgs(1),
	RunE: runFrames,
}

func init() {
	rootCmd.AddCommand(framesCmd)

	framesCmd.Flags().StringVarP(&framesResult, "result", "r", "", "Planner response JSON to replay (required)")
	framesCmd.Flags().StringVarP(&framesDir, "dir", "d", "frames", "Output directory")
	framesCmd.Flags().Float64VarP(&framesSpeed, "speed", "s", 0, "Events per frame (default: the scene's speed)")
	framesCmd.Flags().StringVar(&framesVideo, "video", "", "Also encode a video: mp4, gif or webm")
	framesCmd.Flags().IntVar(&framesFPS, "fps", 30, "Video frame rate")
	framesCmd.Flags().StringVar(&framesFfmpeg, "ffmpeg", "ffmpeg", "Path to the ffmpeg binary")
	framesCmd.MarkFlagRequired("result")
}

func runFrames(cmd *cobra.Command, args []string) error {
	if framesVideo != "" {
		if _, err := export.ContentType(framesVideo); err != nil {
			return err
		}
	}

	scene, err := readScene(args[0])
	if err != nil {
		return err
	}
	resp, err := readResponse(framesResult)
	if err != nil {
		return err
	}
	res, err := resp.Result()
	if err != nil {
		return err
	}

	// Lay the scene out through an engine so clamping matches the visualizer.
	e, _, err := staticEngine(scene)
	if err != nil {
		return err
	}
	state := e.State()
	state.Result = res

	speed := framesSpeed
	if speed <= 0 {
		speed = scene.Speed
	}

	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return err
	}
	n, err := export.Replay(state, speed, engine.DefaultTheme(), func(i int, c *surface.Canvas) error {
		return writePNG(export.FramePath(framesDir, i), c)
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %d frames to %s\n", n, framesDir)

	if framesVideo == "" {
		return nil
	}
	if framesFPS <= 0 {
		framesFPS = 30
	}
	video, err := export.NewEncoder(framesFfmpeg).Encode(cmd.Context(), framesDir, framesVideo, framesFPS)
	if err != nil {
		return fmt.Errorf("encoding failed: %w", err)
	}
	fmt.Fprintf(out, "Wrote %s\n", video)
	return nil
}
