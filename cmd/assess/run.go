package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"brain-health-assessment/internal/models"
	"brain-health-assessment/internal/report"
	"brain-health-assessment/internal/service/pipeline"
)

var (
	audioFlag    string
	platformFlag string
	ageFlag      int
	jsonFlag     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one assessment over a recording",
	Long: `Transcribe the recording and analyze the transcript.

The recording may be a local path, a file:// URI or an http(s) URL.
A failed stage stops the run and names the stage; run the command again
to retry.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if audioFlag == "" {
			return errors.New("--audio is required")
		}
		if err := report.ValidateAge(ageFlag); err != nil {
			return err
		}

		ctx := cmd.Context()
		application, err := newApplication(ctx, cmd)
		if err != nil {
			return err
		}
		defer application.Shutdown()

		platform := application.Cfg.Transcription.Platform
		if platformFlag != "" {
			if platform, err = models.ParsePlatform(platformFlag); err != nil {
				return err
			}
		}

		res, err := application.Pipeline.Run(ctx,
			models.RecordingHandle{URI: audioFlag, Platform: platform},
			pipeline.WithAge(ageFlag),
		)
		if err != nil {
			var perr *pipeline.PipelineError
			if errors.As(err, &perr) {
				return fmt.Errorf("%w\nThe %s step did not complete. Check the connection and try again", err, perr.Stage)
			}
			return err
		}

		out := cmd.OutOrStdout()
		if jsonFlag {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		fmt.Fprintln(out, report.Render(res, ageFlag))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&audioFlag, "audio", "a", "", "recording to assess")
	runCmd.Flags().StringVarP(&platformFlag, "platform", "p", "", "recording platform: ios, android or web")
	runCmd.Flags().IntVar(&ageFlag, "age", report.DefaultAge, "participant age (18-99)")
	runCmd.Flags().BoolVar(&jsonFlag, "json", false, "print the result as JSON")
	rootCmd.AddCommand(runCmd)
}
