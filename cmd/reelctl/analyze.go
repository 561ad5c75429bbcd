package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/reelscript/internal/application"
	"github.com/bryanwahyu/reelscript/internal/clipboard"
	"github.com/bryanwahyu/reelscript/internal/ratelimit"
)

var (
	copyScript bool
	saveResult bool
	outFile    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <video>",
	Short: "Upload a short video and print its breakdown",
	Example: `  reelctl analyze clip.mp4
  reelctl analyze clip.mov --copy --save
  reelctl analyze clip.webm -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		lim, err := localLimiter(ratelimit.VideoAnalysis)
		if err != nil {
			return err
		}
		if err := application.Admit(ctx, lim); err != nil {
			return err
		}

		fmt.Fprintln(os.Stderr, dimStyle.Render("uploading and analysing, this can take a minute..."))
		res, err := apiClient().Analyze(ctx, args[0])
		if err != nil {
			return err
		}
		renderResult(cmd.OutOrStdout(), res)

		if outFile != "" {
			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(outFile, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, okStyle.Render("result written to "+outFile))
		}

		if saveResult {
			if err := saveRaw(cmd, res); err != nil {
				return err
			}
		}

		if copyScript {
			out := clipboard.Default(log, os.Stdout).CopyOrShow(ctx, os.Stderr, res.ScriptText())
			if out.OK() {
				fmt.Fprintln(os.Stderr, okStyle.Render("script copied ("+out.Method.String()+")"))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&copyScript, "copy", false, "copy the scene script to the clipboard")
	analyzeCmd.Flags().BoolVar(&saveResult, "save", false, "save the result on the server")
	analyzeCmd.Flags().StringVarP(&outFile, "output", "o", "", "write the result JSON to a file")
}
