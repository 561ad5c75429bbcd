package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/reelscript/internal/ratelimit"
)

var localOnly bool

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Show request limits, locally and on the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		w := cmd.OutOrStdout()
		now := time.Now()

		fmt.Fprintln(w, headingStyle.Render("Local"))
		for _, p := range []struct {
			name string
			cfg  ratelimit.Config
		}{{"video analysis", ratelimit.VideoAnalysis}, {"save script", ratelimit.SaveScript}} {
			lim, err := localLimiter(p.cfg)
			if err != nil {
				return err
			}
			renderLocal(w, p.name, lim.Status(ctx), now)
		}

		if localOnly {
			return nil
		}
		remote, err := apiClient().Limits(ctx)
		if err != nil {
			return fmt.Errorf("server limits: %w", err)
		}
		fmt.Fprintln(w, headingStyle.Render("Server"))
		renderRemote(w, "video analysis", remote.Analysis, now)
		renderRemote(w, "save script", remote.Save, now)
		return nil
	},
}

var limitsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the local limiter history (and the server's, unless --local)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		for _, cfg := range []ratelimit.Config{ratelimit.VideoAnalysis, ratelimit.SaveScript} {
			lim, err := localLimiter(cfg)
			if err != nil {
				return err
			}
			lim.Reset(ctx)
		}
		if !localOnly {
			if err := apiClient().ResetLimits(ctx); err != nil {
				return fmt.Errorf("server reset: %w", err)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("limits reset"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(limitsCmd)
	limitsCmd.AddCommand(limitsResetCmd)
	limitsCmd.PersistentFlags().BoolVar(&localOnly, "local", false, "only touch the local limiter state")
}
