package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/reelscript/internal/application"
	"github.com/bryanwahyu/reelscript/internal/clipboard"
	"github.com/bryanwahyu/reelscript/internal/ratelimit"
)

var (
	listQuery  string
	copyFormat string
	removeAll  bool
)

var scriptsCmd = &cobra.Command{
	Use:     "scripts",
	Aliases: []string{"s"},
	Short:   "Manage saved scripts",
}

var scriptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved scripts, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()
		list, err := c.ListScripts(cmd.Context(), listQuery)
		if err != nil {
			return err
		}
		for _, s := range list {
			renderScriptRow(cmd.OutOrStdout(), s)
		}
		q, err := c.Quota(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render(fmt.Sprintf("%d of %d saved, %s left", q.Count, q.Max, plural(q.Remaining, "slot"))))
		return nil
	},
}

var scriptsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := apiClient().GetScript(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderResult(cmd.OutOrStdout(), s.Result)
		return nil
	},
}

var scriptsCopyCmd = &cobra.Command{
	Use:   "copy <id>",
	Short: "Copy a saved script to the clipboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := apiClient().ScriptText(cmd.Context(), args[0], copyFormat)
		if err != nil {
			return err
		}
		out := clipboard.Default(log, os.Stdout).CopyOrShow(cmd.Context(), cmd.OutOrStdout(), text)
		if out.OK() {
			fmt.Fprintln(os.Stderr, okStyle.Render("copied ("+out.Method.String()+")"))
		}
		return nil
	},
}

var scriptsSaveCmd = &cobra.Command{
	Use:   "save <result.json>",
	Short: "Save an analysis result written by 'analyze -o'",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return saveRaw(cmd, data)
	},
}

var scriptsRmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Delete a saved script, or all of them with --all",
	Args: func(cmd *cobra.Command, args []string) error {
		if removeAll && len(args) == 0 {
			return nil
		}
		if !removeAll && len(args) == 1 {
			return nil
		}
		return errors.New("pass exactly one id, or --all with no id")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()
		if removeAll {
			n, err := c.DeleteAllScripts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("deleted "+plural(n, "script")))
			return nil
		}
		if err := c.DeleteScript(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("deleted "+args[0]))
		return nil
	},
}

// saveRaw checks the local save limiter, then posts v (raw JSON bytes or
// any value that marshals to a result).
func saveRaw(cmd *cobra.Command, v any) error {
	lim, err := localLimiter(ratelimit.SaveScript)
	if err != nil {
		return err
	}
	if err := application.Admit(cmd.Context(), lim); err != nil {
		return err
	}

	raw, ok := v.([]byte)
	if !ok {
		if raw, err = json.Marshal(v); err != nil {
			return err
		}
	}
	s, err := apiClient().SaveScript(cmd.Context(), raw)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("saved as "+string(s.ID)))
	return nil
}

func init() {
	rootCmd.AddCommand(scriptsCmd)
	scriptsCmd.AddCommand(scriptsListCmd, scriptsShowCmd, scriptsCopyCmd, scriptsSaveCmd, scriptsRmCmd)

	scriptsListCmd.Flags().StringVarP(&listQuery, "query", "q", "", "filter by title, scene or recommendation text")
	scriptsCopyCmd.Flags().StringVarP(&copyFormat, "format", "f", "full", "text format: script or full")
	scriptsRmCmd.Flags().BoolVar(&removeAll, "all", false, "delete every saved script")
}
