package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tasktime/internal/runtime"
)

// completionTimeout bounds the task lookup so a slow API never blocks the shell.
const completionTimeout = 2 * time.Second

// completeTaskIDs completes the first argument with task IDs, described by
// their titles.
func completeTaskIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Only complete first argument
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	rt := ctx
	if rt == nil {
		var err error
		if rt, err = runtime.New(runtime.DefaultOptions()); err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		defer rt.Close()
	}

	c, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()
	res, err := rt.Store.List(c)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, t := range res.Tasks {
		if strings.HasPrefix(strings.ToLower(t.ID), strings.ToLower(toComplete)) {
			completions = append(completions, t.ID+"\t"+t.Title)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeValues returns a completion function for a fixed set of values.
func completeValues(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var filtered []string
		for _, v := range values {
			if strings.HasPrefix(v, toComplete) {
				filtered = append(filtered, v)
			}
		}
		return filtered, cobra.ShellCompDirectiveNoFileComp
	}
}
