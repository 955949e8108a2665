// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/pulse/internal/cli"
	"github.com/go-arcade/pulse/pkg/version"
	"github.com/spf13/cobra"
)

var (
	server  string
	timeout time.Duration
	period  string
)

var rootCmd = &cobra.Command{
	Use:   "pulse-cli",
	Short: "pulse cli queries a running pulse server",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary <projectId>",
	Short: "Print the metrics summary of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		m, err := client().Summary(cmd.Context(), id, period)
		if err != nil {
			return err
		}
		return printJSON(cmd, m)
	},
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Print the cross-project overview",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := client().Overview(cmd.Context(), period)
		if err != nil {
			return err
		}
		return printJSON(cmd, o)
	},
}

var channels []string

var testAlertCmd = &cobra.Command{
	Use:   "test-alert <projectId>",
	Short: "Send a test alert through the configured channels",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		res, err := client().TestAlert(cmd.Context(), id, channels)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&server, "server", "s", "http://localhost:8080", "pulse server base url")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "request timeout")
	summaryCmd.Flags().StringVarP(&period, "period", "p", "7d", "period token, e.g. 24h, 7d, 30d")
	overviewCmd.Flags().StringVarP(&period, "period", "p", "7d", "period token, e.g. 24h, 7d, 30d")
	testAlertCmd.Flags().StringSliceVar(&channels, "channel", nil, "channel to notify, repeatable")

	rootCmd.AddCommand(version.VersionCmd, summaryCmd, overviewCmd, testAlertCmd)
}

func client() *cli.Client {
	return cli.NewClient(server, timeout)
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid project id %q", s)
	}
	return id, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
