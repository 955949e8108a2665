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
	"fmt"
	"os"

	"github.com/go-arcade/pulse/internal/bootstrap"
	"github.com/go-arcade/pulse/internal/engine/config"
	_ "github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/pkg/database"
	"github.com/go-arcade/pulse/pkg/log"
	"github.com/go-arcade/pulse/pkg/version"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "pulse collects CI/CD executions and serves pipeline health metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bootstrap 初始化应用
		app, cleanup, err := bootstrap.Bootstrap(configFile, initApp)
		if err != nil {
			return err
		}
		// 启动应用并等待退出信号
		bootstrap.Run(app, cleanup)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		appConf, err := config.NewConf(configFile)
		if err != nil {
			return err
		}
		if err := log.Init(&appConf.Log); err != nil {
			return err
		}
		dbConf := appConf.Database
		dbConf.AutoMigrate = true
		manager, err := database.NewManager(dbConf)
		if err != nil {
			return err
		}
		defer manager.Close()
		log.Infow("database schema migrated", "models", len(database.GetRegisteredModels()))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "conf", "c", "conf.d/config.toml", "conf file path, e.g. -c ./conf.d/config.toml")
	rootCmd.AddCommand(migrateCmd, version.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
