// root.go

// Copyright (C) 2024  VaranTavers

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	ardrone "github.com/VaranTavers/parrot-ar-drone"
)

const (
	Version = "0.3.0"

	// wrap is the number of characters to wrap flag help at
	wrap = 50
)

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "ardrone",
		Short: "talk to a Parrot AR.Drone 2.0",
		Long: fmt.Sprintf(`ardrone (v%s)

Sends AT commands to a Parrot AR.Drone 2.0 and reads back its navdata
telemetry and configuration. Settings come from flags, ARDRONE_* environment
variables (also read from .env and .env.local) and an optional YAML file.`, Version),
		SilenceUsage:      true,
		PersistentPreRunE: bindFlags,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of ardrone",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ardrone v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(sendCmd)
	RootCmd.AddCommand(flyCmd)
	RootCmd.AddCommand(navdataCmd)
	RootCmd.AddCommand(configCmd)
	RootCmd.AddCommand(watchCmd)

	flags := RootCmd.PersistentFlags()
	flags.String("config", "", wrapString("YAML file with link settings, read before flags and environment"))
	flags.String("drone-host", "", wrapString("address of the drone (default 192.168.1.1)"))
	flags.String("log-level", "", wrapString("log level (trace, debug, info, warn, error)"))
	flags.Duration("query-timeout", 0, wrapString("give up on a single navdata or config query after this long"))
	flags.Duration("wait", 3*time.Second, wrapString("how long to wait for the drone to report a value"))
	flags.String("metrics-addr", "", wrapString("serve Prometheus metrics on this address while connected, eg. :9100"))
	flags.StringP("output", "o", "text", wrapString("output format (text, yaml)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initConfig loads env files and sets up viper's environment lookup
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("ardrone")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func bindFlags(cmd *cobra.Command, _ []string) error {
	return viper.BindPFlags(cmd.Flags())
}

// linkConfig builds the library configuration: defaults, then the YAML
// file, then anything set by flag or environment.
func linkConfig() (ardrone.Config, error) {
	cfg := ardrone.DefaultConfig()
	if path := viper.GetString("config"); path != "" {
		c, err := ardrone.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}
	if viper.IsSet("drone-host") {
		cfg.DroneHost = viper.GetString("drone-host")
	}
	if viper.IsSet("log-level") {
		cfg.LogLevel = viper.GetString("log-level")
	}
	if viper.IsSet("query-timeout") {
		cfg.QueryTimeout = viper.GetDuration("query-timeout")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(level string) hclog.Logger {
	color := hclog.ColorOff
	if term.IsTerminal(int(os.Stderr.Fd())) {
		color = hclog.ForceColor
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "ardrone",
		Level:  hclog.LevelFromString(level),
		Output: os.Stderr,
		Color:  color,
	})
}

// wrapString wraps help text at wrap characters
func wrapString(text string) string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > wrap {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteString(" ")
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}
