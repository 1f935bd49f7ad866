// commands.go

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
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	ardrone "github.com/VaranTavers/parrot-ar-drone"
)

// navdata options shown when none are named
var defaultNavdataKeys = []string{
	"sequence",
	"ctrl_state",
	"battery_percentage",
	"altitude",
	"theta",
	"phi",
	"psi",
	"state.flying",
	"state.emergency",
}

var flyActions = map[string]func(*ardrone.Drone) error{
	"takeoff": (*ardrone.Drone).TakeOff,
	"land":    (*ardrone.Drone).Land,
	"hover":   (*ardrone.Drone).Hover,
	"reset":   (*ardrone.Drone).Reset,
	"trim":    (*ardrone.Drone).Trim,
}

var (
	sendCmd = &cobra.Command{
		Use:   "send [name] [params...]",
		Short: "Send one raw AT command, eg. send LED 3 1073741824 2",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.Close()

			name := strings.ToUpper(args[0])
			if err := s.drone.Link().Enqueue(name, args[1:]...); err != nil {
				return err
			}
			linger, _ := cmd.Flags().GetDuration("linger")
			time.Sleep(linger)
			fmt.Fprintf(cmd.OutOrStdout(), "sent %s\n", name)
			return nil
		},
	}
	flyCmd = &cobra.Command{
		Use:       "fly [takeoff|land|hover|reset|trim]",
		Short:     "Run one flight action",
		ValidArgs: []string{"takeoff", "land", "hover", "reset", "trim"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := flyActions[args[0]](s.drone); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s requested\n", args[0])
			return nil
		},
	}
	navdataCmd = &cobra.Command{
		Use:   "navdata [keys...]",
		Short: "Print navdata options once, eg. navdata altitude battery_percentage",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := args
			if len(keys) == 0 {
				keys = defaultNavdataKeys
			}
			s, err := openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()
			entries := awaitValues(cmd.Context(), keys, navdataLookup(s.drone))
			return render(cmd.OutOrStdout(), viper.GetString("output"), entries)
		},
	}
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Read the drone's configuration",
	}
	configGetCmd = &cobra.Command{
		Use:   "get [keys...]",
		Short: "Print configuration values, eg. config get general:num_version_soft",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()
			entries := awaitValues(cmd.Context(), args, s.drone.Config)
			return render(cmd.OutOrStdout(), viper.GetString("output"), entries)
		},
	}
)

func init() {
	sendCmd.Flags().Duration("linger", 200*time.Millisecond, wrapString("keep the link up this long after queueing the command"))
	configCmd.AddCommand(configGetCmd)
}
