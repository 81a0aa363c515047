// SPDX-License-Identifier: MIT
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/audio"
	applog "github.com/Zoharlev/drum-beat-visionary-16th-sub000/internal/log"
)

func newDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the audio devices PortAudio can see",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := audio.Initialize(); err != nil {
				return err
			}
			defer func() {
				if err := audio.Terminate(); err != nil {
					applog.Errorf("Failed to terminate PortAudio: %v", err)
				}
			}()

			return audio.ListDevices()
		},
	}
}
