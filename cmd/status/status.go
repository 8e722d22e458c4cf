/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package status

import (
	"fmt"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-fir/pkg/command"
	"jinr.ru/greenlab/go-fir/pkg/config"
)

const (
	CoreOptionName = "core"
)

func NewCommand() *cobra.Command {
	var core string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show core control register and lifecycle state",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			status, running, err := apiClient.Status(core)
			if err != nil {
				return err
			}
			state := "idle"
			if running {
				state = "running"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", core, status, state)
			return nil
		},
	}
	cmd.Flags().StringVar(&core, CoreOptionName, config.DefaultCoreName, "Core name")

	return cmd
}
