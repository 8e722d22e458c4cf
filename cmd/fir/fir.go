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

package fir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-fir/pkg/command"
	"jinr.ru/greenlab/go-fir/pkg/config"
)

const (
	CoreOptionName = "core"
	CoefOptionName = "coef"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fir",
		Short: "Work with core filter coefficients",
	}
	cmd.AddCommand(NewLoadCommand())
	cmd.AddCommand(NewShowCommand())
	return cmd
}

// NewLoadCommand programs the coefficient store of a core
func NewLoadCommand() *cobra.Command {
	var core, coef string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load filter coefficients",
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := ParseWords(coef)
			if err != nil {
				return err
			}
			apiClient := command.NewApiClient(cfg)
			return apiClient.SetCoefficients(core, values)
		},
	}
	cmd.Flags().StringVar(&core, CoreOptionName, config.DefaultCoreName, "Core name")
	cmd.Flags().StringVar(&coef, CoefOptionName, "", "Comma-separated coefficient values. E.g. 1,0,0")

	return cmd
}

// NewShowCommand reads back the coefficient store of a core
func NewShowCommand() *cobra.Command {
	var core string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show filter coefficients",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			coef, err := apiClient.Coefficients(core)
			if err != nil {
				return err
			}
			for i, value := range coef {
				fmt.Fprintf(cmd.OutOrStdout(), "%d: %d\n", i, value)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&core, CoreOptionName, config.DefaultCoreName, "Core name")

	return cmd
}

// ParseWords parses a comma-separated list of 32-bit values. Decimal and
// 0x-prefixed hexadecimal forms are accepted.
func ParseWords(list string) ([]uint32, error) {
	if list == "" {
		return nil, nil
	}
	var words []uint32
	for _, item := range strings.Split(list, ",") {
		value, err := strconv.ParseUint(strings.TrimSpace(item), 0, 32)
		if err != nil {
			return nil, err
		}
		words = append(words, uint32(value))
	}
	return words, nil
}
