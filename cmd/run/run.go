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

package run

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-fir/cmd/fir"
	"jinr.ru/greenlab/go-fir/pkg/config"
	"jinr.ru/greenlab/go-fir/pkg/core"
)

const (
	CoreOptionName = "core"
	CoefOptionName = "coef"
	InOptionName   = "in"
	OutOptionName  = "out"
)

// NewCommand filters a sample file through an in-process core, without a
// running server. One sample per line, decimal or 0x-prefixed hexadecimal.
func NewCommand() *cobra.Command {
	var coreName, coef, inPath, outPath string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Filter a sample file through the cycle model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgCore, err := cfg.GetCoreByName(coreName)
			if err != nil {
				return err
			}
			coefWords, err := fir.ParseWords(coef)
			if err != nil {
				return err
			}

			samples, err := readSamples(inPath)
			if err != nil {
				return err
			}

			drv := core.NewDriver(core.New(cfgCore.Taps))
			outputs, err := drv.Filter(coefWords, samples)
			if err != nil {
				return err
			}

			return writeOutputs(cmd.OutOrStdout(), outPath, outputs)
		},
	}
	cmd.Flags().StringVar(&coreName, CoreOptionName, config.DefaultCoreName, "Core name")
	cmd.Flags().StringVar(&coef, CoefOptionName, "", "Comma-separated coefficient values. E.g. 1,0,0")
	cmd.Flags().StringVar(&inPath, InOptionName, "", "Sample file, one value per line. Stdin when omitted")
	cmd.Flags().StringVar(&outPath, OutOptionName, "", "Output file. Stdout when omitted")

	return cmd
}

func readSamples(path string) ([]uint32, error) {
	var reader io.Reader = os.Stdin
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		reader = file
	}

	var samples []uint32
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		value, err := strconv.ParseUint(line, 0, 32)
		if err != nil {
			return nil, err
		}
		samples = append(samples, uint32(value))
	}
	return samples, scanner.Err()
}

func writeOutputs(stdout io.Writer, path string, outputs []uint32) error {
	writer := stdout
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		writer = file
	}
	for _, word := range outputs {
		if _, err := fmt.Fprintln(writer, word); err != nil {
			return err
		}
	}
	return nil
}
