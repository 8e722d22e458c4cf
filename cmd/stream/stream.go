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

package stream

import (
	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-fir/pkg/command"
	"jinr.ru/greenlab/go-fir/pkg/config"
)

const (
	DirOptionName        = "dir"
	FilePrefixOptionName = "file-prefix"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Control filtered output persistence",
	}
	cmd.AddCommand(NewPersistCommand())
	cmd.AddCommand(NewFlushCommand())
	return cmd
}

// NewPersistCommand starts writing filtered bursts to files
func NewPersistCommand() *cobra.Command {
	var dir, filePrefix string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "persist",
		Short: "Persist filtered output to files",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.StreamPersist(dir, filePrefix)
		},
	}
	cmd.Flags().StringVar(&dir, DirOptionName, "", "Output directory. Defaults to the configured outdir")
	cmd.Flags().StringVar(&filePrefix, FilePrefixOptionName, "", "File name prefix")

	return cmd
}

// NewFlushCommand closes the per core output files
func NewFlushCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Flush and close output files",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.StreamFlush()
		},
	}

	return cmd
}
