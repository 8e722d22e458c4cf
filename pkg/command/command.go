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

package command

import (
	"context"

	"jinr.ru/greenlab/go-fir/pkg/config"
	"jinr.ru/greenlab/go-fir/pkg/srv/control"
	"jinr.ru/greenlab/go-fir/pkg/srv/stream"
)

// StartControlServer ...
func StartControlServer(cfg *config.Config) error {
	ctx := context.Background()

	s, err := control.NewControlServer(ctx, cfg)
	if err != nil {
		return err
	}
	return s.Run()
}

// StartServers runs the control server and the stream server together. The
// stream server feeds bursts to the cores owned by the control server.
func StartServers(cfg *config.Config) error {
	ctx := context.Background()

	ctrl, err := control.NewControlServer(ctx, cfg)
	if err != nil {
		return err
	}
	strm, err := stream.NewStreamServer(ctx, cfg, ctrl)
	if err != nil {
		return err
	}

	errChan := make(chan error, 2)
	go func() {
		errChan <- ctrl.Run()
	}()
	go func() {
		errChan <- strm.Run()
	}()
	return <-errChan
}
