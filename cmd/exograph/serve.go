// Copyright 2015 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/exograph/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCommand(e *env) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the loaded graph over a REST API",
		Long: `Starts the REST API on the configured address. The API exposes SPARQL
queries, pattern lookups, triple updates, statistics, and Prometheus
metrics. Requests must carry the configured API key, if any, in the
X-API-Key header.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = e.cfg.Server.Listen
			}
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				e.metrics,
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			srv, err := server.New(e.engine, server.Config{
				Listen:       listen,
				APIKey:       e.cfg.Server.APIKey,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: e.cfg.Query.Timeout + 10*time.Second,
			}, server.WithLogger(e.logger), server.WithGatherer(reg))
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Start(ctx)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "address to listen on; overrides server.listen")
	return cmd
}
