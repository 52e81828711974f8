// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Command drms-export is the export scheduler daemon: it claims New/DevNew
// export requests from the catalog, resolves each request's processing
// pipeline, emits the run scripts a batch system submits, and serves the
// request-status/admin-trigger/URL_CGI HTTP surface.
package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/gops/agent"

	"github.com/heliocore/drms-export/internal/catalog"
	"github.com/heliocore/drms-export/internal/config"
	"github.com/heliocore/drms-export/internal/directory"
	"github.com/heliocore/drms-export/internal/exporter"
	"github.com/heliocore/drms-export/internal/runtimeenv"
	"github.com/heliocore/drms-export/internal/scheduler"
	"github.com/heliocore/drms-export/internal/segment"
	"github.com/heliocore/drms-export/internal/web"
	"github.com/heliocore/drms-export/pkg/rlog"
)

func main() {
	var flagConfigFile string
	var flagInitDB, flagGops bool
	flag.StringVar(&flagConfigFile, "config", "./config.json", "load configuration overrides from `config.json`")
	flag.BoolVar(&flagInitDB, "init-db", false, "run pending catalog schema migrations and exit")
	flag.BoolVar(&flagGops, "gops", false, "listen via github.com/google/gops/agent (for debugging)")
	flag.Parse()

	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			rlog.Fatalf("gops/agent.Listen failed: %v", err)
		}
	}

	config.Init(flagConfigFile)
	cfg := config.Keys

	db, err := catalog.Connect(cfg.DBDriver, cfg.DB)
	if err != nil {
		rlog.Fatalf("drms-export: %v", err)
	}

	if flagInitDB {
		if err := catalog.MigrateUp(cfg.DBDriver, db); err != nil {
			rlog.Fatalf("drms-export: %v", err)
		}
		rlog.Print("drms-export: schema migrated")
		return
	}

	client := catalog.New(db, cfg.DBDriver)
	resolver := directory.NewResolver(cfg.DirectoryConfig(), client)
	cat := directory.WithResolver(client, resolver)

	proc := scheduler.NewProcessor(cat, cfg.SchedulerEnvironment())
	svc, err := scheduler.NewService(proc, scheduler.Config{
		Interval: cfg.ClaimIntervalDuration(),
		DevMode:  cfg.DevMode,
	})
	if err != nil {
		rlog.Fatalf("drms-export: %v", err)
	}
	if err := svc.Start(); err != nil {
		rlog.Fatalf("drms-export: starting claim pass: %v", err)
	}

	// The URL_CGI sink runs the same segment engine in-process rather than
	// shelling out to the exporter binary: a synchronous request/response
	// has no qsub step to wait on, so there is nothing the separate
	// process buys it.
	engine := segment.NewLocalEngine(cfg.RecordStoreRoot, client)
	streamExporter := exporter.NewStreamingExporter(exporter.NewExporter(engine, client), client)

	srv := web.NewServer(web.Config{Addr: cfg.Addr, JWTSecret: []byte(cfg.JWTSecret)}, client, streamExporter, svc)

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		rlog.Fatalf("drms-export: %v", err)
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute, // URL_CGI streams a whole archive over one response
	}

	if err := runtimeenv.DropPrivileges(cfg.User, cfg.Group); err != nil {
		rlog.Fatalf("drms-export: dropping privileges: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		rlog.Infof("drms-export: listening at %s", cfg.Addr)
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			rlog.Fatalf("drms-export: %v", err)
		}
	}()

	wg.Add(1)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer wg.Done()
		<-sigs
		runtimeenv.SystemdNotify(false, "shutting down")
		httpServer.Shutdown(context.Background())
		svc.Shutdown()
	}()

	runtimeenv.SystemdNotify(true, "running")
	wg.Wait()
	rlog.Print("drms-export: graceful shutdown complete")
}
