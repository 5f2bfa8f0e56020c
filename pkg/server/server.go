/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/bus"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/cleanup"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/database"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/export"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/handlers"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/jobs"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/logging"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/options"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/platform"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/processor"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/requeststore"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/retrieval"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/scp"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/scu"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/storagespace"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/worker"
)

// Server wires the gateway's services together and owns their lifecycle.
type Server struct {
	opts *options.Options

	db         *database.Client
	workers    *worker.Registry
	storage    storagespace.Provider
	events     *bus.Bus
	processors *processor.Registry
	reclaimer  *cleanup.Reclaimer
	jobs       *jobs.Repository
	store      *requeststore.Store
	retrieval  *retrieval.Service
	scpManager *scp.Manager
	exports    []*export.Service

	scuSender    scu.Sender
	httpServer   *http.Server
	healthServer *http.Server
	ctx          context.Context
	cancel       context.CancelFunc
	isInited     bool
}

// NewServer creates and returns a new Server instance.
func NewServer() (*Server, error) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	s := &Server{
		opts:   &options.Options{},
		ctx:    ctx,
		cancel: cancel,
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetScuSender installs the association transport used by the DICOM SCU export
// agent. Without one only the DICOMweb export agent runs.
func (s *Server) SetScuSender(sender scu.Sender) {
	s.scuSender = sender
}

// init performs the initial setup of the server: flag parsing, logging
// initialization and configuration loading.
func (s *Server) init() error {
	gin.SetMode(gin.ReleaseMode)
	var err error
	if err = s.opts.InitFlags(); err != nil {
		klog.ErrorS(err, "failed to parse flags")
		return err
	}
	if err = logging.Init(s.opts.LogfilePath, s.opts.LogFileSize); err != nil {
		klog.ErrorS(err, "failed to init logs")
		return err
	}
	if err = s.initConfig(); err != nil {
		klog.ErrorS(err, "failed to init config")
		return err
	}
	s.isInited = true
	return nil
}

// initConfig loads the gateway configuration from the specified config file path.
func (s *Server) initConfig() error {
	fullPath, err := filepath.Abs(s.opts.Config)
	if err != nil {
		return err
	}
	if err = config.LoadConfig(fullPath); err != nil {
		return fmt.Errorf("config path: %s, err: %v", fullPath, err)
	}
	return nil
}

// build constructs the gateway's services in dependency order.
func (s *Server) build() {
	s.db = database.NewClient()
	s.workers = worker.NewRegistry()
	s.storage = storagespace.NewProvider()
	s.events = bus.New()
	s.processors = processor.Default()
	s.reclaimer = cleanup.NewReclaimer(s.workers)

	jobsApi := platform.NewJobsClient()
	payloadsApi := platform.NewPayloadsClient()
	resultsApi := platform.NewResultsClient()

	s.jobs = jobs.NewRepository(s.db, jobsApi, payloadsApi, s.reclaimer, s.workers)
	s.store = requeststore.NewStore(s.db, jobsApi, s.reclaimer, s.workers)
	s.retrieval = retrieval.NewService(s.store, s.jobs, s.storage, s.workers)
	s.scpManager = scp.NewManager(s.db, s.storage, s.events, s.processors, s.jobs, s.workers)

	if agent := config.GetExportAgent(); agent != "" {
		s.exports = append(s.exports, export.NewService(agent,
			export.NewDicomWebPipeline(s.db), resultsApi, payloadsApi, s.storage, s.workers))
	}
	if agent := config.GetExportScuAgent(); agent != "" {
		if s.scuSender == nil {
			klog.Warningf("SCU export agent %s is configured but no association transport is installed", agent)
		} else {
			s.exports = append(s.exports, export.NewService(agent,
				export.NewScuPipeline(s.db, s.scuSender), resultsApi, payloadsApi, s.storage, s.workers))
		}
	}
}

// Start builds the services, runs them, and blocks until a termination
// signal arrives. It then calls Stop to shut everything down.
func (s *Server) Start() {
	if !s.isInited {
		klog.Errorf("please init the gateway server first")
		return
	}
	gin.EnableJsonDecoderDisallowUnknownFields()
	s.build()

	klog.Infof("starting dicom-gateway")
	var wg sync.WaitGroup
	for name, run := range map[string]func(context.Context){
		"disk-reclaimer":          s.reclaimer.Run,
		"job-repository":          s.jobs.Run,
		"inference-request-store": s.store.Run,
		"data-retrieval":          s.retrieval.Run,
		"scp-manager":             s.scpManager.Run,
	} {
		wg.Add(1)
		go func(name string, run func(context.Context)) {
			defer wg.Done()
			run(s.ctx)
			klog.V(4).Infof("worker %s returned", name)
		}(name, run)
	}
	for _, svc := range s.exports {
		wg.Add(1)
		go func(svc *export.Service) {
			defer wg.Done()
			svc.Run(s.ctx)
		}(svc)
	}

	go func() {
		if err := s.startHttpServer(); err != nil && err != http.ErrServerClosed {
			klog.ErrorS(err, "failed to start http-server")
			os.Exit(-1)
		}
	}()
	go func() {
		if err := s.startHealthServer(); err != nil && err != http.ErrServerClosed {
			klog.ErrorS(err, "failed to start health-server")
			os.Exit(-1)
		}
	}()

	<-s.ctx.Done()
	s.Stop()
	wg.Wait()
}

// Stop gracefully shuts down the HTTP servers, flushes logs, and closes the
// database client.
func (s *Server) Stop() {
	s.cancel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	klog.Info("shutting down http server...")
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			klog.ErrorS(err, "failed to shutdown http server")
		}
	}
	if s.healthServer != nil {
		if err := s.healthServer.Shutdown(ctx); err != nil {
			klog.ErrorS(err, "failed to shutdown health server")
		}
	}
	s.db.Close()
	klog.Info("dicom-gateway is stopped")
	klog.Flush()
}

// startHttpServer initializes and starts the HTTP server on the configured
// REST port.
func (s *Server) startHttpServer() error {
	if config.GetServerPort() <= 0 {
		return fmt.Errorf("the gateway server port is not defined")
	}
	handler := handlers.NewHandler(s.store, s.db, s.processors, s.workers)
	engine := handlers.InitHttpHandlers(handler)
	addr := fmt.Sprintf(":%d", config.GetServerPort())
	s.httpServer = &http.Server{Addr: addr, Handler: engine}
	klog.Infof("http-server listen port: %d", config.GetServerPort())
	return s.httpServer.ListenAndServe()
}

// startHealthServer serves the health routes on a dedicated port when one is
// configured, for probes that must not reach the REST surface.
func (s *Server) startHealthServer() error {
	if !config.IsHealthCheckEnabled() || config.GetHealthCheckPort() <= 0 {
		return nil
	}
	handler := handlers.NewHandler(s.store, s.db, s.processors, s.workers)
	engine := gin.New()
	engine.Use(gin.Recovery())
	handlers.InitHealthRouters(engine, handler)
	addr := fmt.Sprintf(":%d", config.GetHealthCheckPort())
	s.healthServer = &http.Server{Addr: addr, Handler: engine}
	klog.Infof("health-server listen port: %d", config.GetHealthCheckPort())
	return s.healthServer.ListenAndServe()
}
