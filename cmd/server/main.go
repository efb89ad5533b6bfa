// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/vidreport/go-video-report/internal/cloud"
	"github.com/vidreport/go-video-report/internal/core/services"
	"github.com/vidreport/go-video-report/internal/telemetry"
)

const sessionCookieName = "session_id"

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	otelShutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	metricsSrv := telemetry.StartMetricsServer(config.Application.MetricsPort)

	r := gin.Default()

	// Add OpenTelemetry middleware
	r.Use(otelgin.Middleware(config.Application.Name))

	// A permissive CORS configuration: the report frontend is served from
	// a different origin during development.
	r.Use(cors.Default())

	r.GET("/", LandingPage)
	r.GET("/healthz", HealthCheck(config))
	r.GET("/pdf", PDFPage)

	apiV1 := r.Group("/api/v1")
	{
		AnalyzeRouter(apiV1, config)
		ReportRouter(apiV1)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Application.Port),
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready", "port", config.Application.Port)

	// Wait for an interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Metrics Server Shutdown Failed:", "error", err)
	}
	if err := otelShutdown(shutdownCtx); err != nil {
		slog.Error("Telemetry Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// AnalyzeRouter sets up the video upload and analysis route.
func AnalyzeRouter(r *gin.RouterGroup, config *cloud.Config) {
	r.POST("/analyze", func(c *gin.Context) {
		// Cap the request body so an oversized upload fails fast instead
		// of filling the disk.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, config.MaxUploadBytes())

		file, err := c.FormFile("video")
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too_large", "detail": "アップロードサイズの上限を超えています"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "no_file", "detail": "動画ファイルがありません"})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "detail": err.Error()})
			return
		}
		defer func() { _ = src.Close() }()

		result, aerr := state.analysisService.Analyze(c.Request.Context(), sessionKey(c), file.Filename, src)
		if aerr != nil {
			var analysisErr *services.AnalysisError
			status := http.StatusInternalServerError
			kind := "internal"
			if errors.As(aerr, &analysisErr) {
				status = statusForKind(analysisErr.Kind)
				kind = analysisErr.Kind.String()
			}
			slog.ErrorContext(c.Request.Context(), "analysis failed", "error", aerr)
			c.JSON(status, gin.H{"error": kind, "detail": aerr.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	})
}

// ReportRouter sets up the report retrieval routes.
func ReportRouter(r *gin.RouterGroup) {
	r.GET("/reports/latest", func(c *gin.Context) {
		stored, ok := state.analysisService.Store().Get(sessionKey(c))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "レポートがまだ生成されていません"})
			return
		}
		c.JSON(http.StatusOK, stored)
	})
}

// HealthCheck reports process liveness plus the readiness of the two
// external dependencies: the ffmpeg binary and the generative AI client.
func HealthCheck(config *cloud.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ffmpegOK := exec.Command(config.FFmpeg.Path, "-version").Run() == nil

		out := gin.H{
			"ok":              true,
			"ffmpeg_ok":       ffmpegOK,
			"client_ready":    state.ClientReady(),
			"api_key_present": cloud.APIKeyPresent(config),
		}
		if err := state.LastInitError(); err != nil {
			out["last_init_error"] = err.Error()
		}
		c.JSON(http.StatusOK, out)
	}
}

// LandingPage serves a minimal upload page so the service is usable from
// a browser without the separate frontend.
func LandingPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(`<!DOCTYPE html>
<html lang="ja">
<head><meta charset="utf-8"><title>動画分析レポート</title></head>
<body>
<h1>動画分析レポート</h1>
<form action="/api/v1/analyze" method="post" enctype="multipart/form-data">
  <input type="file" name="video" accept="video/*">
  <button type="submit">分析する</button>
</form>
</body>
</html>`))
}

// PDFPage explains how to save the report as a PDF via the browser's
// print dialog; there is no server-side PDF rendering.
func PDFPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(`<html><head><meta charset="UTF-8"></head>
<body style="font-family:sans-serif;padding:24px;">
  <h1>PDF保存方法</h1>
  <p>ブラウザの印刷機能を使用してPDFとして保存できます。</p>
  <ol>
    <li>分析結果画面で Ctrl+P (Mac: Cmd+P)</li>
    <li>プリンター選択で「PDFとして保存」</li>
    <li>保存</li>
  </ol>
  <p><a href="/">ホームに戻る</a></p>
</body></html>`))
}

// sessionKey returns the caller's session cookie, minting one when the
// request has none so repeated calls from the same browser share reports.
func sessionKey(c *gin.Context) string {
	if id, err := c.Cookie(sessionCookieName); err == nil && id != "" {
		return id
	}
	id := uuid.NewString()
	c.SetCookie(sessionCookieName, id, 86400*7, "/", "", false, true)
	return id
}

// statusForKind maps the service error taxonomy onto HTTP status codes.
// Extraction failures (ffmpeg error or zero frames) surface as 500.
func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindNoFile:
		return http.StatusBadRequest
	case services.KindNotConfigured:
		return http.StatusServiceUnavailable
	case services.KindExtraction:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
