// Package main is the entry point for the job board server.
//
// The main package stays minimal: it reads configuration, creates the
// logger, and starts the server. All actual logic lives in internal/.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	redisRepo "github.com/sakif/jobboard/internal/repository/redis"
	"github.com/sakif/jobboard/internal/server"
)

var opts struct {
	Port    int    `short:"p" long:"port" env:"JOBBOARD_PORT" default:"8080" description:"listen port"`
	Storage string `long:"storage" env:"JOBBOARD_STORAGE" default:"sqlite" choice:"memory" choice:"sqlite" choice:"redis" description:"storage backend"`

	SQLite struct {
		Path string `long:"path" env:"PATH" default:"data/jobboard.db" description:"sqlite database file"`
	} `group:"sqlite" namespace:"sqlite" env-namespace:"JOBBOARD_SQLITE"`

	Redis struct {
		Addr      string `long:"addr" env:"ADDR" default:"localhost:6379" description:"redis address"`
		Password  string `long:"password" env:"PASSWORD" description:"redis password"`
		DB        int    `long:"db" env:"DB" default:"0" description:"redis database number"`
		Namespace string `long:"namespace" env:"NAMESPACE" default:"jobboard:" description:"key prefix"`
	} `group:"redis" namespace:"redis" env-namespace:"JOBBOARD_REDIS"`

	AllowStatusRevision bool `long:"allow-status-revision" env:"JOBBOARD_ALLOW_STATUS_REVISION" description:"let recipients change an accepted or rejected answer"`
	BcryptCost          int  `long:"bcrypt-cost" env:"JOBBOARD_BCRYPT_COST" default:"12" description:"bcrypt cost for password digests"`

	Log struct {
		Filename        string `long:"file" env:"FILE" description:"log file, stdout if empty"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max log file size in megabytes"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max number of rotated files to keep"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max days to keep rotated files, 0 keeps all"`
		EnabledCompress bool   `long:"compress" env:"COMPRESS" description:"gzip rotated files"`
	} `group:"log" namespace:"log" env-namespace:"JOBBOARD_LOG"`

	Dbg bool `long:"dbg" env:"JOBBOARD_DEBUG" description:"debug mode"`
}

var revision = "unknown"

func main() {
	fmt.Printf("jobboard %s\n", revision)

	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}

	logger := newLogger(setupLogs(), opts.Dbg)

	if opts.Storage == server.StorageSQLite {
		// os.MkdirAll creates the data directory if needed (like `mkdir -p`).
		dir := filepath.Dir(opts.SQLite.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(context.Background(), makeConfig(), logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func makeConfig() server.Config {
	return server.Config{
		Port:       opts.Port,
		Storage:    opts.Storage,
		SQLitePath: opts.SQLite.Path,
		Redis: redisRepo.Config{
			Addr:      opts.Redis.Addr,
			Password:  opts.Redis.Password,
			DB:        opts.Redis.DB,
			Namespace: opts.Redis.Namespace,
		},
		AllowStatusRevision: opts.AllowStatusRevision,
		BcryptCost:          opts.BcryptCost,
	}
}

// setupLogs returns stdout, or a rotating file writer when a log file is set.
func setupLogs() io.Writer {
	if opts.Log.Filename == "" {
		return os.Stdout
	}
	return &lumberjack.Logger{
		Filename:   opts.Log.Filename,
		MaxSize:    opts.Log.MaxSize,
		MaxBackups: opts.Log.MaxBackups,
		MaxAge:     opts.Log.MaxAge,
		Compress:   opts.Log.EnabledCompress,
	}
}

func newLogger(out io.Writer, dbg bool) *slog.Logger {
	level := slog.LevelInfo
	if dbg {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}
