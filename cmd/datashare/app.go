package main

import (
	"context"
	"fmt"

	"github.com/sagarc03/datashare"
	"github.com/sagarc03/datashare/config"
	"github.com/sagarc03/datashare/database"
	"github.com/sagarc03/datashare/storage"
)

// app holds the collaborators shared by the server commands.
type app struct {
	repo    datashare.Repo
	backend *storage.Backend
	files   *datashare.FileService
	closeDB func()
}

func (a *app) Close() {
	if a.backend != nil {
		_ = a.backend.Close()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

// openApp connects the database and storage and builds the file service.
func openApp(ctx context.Context, cfg *config.Config, migrate bool) (*app, error) {
	repo, closeDB, err := database.Open(ctx, cfg.Database, migrate)
	if err != nil {
		return nil, err
	}
	a := &app{repo: repo, closeDB: closeDB}

	a.backend, err = storage.Open(ctx, cfg.Storage, cfg.Server.PublicURL, cfg.Service.MaxUploadSize)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	a.files, err = datashare.NewFileService(repo, a.backend.Objects, nil, datashare.ServiceConfig{
		MaxUploadSize:  cfg.Service.MaxUploadSize,
		UploadURLTTL:   cfg.Service.UploadURLTTL,
		DownloadURLTTL: cfg.Service.DownloadURLTTL,
		ShareTTL:       cfg.Service.ShareTTL(),
		CleanupTimeout: cfg.Service.CleanupTimeout,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create file service: %w", err)
	}

	return a, nil
}
