package providers

import (
	"github.com/samber/do/v2"

	"github.com/pothpath/pothpath-server/internal/config"
	"github.com/pothpath/pothpath-server/internal/logger"
	"github.com/pothpath/pothpath-server/internal/prefs"
	"github.com/pothpath/pothpath-server/internal/storage"
	"github.com/pothpath/pothpath-server/internal/store/sqlite"
)

// StoreHandle wraps the catalog store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the catalog database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.DatabasePath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.DatabasePath())

	return &StoreHandle{Store: db}, nil
}

// PrefsStoreHandle wraps the preference store with shutdown capability.
type PrefsStoreHandle struct {
	*prefs.Store
}

// Shutdown implements do.Shutdownable.
func (h *PrefsStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvidePrefsStore provides the per-user preference store.
func ProvidePrefsStore(i do.Injector) (*PrefsStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := prefs.Open(cfg.PrefsPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Preference store initialized", "path", cfg.PrefsPath())

	return &PrefsStoreHandle{Store: db}, nil
}

// ProvideFileStorage provides the on-disk PDF storage.
func ProvideFileStorage(i do.Injector) (*storage.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	files, err := storage.NewStorage(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	log.Info("File storage initialized", "path", cfg.Data.BasePath)

	return files, nil
}
