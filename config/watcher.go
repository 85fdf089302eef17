package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher recarga el archivo de configuración al detectar cambios y entrega
// el resultado a un callback. Sólo las secciones de parámetros risk y exit
// cambian en runtime; el resto requiere reinicio.
type Watcher struct {
	path    string
	fs      *fsnotify.Watcher
	onLoad  func(*Config)
	lastMod time.Time
}

// NewWatcher crea un watcher para path. onLoad corre en la goroutine del
// watcher por cada recarga exitosa; el callback debe encolar el resultado,
// nunca tocar estado del loop directamente.
func NewWatcher(path string, onLoad func(*Config)) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config.NewWatcher: %w", err)
	}

	// Observar el directorio, no el archivo: los editores reemplazan el
	// archivo al guardar y un watch sobre el inode viejo queda mudo.
	if err := fs.Add(filepath.Dir(path)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("config.NewWatcher: watch %q: %w", filepath.Dir(path), err)
	}

	w := &Watcher{path: path, fs: fs, onLoad: onLoad}
	if info, err := os.Stat(path); err == nil {
		w.lastMod = info.ModTime()
	}
	return w, nil
}

// Run procesa eventos del filesystem hasta que el contexto se cancela.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fs.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// dejar que el escritor termine antes de leer
			time.Sleep(100 * time.Millisecond)
			w.reload()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher error", "err", err)
		}
	}
}

func (w *Watcher) reload() {
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("config reload: stat failed", "path", w.path, "err", err)
		return
	}
	if !info.ModTime().After(w.lastMod) {
		return
	}
	w.lastMod = info.ModTime()

	cfg, err := Load(w.path)
	if err != nil {
		slog.Warn("config reload failed; keeping previous values", "err", err)
		return
	}

	slog.Info("config reloaded", "path", w.path)
	w.onLoad(cfg)
}
