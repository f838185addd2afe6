package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a config file whenever it changes on disk. The parent
// directory is watched rather than the file itself so that editors that
// replace the file by rename keep triggering reloads.
type Watcher struct {
	w    *fsnotify.Watcher
	path string
	cfgC chan Config
	errC chan error
}

func NewWatcher(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	cw := &Watcher{w: w, path: abs, cfgC: make(chan Config, 1), errC: make(chan error, 1)}
	go cw.loop()
	return cw, nil
}

func (cw *Watcher) loop() {
	for {
		select {
		case ev, ok := <-cw.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != cw.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			cfg, err := Load(cw.path)
			if err != nil {
				cw.push(cw.errC, err)
				continue
			}
			cw.pushCfg(cfg)
		case err, ok := <-cw.w.Errors:
			if !ok {
				return
			}
			cw.push(cw.errC, err)
		}
	}
}

// pushCfg keeps only the newest pending config.
func (cw *Watcher) pushCfg(cfg Config) {
	for {
		select {
		case cw.cfgC <- cfg:
			return
		default:
			select {
			case <-cw.cfgC:
			default:
			}
		}
	}
}

func (cw *Watcher) push(c chan error, err error) {
	select {
	case c <- err:
	default:
	}
}

// Configs yields each successfully reloaded configuration.
func (cw *Watcher) Configs() <-chan Config { return cw.cfgC }

// Errors yields reload and watch failures.
func (cw *Watcher) Errors() <-chan error { return cw.errC }

func (cw *Watcher) Close() error { return cw.w.Close() }
