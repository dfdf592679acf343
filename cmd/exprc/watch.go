package main

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// watch calls rebuild for every file once and then each time it is written.
// Directories are watched instead of files so editors replacing files are noticed.
func watch(ctx context.Context, files []string, rebuild func(ctx context.Context, name string)) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "watch", "files", files)
	defer tr.Finish("err", &err)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "new watcher")
	}

	defer func() {
		e := w.Close()
		if err == nil && e != nil {
			err = errors.Wrap(e, "close watcher")
		}
	}()

	want := map[string]string{}
	dirs := map[string]struct{}{}

	for _, f := range files {
		want[filepath.Clean(f)] = f

		d := filepath.Dir(f)
		if _, ok := dirs[d]; ok {
			continue
		}

		dirs[d] = struct{}{}

		err = w.Add(d)
		if err != nil {
			return errors.Wrap(err, "watch %v", d)
		}
	}

	for _, f := range files {
		rebuild(ctx, f)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			name, ok := want[filepath.Clean(ev.Name)]
			if !ok || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			tr.V("events").Printw("file changed", "name", name, "op", ev.Op.String())

			rebuild(ctx, name)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			return errors.Wrap(err, "watcher")
		}
	}
}
