package monitoring

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ArtifactWatcher 监视模型文件。服务器只在启动时加载模型，
// 文件变化时仅记录警告，提示需要重启。
type ArtifactWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	onChange func(fsnotify.Op)
}

// NewArtifactWatcher 监视 path 所在目录：模型以临时文件加重命名的方式写出，
// 直接监视文件会在第一次替换后失效。
func NewArtifactWatcher(path string, logger *zap.Logger, onChange func(fsnotify.Op)) (*ArtifactWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &ArtifactWatcher{path: abs, watcher: watcher, logger: logger, onChange: onChange}, nil
}

// Run 处理文件事件直到 ctx 结束
func (w *ArtifactWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path || event.Op&relevant == 0 {
				continue
			}
			w.logger.Warn("model artifact changed on disk; restart the server to serve it",
				zap.String("path", w.path),
				zap.String("op", event.Op.String()),
			)
			if w.onChange != nil {
				w.onChange(event.Op)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("artifact watcher error", zap.Error(err))
		}
	}
}
