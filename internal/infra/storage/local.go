// Package storage は画像ファイルをローカルディスクに保存する。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// 5MBまで
const MaxImageSize = 5 * 1024 * 1024

var (
	ErrImageTooLarge    = errors.New("image too large")
	ErrUnsupportedImage = errors.New("only image files are allowed")
)

var allowedExt = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

// LocalImageStore は dir に保存して /uploads/... のパスを返す
type LocalImageStore struct {
	dir       string
	urlPrefix string
	now       func() time.Time
}

func NewLocalImageStore(dir string) *LocalImageStore {
	return &LocalImageStore{dir: dir, urlPrefix: "/uploads", now: time.Now}
}

func (s *LocalImageStore) Dir() string {
	return s.dir
}

// Save はファイル名の拡張子とサイズを見てから保存する
func (s *LocalImageStore) Save(ctx context.Context, prefix string, filename string, size int64, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExt[ext]; !ok {
		return "", ErrUnsupportedImage
	}
	if size > MaxImageSize {
		return "", ErrImageTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := prefix + "-" + strconv.FormatInt(s.now().UnixNano(), 10) + ext
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}

	//申告サイズより大きい中身も弾く
	n, err := io.Copy(f, io.LimitReader(r, MaxImageSize+1))
	closeErr := f.Close()
	if err == nil && n > MaxImageSize {
		err = ErrImageTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.dir, name))
		return "", err
	}

	return path.Join(s.urlPrefix, name), nil
}

// Delete は Save が返したパスのファイルを消す（無ければ何もしない）
func (s *LocalImageStore) Delete(_ context.Context, stored string) error {
	name := path.Base(stored)
	if name == "." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
