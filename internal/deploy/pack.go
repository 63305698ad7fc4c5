package deploy

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sync"
)

// PackResult describes one packed artifact.
type PackResult struct {
	ComponentID string
	ArchivePath string
	Files       int
	Size        int64 // uncompressed bytes
	Checksum    string
}

// packSkip lists directory names never included in an artifact.
var packSkip = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// sourceFiles walks dir and returns relative paths of regular files.
func sourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if packSkip[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	return files, err
}

// Pack builds the component's artifact from its source directory. The
// archive gets a single root directory named after the live directory,
// so extraction on the remote side lands in a predictably named dir.
func Pack(c Component) (PackResult, error) {
	if c.BuildArtifact == "" {
		return PackResult{}, ErrNotConfigured
	}
	if c.SourceDir == "" {
		return PackResult{}, fmt.Errorf("component %s has no source directory", c.ID)
	}
	typ := c.ArtifactType
	if typ == "" {
		var ok bool
		typ, ok = ArtifactTypeFromPath(c.BuildArtifact)
		if !ok {
			return PackResult{}, &UnsupportedTypeError{Type: typ}
		}
	}

	files, err := sourceFiles(c.SourceDir)
	if err != nil {
		return PackResult{}, fmt.Errorf("collect %s: %w", c.SourceDir, err)
	}

	if err := os.MkdirAll(filepath.Dir(c.BuildArtifact), 0o755); err != nil {
		return PackResult{}, err
	}

	root := path.Base(path.Clean(c.RemotePath))
	var size int64
	switch typ {
	case ArtifactZip:
		size, err = writeZip(c.BuildArtifact, c.SourceDir, root, files)
	case ArtifactGz, ArtifactTgz:
		size, err = writeTarGz(c.BuildArtifact, c.SourceDir, root, files)
	default:
		return PackResult{}, &UnsupportedTypeError{Type: typ}
	}
	if err != nil {
		return PackResult{}, fmt.Errorf("pack %s: %w", c.ID, err)
	}

	sum, err := fileChecksum(c.BuildArtifact)
	if err != nil {
		return PackResult{}, err
	}
	return PackResult{
		ComponentID: c.ID,
		ArchivePath: c.BuildArtifact,
		Files:       len(files),
		Size:        size,
		Checksum:    sum,
	}, nil
}

func writeZip(dest, dir, root string, files []string) (int64, error) {
	f, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	var total int64
	for _, rel := range files {
		n, err := addZipFile(zw, filepath.Join(dir, rel), path.Join(root, filepath.ToSlash(rel)))
		if err != nil {
			zw.Close()
			return 0, err
		}
		total += n
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	return total, nil
}

func addZipFile(zw *zip.Writer, fullPath, name string) (int64, error) {
	src, err := os.Open(fullPath)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	stat, err := src.Stat()
	if err != nil {
		return 0, err
	}

	hdr, err := zip.FileInfoHeader(stat)
	if err != nil {
		return 0, err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return 0, err
	}
	return io.Copy(w, src)
}

func writeTarGz(dest, dir, root string, files []string) (int64, error) {
	f, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	var total int64
	for _, rel := range files {
		n, err := addTarFile(tw, filepath.Join(dir, rel), path.Join(root, filepath.ToSlash(rel)))
		if err != nil {
			tw.Close()
			gw.Close()
			return 0, err
		}
		total += n
	}
	if err := tw.Close(); err != nil {
		gw.Close()
		return 0, err
	}
	return total, gw.Close()
}

func addTarFile(tw *tar.Writer, fullPath, name string) (int64, error) {
	src, err := os.Open(fullPath)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	stat, err := src.Stat()
	if err != nil {
		return 0, err
	}

	hdr := &tar.Header{
		Name:    name,
		Size:    stat.Size(),
		Mode:    int64(stat.Mode()),
		ModTime: stat.ModTime(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return 0, err
	}
	return io.Copy(tw, src)
}

// PackAll packs every component with a pool of workers. Results come
// back keyed by component ID; a component that fails to pack yields an
// error in errs under the same key.
func PackAll(components []Component) (map[string]PackResult, map[string]error) {
	workers := runtime.NumCPU()
	if workers > len(components) {
		workers = len(components)
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]PackResult, len(components))
		errs    = make(map[string]error)
	)
	compChan := make(chan Component, len(components))

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range compChan {
				res, err := Pack(c)
				mu.Lock()
				if err != nil {
					errs[c.ID] = err
				} else {
					results[c.ID] = res
				}
				mu.Unlock()
			}
		}()
	}

	for _, c := range components {
		compChan <- c
	}
	close(compChan)
	wg.Wait()

	return results, errs
}

// fileChecksum computes the SHA256 of a file as a hex string.
func fileChecksum(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
