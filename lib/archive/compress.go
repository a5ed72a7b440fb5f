// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive turns an instruction directory into a single
// transportable file and back, and implements the archive subsetter
// that selects which store objects and info files travel with a Load
// command.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm selects the whole-stream compressor wrapping the tar
// container. The tag byte written at the head of the file lets Unpack
// pick the matching decompressor without being told in advance.
type Algorithm byte

const (
	AlgorithmZstd Algorithm = 0
	AlgorithmLZ4  Algorithm = 1
)

// ParseAlgorithm parses the --compression flag value.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "zstd", "":
		return AlgorithmZstd, nil
	case "lz4":
		return AlgorithmLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression algorithm %q (want zstd or lz4)", name)
	}
}

func (a Algorithm) String() string {
	switch a {
	case AlgorithmZstd:
		return "zstd"
	case AlgorithmLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", a)
	}
}

// Pack walks dir and writes its contents as a tar stream compressed
// with algorithm into destPath, preceded by a one-byte algorithm tag.
func Pack(dir string, destPath string, algorithm Algorithm) error {
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("archive: create %s: %w", destPath, err)
	}
	defer out.Close()

	if _, err := out.Write([]byte{byte(algorithm)}); err != nil {
		return fmt.Errorf("archive: write algorithm tag: %w", err)
	}

	compressor, err := newCompressWriter(out, algorithm)
	if err != nil {
		return err
	}

	tarWriter := tar.NewWriter(compressor)
	if err := addDirToTar(tarWriter, dir); err != nil {
		return err
	}
	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("archive: close tar writer: %w", err)
	}
	if err := compressor.Close(); err != nil {
		return fmt.Errorf("archive: close compressor: %w", err)
	}
	return nil
}

// Unpack reads a file written by Pack and extracts its contents into
// destDir, which is created if necessary.
func Unpack(srcPath string, destDir string) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("archive: open %s: %w", srcPath, err)
	}
	defer in.Close()

	var tagByte [1]byte
	if _, err := io.ReadFull(in, tagByte[:]); err != nil {
		return fmt.Errorf("archive: read algorithm tag: %w", err)
	}
	algorithm := Algorithm(tagByte[0])

	decompressor, err := newDecompressReader(in, algorithm)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("archive: mkdir %s: %w", destDir, err)
	}

	tarReader := tar.NewReader(decompressor)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("archive: read tar entry: %w", err)
		}
		target := filepath.Join(destDir, header.Name)
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("archive: mkdir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("archive: mkdir %s: %w", filepath.Dir(target), err)
			}
			file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return fmt.Errorf("archive: create %s: %w", target, err)
			}
			if _, err := io.Copy(file, tarReader); err != nil {
				file.Close()
				return fmt.Errorf("archive: write %s: %w", target, err)
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("archive: close %s: %w", target, err)
			}
		}
	}
	return nil
}

func addDirToTar(w *tar.Writer, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relPath)
		if info.IsDir() {
			header.Name += "/"
		}
		if err := w.WriteHeader(header); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(w, file)
		return err
	})
}

func newCompressWriter(w io.Writer, algorithm Algorithm) (io.WriteCloser, error) {
	switch algorithm {
	case AlgorithmZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case AlgorithmLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("archive: unsupported compression algorithm %d", algorithm)
	}
}

func newDecompressReader(r io.Reader, algorithm Algorithm) (io.Reader, error) {
	switch algorithm {
	case AlgorithmZstd:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("archive: create zstd reader: %w", err)
		}
		return decoder.IOReadCloser(), nil
	case AlgorithmLZ4:
		return lz4.NewReader(r), nil
	default:
		return nil, fmt.Errorf("archive: unsupported compression algorithm %d", algorithm)
	}
}
