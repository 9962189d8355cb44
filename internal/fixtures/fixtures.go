// Package fixtures manages the sample databases used by tests and by
// the fixtures CLI commands: downloading the published samples and
// generating small deterministic ones locally.
package fixtures

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	lferrors "github.com/driftdb/litefile/core/errors"
	"github.com/driftdb/litefile/internal/logging"
)

// Sample describes one downloadable sample database.
type Sample struct {
	Name string // file name on disk
	URL  string // download location; .xz URLs are decompressed

	// Checksum is the expected hex BLAKE3 digest of the stored file.
	// Empty means the digest is recorded on first download rather than
	// verified.
	Checksum string
}

// Samples is the registry of known sample databases.
var Samples = []Sample{
	{
		Name: "superheroes.db",
		URL:  "https://raw.githubusercontent.com/codecrafters-io/sample-sqlite-databases/master/superheroes.db",
	},
	{
		Name: "companies.db",
		URL:  "https://raw.githubusercontent.com/codecrafters-io/sample-sqlite-databases/master/companies.db",
	},
}

// Lookup finds a registered sample by name.
func Lookup(name string) (Sample, error) {
	for _, s := range Samples {
		if s.Name == name {
			return s, nil
		}
	}
	return Sample{}, &lferrors.NotFoundError{Resource: "sample database", ID: name}
}

// Digest returns the hex BLAKE3 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DigestFile returns the hex BLAKE3 digest of a file's contents.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &lferrors.IOError{Operation: "open", Path: path, Err: err}
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", &lferrors.IOError{Operation: "read", Path: path, Err: err}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Fetch downloads a sample into dir and returns the path to the stored
// file and its hex BLAKE3 digest. The file is written atomically: a
// temporary file is renamed into place only after the download and
// checksum pass. An existing file with a matching checksum is kept.
func Fetch(ctx context.Context, client *http.Client, dir string, sample Sample) (string, string, error) {
	if client == nil {
		client = http.DefaultClient
	}

	dest := filepath.Join(dir, sample.Name)

	// Matching file already present? Skip the download.
	if sample.Checksum != "" {
		if digest, err := DigestFile(dest); err == nil && digest == sample.Checksum {
			return dest, digest, nil
		}
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sample.URL, nil)
	if err != nil {
		return "", "", fmt.Errorf("build request for %s: %w", sample.URL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("download %s: %w", sample.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("download %s: unexpected status %s", sample.URL, resp.Status)
	}

	var body io.Reader = resp.Body
	if strings.HasSuffix(sample.URL, ".xz") {
		xzr, err := xz.NewReader(resp.Body)
		if err != nil {
			return "", "", fmt.Errorf("open xz stream for %s: %w", sample.URL, err)
		}
		body = xzr
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", &lferrors.IOError{Operation: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, sample.Name+".download-*")
	if err != nil {
		return "", "", &lferrors.IOError{Operation: "create", Path: dir, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	h := blake3.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", "", &lferrors.IOError{Operation: "write", Path: tmpName, Err: err}
	}

	digest := hex.EncodeToString(h.Sum(nil))
	if sample.Checksum != "" && digest != sample.Checksum {
		return "", "", fmt.Errorf("checksum mismatch for %s: got %s, want %s", sample.Name, digest, sample.Checksum)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return "", "", &lferrors.IOError{Operation: "rename", Path: dest, Err: err}
	}

	logging.FixtureDownload(sample.Name, sample.URL, size, time.Since(start))

	return dest, digest, nil
}

// FetchAll downloads every named sample (or all registered samples when
// names is empty) into dir. It returns the digests by sample name.
func FetchAll(ctx context.Context, client *http.Client, dir string, names ...string) (map[string]string, error) {
	samples := Samples
	if len(names) > 0 {
		samples = samples[:0:0]
		for _, name := range names {
			s, err := Lookup(name)
			if err != nil {
				return nil, err
			}
			samples = append(samples, s)
		}
	}

	digests := make(map[string]string, len(samples))
	for _, s := range samples {
		_, digest, err := Fetch(ctx, client, dir, s)
		if err != nil {
			return nil, err
		}
		digests[s.Name] = digest
	}
	return digests, nil
}
