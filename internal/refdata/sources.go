package refdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aydocorp/opscomposer/pkg/core"
	"gopkg.in/yaml.v3"
)

// Directory lists users and the ships they own.
type Directory interface {
	Users(ctx context.Context) ([]core.DirectoryUser, error)
}

// Catalog lists the vessel compendium.
type Catalog interface {
	Entries(ctx context.Context) ([]Entry, error)
}

// DefaultHTTPClient is used when a nil client is passed to the HTTP sources.
var DefaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// HTTPDirectory fetches the user directory from a URL.
type HTTPDirectory struct {
	URL    string
	Client *http.Client
}

// Users implements Directory. The body may be a list or an {"items": [...]} wrapper.
func (d HTTPDirectory) Users(ctx context.Context) ([]core.DirectoryUser, error) {
	body, err := get(ctx, d.Client, d.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching user directory: %w", err)
	}
	return decodeList[core.DirectoryUser](body, "user directory")
}

// HTTPCatalog fetches the compendium from a URL.
type HTTPCatalog struct {
	URL    string
	Client *http.Client
}

// Entries implements Catalog.
func (c HTTPCatalog) Entries(ctx context.Context) ([]Entry, error) {
	body, err := get(ctx, c.Client, c.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching compendium: %w", err)
	}
	return decodeList[Entry](body, "compendium")
}

// FileDirectory reads the user directory from a JSON or YAML file.
type FileDirectory struct {
	Path string
}

// Users implements Directory.
func (d FileDirectory) Users(_ context.Context) ([]core.DirectoryUser, error) {
	return readFile[core.DirectoryUser](d.Path, "user directory")
}

// FileCatalog reads the compendium from a JSON or YAML file.
type FileCatalog struct {
	Path string
}

// Entries implements Catalog.
func (c FileCatalog) Entries(_ context.Context) ([]Entry, error) {
	return readFile[Entry](c.Path, "compendium")
}

// StaticDirectory serves a fixed user list.
type StaticDirectory []core.DirectoryUser

// Users implements Directory.
func (d StaticDirectory) Users(_ context.Context) ([]core.DirectoryUser, error) {
	return append([]core.DirectoryUser(nil), d...), nil
}

// StaticCatalog serves a fixed compendium.
type StaticCatalog []Entry

// Entries implements Catalog.
func (c StaticCatalog) Entries(_ context.Context) ([]Entry, error) {
	return append([]Entry(nil), c...), nil
}

// Sources picks the directory and catalog for the configured locations.
// An explicit URL wins over a file; with neither, the persistence service's
// own /api/users and /api/ships endpoints are used.
func Sources(usersURL, usersFile, shipsURL, shipsFile, serverURL string, client *http.Client) (Directory, Catalog) {
	base := strings.TrimRight(serverURL, "/")

	var dir Directory
	switch {
	case usersURL != "":
		dir = HTTPDirectory{URL: usersURL, Client: client}
	case usersFile != "":
		dir = FileDirectory{Path: usersFile}
	default:
		dir = HTTPDirectory{URL: base + "/api/users", Client: client}
	}

	var cat Catalog
	switch {
	case shipsURL != "":
		cat = HTTPCatalog{URL: shipsURL, Client: client}
	case shipsFile != "":
		cat = FileCatalog{Path: shipsFile}
	default:
		cat = HTTPCatalog{URL: base + "/api/ships", Client: client}
	}
	return dir, cat
}

func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = DefaultHTTPClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

type itemsWrapper[T any] struct {
	Items []T `json:"items" yaml:"items"`
}

func decodeList[T any](body []byte, what string) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var w itemsWrapper[T]
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", what, err)
		}
		return w.Items, nil
	}
	var list []T
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", what, err)
	}
	return list, nil
}

func readFile[T any](path, what string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s file: %w", what, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var list []T
		if err := yaml.Unmarshal(data, &list); err == nil {
			return list, nil
		}
		var w itemsWrapper[T]
		if err := yaml.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", what, err)
		}
		return w.Items, nil
	default:
		return decodeList[T](data, what)
	}
}
