// Package filestore implements a writable, YAML-file-backed registry
// backend on top of an afero filesystem.
//
// Layout, relative to the registry root:
//
//	chains/<name>/metadata.yaml
//	chains/<name>/addresses.yaml
//	deployments/warp_routes/<symbol>/<chains>-config.yaml
package filestore

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/chain-registry/chain-registry-framework/registry"
)

const (
	chainsDir     = "chains"
	metadataFile  = "metadata.yaml"
	addressesFile = "addresses.yaml"
	warpRoutesDir = "deployments/warp_routes"
	configSuffix  = "-config.yaml"
)

// Registry is a file-backed registry backend rooted at a directory.
type Registry struct {
	afs  afero.Afero
	root string
}

var _ registry.Registry = &Registry{}

// New creates a file-backed registry on the given filesystem. Tests pass an
// afero.NewMemMapFs to avoid touching disk.
func New(fs afero.Fs, root string) *Registry {
	return &Registry{afs: afero.Afero{Fs: fs}, root: root}
}

// NewOS creates a file-backed registry on the host filesystem.
func NewOS(root string) *Registry {
	return New(afero.NewOsFs(), root)
}

func (r *Registry) Kind() registry.Kind { return registry.KindFileSystem }
func (r *Registry) URI() string         { return r.root }

// ListRegistryContent walks the registry layout and reports the
// root-relative location of every chain file and warp route config present.
func (r *Registry) ListRegistryContent(_ context.Context) (registry.RegistryContent, error) {
	content := registry.RegistryContent{
		Chains:      map[registry.ChainName]registry.ChainFiles{},
		Deployments: registry.DeploymentContent{WarpRoutes: map[string]string{}},
	}

	names, err := r.chainNames()
	if err != nil {
		return registry.RegistryContent{}, err
	}
	for _, name := range names {
		var files registry.ChainFiles
		if ok, _ := r.afs.Exists(r.chainPath(name, metadataFile)); ok {
			files.Metadata = path.Join(chainsDir, name, metadataFile)
		}
		if ok, _ := r.afs.Exists(r.chainPath(name, addressesFile)); ok {
			files.Addresses = path.Join(chainsDir, name, addressesFile)
		}
		content.Chains[registry.ChainName(name)] = files
	}

	routes, err := r.warpRouteFiles()
	if err != nil {
		return registry.RegistryContent{}, err
	}
	for id, loc := range routes {
		content.Deployments.WarpRoutes[id] = loc
	}

	return content, nil
}

func (r *Registry) GetMetadata(_ context.Context) (map[registry.ChainName]registry.ChainMetadata, error) {
	names, err := r.chainNames()
	if err != nil {
		return nil, err
	}

	out := make(map[registry.ChainName]registry.ChainMetadata, len(names))
	for _, name := range names {
		// Decode into a plain map: yaml.v3 propagates the target's map type
		// to nested mappings, and records must carry map[string]any inside.
		record := map[string]any{}
		ok, err := r.readYAML(r.chainPath(name, metadataFile), &record)
		if err != nil {
			return nil, err
		}
		if ok {
			out[registry.ChainName(name)] = registry.ChainMetadata(record)
		}
	}

	return out, nil
}

func (r *Registry) GetAddresses(_ context.Context) (map[registry.ChainName]registry.ChainAddresses, error) {
	names, err := r.chainNames()
	if err != nil {
		return nil, err
	}

	out := make(map[registry.ChainName]registry.ChainAddresses, len(names))
	for _, name := range names {
		record := registry.ChainAddresses{}
		ok, err := r.readYAML(r.chainPath(name, addressesFile), &record)
		if err != nil {
			return nil, err
		}
		if ok {
			out[registry.ChainName(name)] = record
		}
	}

	return out, nil
}

func (r *Registry) AddChain(_ context.Context, chain registry.NewChainRecord) error {
	exists, err := r.afs.DirExists(r.chainPath(string(chain.Name)))
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("chain %s: %w", chain.Name, registry.ErrChainExists)
	}

	return r.writeChain(chain)
}

func (r *Registry) UpdateChain(_ context.Context, chain registry.NewChainRecord) error {
	exists, err := r.afs.DirExists(r.chainPath(string(chain.Name)))
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("chain %s: %w", chain.Name, registry.ErrChainNotFound)
	}

	return r.writeChain(chain)
}

func (r *Registry) RemoveChain(_ context.Context, name registry.ChainName) error {
	dir := r.chainPath(string(name))
	exists, err := r.afs.DirExists(dir)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("chain %s: %w", name, registry.ErrChainNotFound)
	}

	return r.afs.RemoveAll(dir)
}

// AddWarpRoute writes the route config under its canonical route ID,
// overwriting any previous config for the same route.
func (r *Registry) AddWarpRoute(_ context.Context, route registry.WarpRouteConfig) error {
	symbol, chains, ok := strings.Cut(route.RouteID(), "/")
	if !ok || symbol == "" || chains == "" {
		return fmt.Errorf("invalid warp route ID %q", route.RouteID())
	}

	dir := path.Join(r.root, warpRoutesDir, symbol)
	if err := r.afs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return r.writeYAML(path.Join(dir, chains+configSuffix), route)
}

// chainNames returns the chain directory names under chains/, in sorted
// order. A missing chains/ directory is an empty registry, not an error.
func (r *Registry) chainNames() ([]string, error) {
	entries, err := r.afs.ReadDir(path.Join(r.root, chainsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	sorted := treemap.NewWithStringComparator()
	for _, entry := range entries {
		if entry.IsDir() {
			sorted.Put(entry.Name(), struct{}{})
		}
	}

	names := make([]string, 0, sorted.Size())
	it := sorted.Iterator()
	for it.Next() {
		names = append(names, it.Key().(string))
	}

	return names, nil
}

// warpRouteFiles maps each stored route ID to its root-relative config
// location.
func (r *Registry) warpRouteFiles() (map[string]string, error) {
	routes := map[string]string{}

	symbols, err := r.afs.ReadDir(path.Join(r.root, warpRoutesDir))
	if err != nil {
		if os.IsNotExist(err) {
			return routes, nil
		}

		return nil, err
	}

	for _, symbol := range symbols {
		if !symbol.IsDir() {
			continue
		}
		configs, err := r.afs.ReadDir(path.Join(r.root, warpRoutesDir, symbol.Name()))
		if err != nil {
			return nil, err
		}
		for _, cfg := range configs {
			if cfg.IsDir() || !strings.HasSuffix(cfg.Name(), configSuffix) {
				continue
			}
			id := symbol.Name() + "/" + strings.TrimSuffix(cfg.Name(), configSuffix)
			routes[id] = path.Join(warpRoutesDir, symbol.Name(), cfg.Name())
		}
	}

	return routes, nil
}

func (r *Registry) chainPath(name string, parts ...string) string {
	return path.Join(append([]string{r.root, chainsDir, name}, parts...)...)
}

// writeChain persists the supplied parts of the record, creating the chain
// directory as needed. EVM hex addresses are standardized to EIP-55.
func (r *Registry) writeChain(chain registry.NewChainRecord) error {
	if err := r.afs.MkdirAll(r.chainPath(string(chain.Name)), 0o755); err != nil {
		return err
	}

	if chain.Metadata != nil {
		if err := r.writeYAML(r.chainPath(string(chain.Name), metadataFile), chain.Metadata); err != nil {
			return err
		}
	}
	if chain.Addresses != nil {
		normalized := registry.NormalizeAddresses(chain.Addresses)
		if err := r.writeYAML(r.chainPath(string(chain.Name), addressesFile), normalized); err != nil {
			return err
		}
	}

	return nil
}

// readYAML unmarshals the file at p into out, reporting ok=false when the
// file does not exist.
func (r *Registry) readYAML(p string, out any) (bool, error) {
	b, err := r.afs.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, err
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("unmarshaling %s: %w", p, err)
	}

	return true, nil
}

func (r *Registry) writeYAML(p string, v any) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", p, err)
	}

	return r.afs.WriteFile(p, b, 0o644)
}
