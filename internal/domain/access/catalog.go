package access

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed modules.yaml
var defaultCatalog []byte

// WildcardModule in a role's grants applies the listed actions to every module.
const WildcardModule = "*"

type CatalogModule struct {
	Key      string          `yaml:"key"`
	Name     string          `yaml:"name"`
	Path     string          `yaml:"path"`
	Icon     string          `yaml:"icon"`
	Children []CatalogModule `yaml:"children"`
}

type CatalogRole struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Grants      map[string][]Action `yaml:"grants"`
}

type Catalog struct {
	Modules []CatalogModule `yaml:"modules"`
	Roles   []CatalogRole   `yaml:"roles"`
}

// LoadCatalog reads the catalog at path, or the embedded default when path is empty.
func LoadCatalog(path string) (Catalog, error) {
	raw := defaultCatalog
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Catalog{}, err
		}
		raw = data
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse module catalog: %w", err)
	}
	seen := map[string]bool{}
	var check func(mods []CatalogModule) error
	check = func(mods []CatalogModule) error {
		for _, m := range mods {
			if m.Key == "" || m.Name == "" {
				return fmt.Errorf("module catalog: key and name are required")
			}
			if seen[m.Key] {
				return fmt.Errorf("module catalog: duplicate key %q", m.Key)
			}
			seen[m.Key] = true
			if err := check(m.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := check(c.Modules); err != nil {
		return Catalog{}, err
	}
	for _, role := range c.Roles {
		for key, actions := range role.Grants {
			if key != WildcardModule && !seen[key] {
				return Catalog{}, fmt.Errorf("module catalog: role %s grants unknown module %q", role.Name, key)
			}
			for _, a := range actions {
				if !a.Valid() {
					return Catalog{}, fmt.Errorf("module catalog: role %s: %w %q", role.Name, ErrUnknownAction, a)
				}
			}
		}
	}
	return c, nil
}

// Flatten lists catalog modules parent-first with sort orders spaced by ten.
// IDs are left empty; ParentID holds the parent's key.
func (c Catalog) Flatten() []NavigationModule {
	var out []NavigationModule
	var walk func(mods []CatalogModule, parentKey string)
	walk = func(mods []CatalogModule, parentKey string) {
		for i, m := range mods {
			out = append(out, NavigationModule{
				Key:       m.Key,
				Name:      m.Name,
				ParentID:  parentKey,
				SortOrder: (i + 1) * 10,
				Path:      m.Path,
				Icon:      m.Icon,
			})
			walk(m.Children, m.Key)
		}
	}
	walk(c.Modules, "")
	return out
}

// RoleGrants resolves a catalog role against a persisted tree and normalizes
// the result.
func RoleGrants(tree *ModuleTree, role CatalogRole) PermissionMap {
	perms := PermissionMap{}
	apply := func(id string, actions []Action) {
		g := perms[id]
		for _, a := range actions {
			g = g.set(a, true)
		}
		perms.put(id, g)
	}
	if actions, ok := role.Grants[WildcardModule]; ok {
		for _, m := range tree.Modules() {
			apply(m.ID, actions)
		}
	}
	for key, actions := range role.Grants {
		if key == WildcardModule {
			continue
		}
		if id, ok := tree.IDForKey(key); ok {
			apply(id, actions)
		}
	}
	return Normalize(tree, perms)
}
